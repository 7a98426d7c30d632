package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/word-impostor/internal/protocol"
)

// CommandKind 输入行解析出的命令
type CommandKind string

const (
	CmdCreate CommandKind = "create"
	CmdJoin   CommandKind = "join"
	CmdLeave  CommandKind = "leave"
	CmdStart  CommandKind = "start"
	CmdVote   CommandKind = "vote"
	CmdEnd    CommandKind = "end"
	CmdNext   CommandKind = "next"
	CmdOwner  CommandKind = "owner"
	CmdTop    CommandKind = "top"
	CmdPing   CommandKind = "ping"
	CmdHelp   CommandKind = "help"
	CmdQuit   CommandKind = "quit"
)

// Command 解析后的命令
type Command struct {
	Kind  CommandKind
	Args  []string
	Limit int
}

var ErrEmptyCommand = errors.New("empty command")

const helpText = "create <名字> | join <房间号> <名字> | leave | start | vote <玩家> | end | next | owner <玩家> | top [n] | ping | quit"

var aliases = map[string]CommandKind{
	"c": CmdCreate, "j": CmdJoin, "v": CmdVote, "lb": CmdTop, "q": CmdQuit, "exit": CmdQuit, "?": CmdHelp,
}

// ParseCommand 解析一行输入，名字允许包含空格
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	name := strings.ToLower(fields[0])
	kind, ok := aliases[name]
	if !ok {
		kind = CommandKind(name)
	}
	args := fields[1:]
	cmd := Command{Kind: kind}

	switch kind {
	case CmdCreate, CmdVote, CmdOwner:
		if len(args) == 0 {
			return Command{}, fmt.Errorf("用法: %s <参数>", kind)
		}
		cmd.Args = []string{strings.Join(args, " ")}
	case CmdJoin:
		if len(args) < 2 {
			return Command{}, errors.New("用法: join <房间号> <名字>")
		}
		cmd.Args = []string{args[0], strings.Join(args[1:], " ")}
	case CmdTop:
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return Command{}, fmt.Errorf("无效的数量: %s", args[0])
			}
			cmd.Limit = n
		}
	case CmdLeave, CmdStart, CmdEnd, CmdNext, CmdPing, CmdHelp, CmdQuit:
	default:
		return Command{}, fmt.Errorf("未知命令: %s", fields[0])
	}
	return cmd, nil
}

// ResolvePlayer 按 ID 或名字（不区分大小写）查找玩家
func ResolvePlayer(room *protocol.RoomSnapshot, ref string) (string, bool) {
	if room == nil {
		return "", false
	}
	for _, p := range room.Players {
		if p.ID == ref {
			return p.ID, true
		}
	}
	for _, p := range room.Players {
		if strings.EqualFold(p.Name, ref) {
			return p.ID, true
		}
	}
	return "", false
}

// playerName 根据 ID 取名字，找不到时返回 ID
func playerName(room *protocol.RoomSnapshot, id string) string {
	if room != nil {
		for _, p := range room.Players {
			if p.ID == id {
				return p.Name
			}
		}
	}
	return id
}
