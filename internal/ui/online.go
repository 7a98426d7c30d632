package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/word-impostor/internal/client"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

const (
	requestTimeout = 5 * time.Second
	maxLogLines    = 8
)

// --- tea.Msg ---

// ServerMessage 服务端推送
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg 连接成功
type ConnectedMsg struct {
	PlayerID string
}

// ConnectionErrorMsg 连接失败
type ConnectionErrorMsg struct {
	Err error
}

// DisconnectedMsg 连接断开
type DisconnectedMsg struct{}

// CommandResultMsg 一次请求的应答
type CommandResultMsg struct {
	Kind        CommandKind
	Room        *protocol.RoomSnapshot
	Results     *protocol.ResultsPayload
	Leaderboard []protocol.LeaderboardEntry
	Err         error
}

// OnlineModel 联机模式的终端界面
type OnlineModel struct {
	client *client.Client
	input  textinput.Model

	connected bool
	playerID  string

	room        *protocol.RoomSnapshot
	role        *protocol.RolePayload
	results     *protocol.ResultsPayload
	leaderboard []protocol.LeaderboardEntry

	logs   []string
	err    string
	width  int
	height int
}

// NewOnlineModel 创建联机模式界面
func NewOnlineModel(serverURL, codecName string) *OnlineModel {
	ti := textinput.New()
	ti.Placeholder = "输入命令，help 查看帮助"
	ti.CharLimit = 64
	ti.Width = 48
	ti.Focus()

	return &OnlineModel{
		client: client.NewClient(serverURL, codecName),
		input:  ti,
	}
}

func (m *OnlineModel) Init() tea.Cmd {
	return tea.Batch(m.connectToServer(), textinput.Blink)
}

func (m *OnlineModel) connectToServer() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Connect(ctx); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{PlayerID: c.PlayerID()}
	}
}

func (m *OnlineModel) listenForMessages() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		select {
		case msg := <-c.Events():
			return ServerMessage{Msg: msg}
		case <-c.Done():
			return DisconnectedMsg{}
		}
	}
}

func (m *OnlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.client.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.SetValue("")
			return m, m.submit(line)
		}

	case ConnectedMsg:
		m.connected = true
		m.playerID = msg.PlayerID
		m.err = ""
		m.client.StartHeartbeat()
		m.addLog("✅ 已连接，玩家 ID: " + msg.PlayerID)
		return m, m.listenForMessages()

	case ConnectionErrorMsg:
		m.err = fmt.Sprintf("连接失败: %v", msg.Err)
		return m, nil

	case DisconnectedMsg:
		m.connected = false
		m.room, m.role, m.results = nil, nil, nil
		m.addLog("🔌 与服务器断开连接")
		return m, nil

	case ServerMessage:
		m.handleServerMessage(msg.Msg)
		return m, m.listenForMessages()

	case CommandResultMsg:
		m.handleCommandResult(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit 解析输入行，返回执行请求的 tea.Cmd
func (m *OnlineModel) submit(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return nil
	}
	if err != nil {
		m.err = err.Error()
		return nil
	}
	m.err = ""

	switch cmd.Kind {
	case CmdHelp:
		m.addLog(helpText)
		return nil
	case CmdQuit:
		m.client.Close()
		return tea.Quit
	}

	if !m.connected {
		m.err = "尚未连接到服务器"
		return nil
	}
	return m.execute(cmd)
}

func (m *OnlineModel) execute(cmd Command) tea.Cmd {
	var target string
	if cmd.Kind == CmdVote || cmd.Kind == CmdOwner {
		id, ok := ResolvePlayer(m.room, cmd.Args[0])
		if !ok {
			m.err = "找不到玩家: " + cmd.Args[0]
			return nil
		}
		target = id
	}

	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res := CommandResultMsg{Kind: cmd.Kind}
		switch cmd.Kind {
		case CmdCreate:
			res.Room, res.Err = c.CreateRoom(ctx, cmd.Args[0])
		case CmdJoin:
			res.Room, res.Err = c.JoinRoom(ctx, cmd.Args[0], cmd.Args[1])
		case CmdLeave:
			res.Err = c.LeaveRoom(ctx)
		case CmdStart:
			res.Err = c.StartGame(ctx)
		case CmdVote:
			res.Err = c.SubmitVote(ctx, target)
		case CmdEnd:
			res.Results, res.Err = c.EndVoting(ctx)
		case CmdNext:
			res.Err = c.NextRound(ctx)
		case CmdOwner:
			res.Err = c.MakeOwner(ctx, target)
		case CmdTop:
			res.Leaderboard, res.Err = c.GetLeaderboard(ctx, cmd.Limit)
		case CmdPing:
			res.Err = c.Ping()
		}
		return res
	}
}

func (m *OnlineModel) handleCommandResult(msg CommandResultMsg) {
	if msg.Err != nil {
		m.err = fmt.Sprintf("%s 失败: %v", msg.Kind, msg.Err)
		return
	}
	m.err = ""

	switch msg.Kind {
	case CmdCreate, CmdJoin:
		m.role, m.results = nil, nil
		if msg.Room != nil {
			m.room = msg.Room
			m.addLog("🏠 进入房间 " + msg.Room.ID)
		}
	case CmdLeave:
		m.room, m.role, m.results = nil, nil, nil
		m.addLog("👋 已离开房间")
	case CmdVote:
		m.addLog("🗳  已投票")
	case CmdEnd:
		if msg.Results != nil {
			m.results = msg.Results
		}
	case CmdOwner:
		m.addLog("👑 已转让房主")
	case CmdTop:
		m.leaderboard = msg.Leaderboard
	}
}

func (m *OnlineModel) handleServerMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgRoomUpdate:
		snapshot, err := codec.ParsePayload[protocol.RoomSnapshot](msg)
		if err != nil {
			return
		}
		switch snapshot.Phase {
		case "lobby":
			m.role, m.results = nil, nil
		case "active":
			m.results = nil
		}
		m.room = snapshot

	case protocol.MsgRole:
		role, err := codec.ParsePayload[protocol.RolePayload](msg)
		if err != nil {
			return
		}
		m.role = role
		m.results = nil
		m.addLog("🎭 身份已下发")

	case protocol.MsgResults:
		results, err := codec.ParsePayload[protocol.ResultsPayload](msg)
		if err != nil {
			return
		}
		m.results = results
		m.addLog("📣 本轮结束，卧底是 " + playerName(m.room, results.ImpostorID))

	case protocol.MsgError:
		if payload, err := codec.ParsePayload[protocol.ErrorPayload](msg); err == nil {
			m.err = fmt.Sprintf("%s: %s", payload.Code, payload.Message)
		}
	}
}

func (m *OnlineModel) addLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}
