package room

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

const (
	roomCodeChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 房间号字符集
	maxCodeAttempts = 64                                     // 生成房间号的最大尝试次数
	defaultName     = "Player"
)

// Player 房间中的玩家
type Player struct {
	ID    string
	Name  string
	Score int
}

// Room 游戏房间，所有字段都受 mu 保护
type Room struct {
	Code      string    // 房间号
	CreatedAt time.Time // 创建时间

	ownerID     string
	phase       Phase
	round       int
	word        string
	impostorID  string
	players     map[string]*Player
	playerOrder []string          // 加入顺序，用于展示和房主交接
	votes       map[string]string // 投票人 → 被投票人
	voteOrder   []string          // 首次投票的顺序
	closed      bool              // 最后一名玩家离开后置位，之后的加入视为房间不存在
	mirrorSeq   uint64            // 最新一次镜像的版本号

	rm *RoomManager
	mu sync.RWMutex

	// Redis 镜像写入按版本串行，旧版本和解散后的写入会被丢弃
	mirrorMu      sync.Mutex
	mirrorWritten uint64
	mirrorDeleted bool
}

func newRoom(rm *RoomManager, code string) *Room {
	return &Room{
		Code:      code,
		CreatedAt: time.Now(),
		phase:     PhaseLobby,
		players:   make(map[string]*Player),
		votes:     make(map[string]string),
		rm:        rm,
	}
}

// Snapshot 房间公开状态
func (r *Room) Snapshot() protocol.RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() protocol.RoomSnapshot {
	players := make([]protocol.PlayerInfo, 0, len(r.playerOrder))
	for _, id := range r.playerOrder {
		p := r.players[id]
		players = append(players, protocol.PlayerInfo{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return protocol.RoomSnapshot{
		ID:         r.Code,
		OwnerID:    r.ownerID,
		Phase:      string(r.phase),
		Round:      r.round,
		Players:    players,
		VotesCount: len(r.votes),
	}
}

// Phase 当前阶段
func (r *Room) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// OwnerID 当前房主
func (r *Room) OwnerID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ownerID
}

// PlayerCount 玩家数量
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// HasPlayer 玩家是否在房间中
func (r *Room) HasPlayer(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[id]
	return ok
}

// PlayerName 玩家在房间中的显示名
func (r *Room) PlayerName(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.players[id]; ok {
		return p.Name
	}
	return ""
}

// PublishState 向房间广播当前状态
func (r *Room) PublishState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.publishStateLocked()
}

// setPhase 所有阶段变更都经过这里
func (r *Room) setPhase(target Phase) error {
	if !r.phase.CanTransitionTo(target) {
		return fmt.Errorf("room %s: invalid phase transition %s -> %s", r.Code, r.phase, target)
	}
	r.phase = target
	return nil
}

// addPlayerLocked 加入玩家并处理重名
func (r *Room) addPlayerLocked(id, name string) *Player {
	p := &Player{ID: id, Name: r.uniqueNameLocked(name)}
	r.players[id] = p
	r.playerOrder = append(r.playerOrder, id)
	if r.ownerID == "" {
		r.ownerID = id
	}
	return p
}

// uniqueNameLocked 与已有玩家重名时追加 " 2"、" 3" ...，加后缀后仍不超过长度上限
func (r *Room) uniqueNameLocked(name string) string {
	taken := make(map[string]struct{}, len(r.players))
	for _, p := range r.players {
		taken[p.Name] = struct{}{}
	}

	unique := name
	for counter := 2; ; counter++ {
		if _, exists := taken[unique]; !exists {
			return unique
		}
		suffix := fmt.Sprintf(" %d", counter)
		unique = truncateName(name, r.rm.maxNameLength-utf8.RuneCountInString(suffix)) + suffix
	}
}

// removePlayerLocked 移除玩家以及所有与其相关的投票
func (r *Room) removePlayerLocked(id string) {
	delete(r.players, id)
	r.playerOrder = removeID(r.playerOrder, id)

	delete(r.votes, id)
	r.voteOrder = removeID(r.voteOrder, id)
	for voter, target := range r.votes {
		if target == id {
			delete(r.votes, voter)
			r.voteOrder = removeID(r.voteOrder, voter)
		}
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (r *Room) clearVotesLocked() {
	clear(r.votes)
	r.voteOrder = r.voteOrder[:0]
}

// broadcast 在持锁状态下调用，保证通知按状态变化的顺序发出
func (r *Room) broadcast(msgType protocol.MessageType, payload any) {
	if r.rm.publisher == nil {
		return
	}
	r.rm.publisher.BroadcastToRoom(r.Code, codec.MustNewMessage(msgType, payload))
}

func (r *Room) sendTo(playerID string, msgType protocol.MessageType, payload any) {
	if r.rm.publisher == nil {
		return
	}
	r.rm.publisher.SendToConnection(playerID, codec.MustNewMessage(msgType, payload))
}

func (r *Room) publishStateLocked() {
	r.broadcast(protocol.MsgRoomUpdate, r.snapshotLocked())
	r.rm.mirror(r)
}
