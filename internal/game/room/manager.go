package room

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/palemoky/word-impostor/internal/apperrors"
	"github.com/palemoky/word-impostor/internal/game/round"
	"github.com/palemoky/word-impostor/internal/game/word"
	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/server/storage"
	"github.com/palemoky/word-impostor/internal/types"
)

// 默认规则
const (
	DefaultMinPlayers    = 3
	DefaultCodeLength    = 6
	DefaultMaxNameLength = 24

	storeTimeout = 3 * time.Second
)

// Options 房间管理器参数，零值使用默认规则
type Options struct {
	MinPlayers    int
	CodeLength    int
	MaxNameLength int
	// Picker 选卧底用的随机源，测试时可以固定
	Picker round.Picker
	// CodeSource 生成房间号用的随机源
	CodeSource round.Picker
	Observer   types.RoundObserver
}

// RoomManager 房间管理器
type RoomManager struct {
	publisher   types.Publisher
	catalog     word.Catalog
	redisStore  *storage.RedisStore
	leaderboard *storage.Leaderboard
	observer    types.RoundObserver

	minPlayers    int
	codeLength    int
	maxNameLength int
	picker        round.Picker
	codeSource    round.Picker

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRoomManager 创建房间管理器，rs 和 lb 可以为 nil
func NewRoomManager(pub types.Publisher, catalog word.Catalog, rs *storage.RedisStore, lb *storage.Leaderboard, opts Options) *RoomManager {
	rm := &RoomManager{
		publisher:     pub,
		catalog:       catalog,
		redisStore:    rs,
		leaderboard:   lb,
		observer:      opts.Observer,
		minPlayers:    opts.MinPlayers,
		codeLength:    opts.CodeLength,
		maxNameLength: opts.MaxNameLength,
		picker:        opts.Picker,
		codeSource:    opts.CodeSource,
		rooms:         make(map[string]*Room),
	}
	if rm.minPlayers <= 0 {
		rm.minPlayers = DefaultMinPlayers
	}
	if rm.codeLength <= 0 {
		rm.codeLength = DefaultCodeLength
	}
	if rm.maxNameLength <= 0 {
		rm.maxNameLength = DefaultMaxNameLength
	}
	if rm.picker == nil {
		rm.picker = round.DefaultPicker
	}
	if rm.codeSource == nil {
		rm.codeSource = rand.IntN
	}
	if rm.catalog == nil {
		rm.catalog = word.Builtin()
	}
	if rm.observer == nil {
		rm.observer = nopObserver{}
	}
	return rm
}

// SetPublisher 设置通知出口，必须在处理任何请求之前调用
func (rm *RoomManager) SetPublisher(pub types.Publisher) {
	rm.publisher = pub
}

// NormalizeCode 房间号不区分大小写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizeName 去掉首尾空白，空名字使用默认名，超长截断
func (rm *RoomManager) normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	return truncateName(name, rm.maxNameLength)
}

// truncateName 截断到 limit 个字符，至少保留一个字符
func truncateName(name string, limit int) string {
	limit = max(limit, 1)
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:limit]))
}

// CreateRoom 创建房间，创建者成为房主
func (rm *RoomManager) CreateRoom(ownerID, ownerName string) (*Room, error) {
	rm.mu.Lock()

	code, ok := rm.generateRoomCode()
	if !ok {
		rm.mu.Unlock()
		logger.LogError("❌ 无法生成可用的房间号，当前房间数 %d", len(rm.rooms))
		return nil, apperrors.ErrFailedCreate
	}

	room := newRoom(rm, code)
	player := room.addPlayerLocked(ownerID, rm.normalizeName(ownerName))
	rm.rooms[code] = room
	rm.mu.Unlock()

	rm.observer.RoomOpened()
	room.mu.Lock()
	rm.mirror(room)
	room.mu.Unlock()

	logger.Room(code).Info().Str("player", player.Name).Msg("🏠 房间已创建")
	return room, nil
}

// JoinRoom 加入房间，允许在游戏进行中加入（本轮没有身份）
func (rm *RoomManager) JoinRoom(code, playerID, name string) (*Room, error) {
	room := rm.GetRoom(code)
	if room == nil {
		return nil, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	// 与最后一名玩家离开竞争时，房间可能已被关闭
	if room.closed {
		return nil, apperrors.ErrRoomNotFound
	}

	if _, exists := room.players[playerID]; !exists {
		player := room.addPlayerLocked(playerID, rm.normalizeName(name))
		logger.Room(room.Code).Info().Str("player", player.Name).Int("players", len(room.players)).Msg("👤 玩家加入房间")
	}

	room.publishStateLocked()
	return room, nil
}

// GetRoom 获取房间，code 不区分大小写
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[NormalizeCode(code)]
}

// deleteRoom 删除空房间，调用前房间必须已标记 closed
func (rm *RoomManager) deleteRoom(room *Room) {
	rm.mu.Lock()
	if rm.rooms[room.Code] == room {
		delete(rm.rooms, room.Code)
	}
	rm.mu.Unlock()

	rm.observer.RoomClosed()
	if rm.redisStore.Enabled() {
		go rm.deleteMirror(room)
	}
	logger.Room(room.Code).Info().Msg("🏠 房间已解散")
}

// RoomCount 房间数量
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// GetActiveRoundsCount 获取正在投票中的房间数量
func (rm *RoomManager) GetActiveRoundsCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		room.mu.RLock()
		if room.phase == PhaseActive {
			count++
		}
		room.mu.RUnlock()
	}
	return count
}

// generateRoomCode 生成未被占用的房间号，调用方需持有写锁
func (rm *RoomManager) generateRoomCode() (string, bool) {
	code := make([]byte, rm.codeLength)
	for range maxCodeAttempts {
		for i := range code {
			code[i] = roomCodeChars[rm.codeSource(len(roomCodeChars))]
		}
		if _, exists := rm.rooms[string(code)]; !exists {
			return string(code), true
		}
	}
	return "", false
}

// mirror 将房间公开状态异步写入 Redis，调用方需持有房间写锁
func (rm *RoomManager) mirror(room *Room) {
	if !rm.redisStore.Enabled() {
		return
	}
	room.mirrorSeq++
	seq := room.mirrorSeq
	data := room.toRoomDataLocked()
	go rm.saveMirror(room, seq, data)
}

// saveMirror 写入第 seq 版镜像；已写入更新版本或房间已解散时跳过
func (rm *RoomManager) saveMirror(room *Room, seq uint64, data *storage.RoomData) {
	room.mirrorMu.Lock()
	defer room.mirrorMu.Unlock()

	if room.mirrorDeleted || seq <= room.mirrorWritten {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := rm.redisStore.SaveRoom(ctx, data.Code, data); err != nil {
		logger.LogWarn("⚠️ 保存房间镜像失败 %s: %v", data.Code, err)
		return
	}
	room.mirrorWritten = seq
}

// deleteMirror 删除镜像，之后到达的写入全部丢弃
func (rm *RoomManager) deleteMirror(room *Room) {
	room.mirrorMu.Lock()
	defer room.mirrorMu.Unlock()

	room.mirrorDeleted = true
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := rm.redisStore.DeleteRoom(ctx, room.Code); err != nil {
		logger.LogWarn("⚠️ 删除房间镜像失败 %s: %v", room.Code, err)
	}
}

// recordRound 异步记录回合统计
func (rm *RoomManager) recordRound(code string, rec storage.RoundRecord) {
	if !rm.leaderboard.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := rm.leaderboard.RecordRound(ctx, rec); err != nil {
			logger.LogWarn("⚠️ 记录房间 %s 回合统计失败: %v", code, err)
		}
	}()
}

type nopObserver struct{}

func (nopObserver) RoomOpened()         {}
func (nopObserver) RoomClosed()         {}
func (nopObserver) RoundStarted()       {}
func (nopObserver) RoundConcluded(bool) {}
