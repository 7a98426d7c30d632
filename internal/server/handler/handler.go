package handler

import (
	"context"
	"time"

	"github.com/palemoky/word-impostor/internal/game/room"
	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
	"github.com/palemoky/word-impostor/internal/server/session"
	"github.com/palemoky/word-impostor/internal/server/storage"
	"github.com/palemoky/word-impostor/internal/types"
)

// LeaderboardReader 排行榜查询
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error)
}

// MessageObserver 消息处理耗时统计
type MessageObserver interface {
	ObserveMessage(msgType string, d time.Duration)
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.RoomManager
	Membership  *session.Membership
	Leaderboard LeaderboardReader
	Metrics     MessageObserver // 可选
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	roomManager *room.RoomManager
	membership  *session.Membership
	leaderboard LeaderboardReader
	metrics     MessageObserver
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
		membership:  deps.Membership,
		leaderboard: deps.Leaderboard,
		metrics:     deps.Metrics,
	}
	if h.membership == nil {
		h.membership = session.NewMembership()
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  h.handleLeaveRoom,
		protocol.MsgMakeOwner:  h.handleMakeOwner,

		// 游戏操作
		protocol.MsgStartGame:  h.handleStartGame,
		protocol.MsgSubmitVote: h.handleSubmitVote,
		protocol.MsgEndVoting:  h.handleEndVoting,
		protocol.MsgNextRound:  h.handleNextRound,

		// 信息查询
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	handler, ok := h.handlers[msg.Type]
	if !ok {
		logger.LogWarn("⚠️  未知消息类型: '%s' (连接: %s, Payload长度=%d bytes)", msg.Type, client.GetID(), len(msg.Payload))
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	start := time.Now()
	handler(client, msg)
	if h.metrics != nil {
		h.metrics.ObserveMessage(string(msg.Type), time.Since(start))
	}
}

// Membership 连接与房间的归属索引
func (h *Handler) Membership() *session.Membership {
	return h.membership
}

// --- 应答 ---

func ack(client types.ClientInterface, msg *protocol.Message, payload protocol.AckPayload) {
	payload.OK = true
	client.SendMessage(codec.NewAck(msg.ID, payload))
}

func ackOK(client types.ClientInterface, msg *protocol.Message) {
	ack(client, msg, protocol.AckPayload{})
}

func ackError(client types.ClientInterface, msg *protocol.Message, code string) {
	client.SendMessage(codec.NewErrorAck(msg.ID, code))
}
