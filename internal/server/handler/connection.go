package handler

import (
	"time"

	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
	"github.com/palemoky/word-impostor/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	pong := codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	})
	pong.ID = msg.ID
	client.SendMessage(pong)
}

// OnDisconnect 连接断开时离开所在房间
func (h *Handler) OnDisconnect(client types.ClientInterface) {
	if code := h.membership.RoomOf(client.GetID()); code != "" {
		logger.Room(code).Info().Str("player", client.GetID()).Msg("🔌 玩家断线，离开房间")
	}
	h.leaveCurrentRoom(client.GetID())
}
