package handler

import (
	"github.com/palemoky/word-impostor/internal/apperrors"
	"github.com/palemoky/word-impostor/internal/game/room"
	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
	"github.com/palemoky/word-impostor/internal/types"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		ackError(client, msg, protocol.ErrCodeServerMaintenance)
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrCodeInvalidMsg)
		return
	}

	// 如果已在房间中，先离开
	h.leaveCurrentRoom(client.GetID())

	r, err := h.roomManager.CreateRoom(client.GetID(), payload.Name)
	if err != nil {
		logger.LogWarn("创建房间失败 (连接: %s): %v", client.GetID(), err)
		ackError(client, msg, apperrors.CodeOf(err, protocol.ErrCodeFailedCreate))
		return
	}

	h.membership.Bind(client.GetID(), r.Code)
	r.PublishState()

	snapshot := r.Snapshot()
	ack(client, msg, protocol.AckPayload{Room: &snapshot})
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		ackError(client, msg, protocol.ErrCodeServerMaintenance)
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrCodeInvalidMsg)
		return
	}

	id := client.GetID()
	code := room.NormalizeCode(payload.RoomCode)
	target := h.roomManager.GetRoom(code)
	if target == nil {
		ackError(client, msg, protocol.ErrCodeRoomNotFound)
		return
	}

	// 已在该房间中，直接返回当前状态
	if h.membership.RoomOf(id) == code && target.HasPlayer(id) {
		snapshot := target.Snapshot()
		ack(client, msg, protocol.AckPayload{Room: &snapshot})
		return
	}

	h.leaveCurrentRoom(id)

	// 先绑定，保证加入后的第一次广播能送达本人
	h.membership.Bind(id, code)
	r, err := h.roomManager.JoinRoom(code, id, payload.Name)
	if err != nil {
		h.membership.Unbind(id)
		ackError(client, msg, apperrors.CodeOf(err, protocol.ErrCodeUnknown))
		return
	}

	snapshot := r.Snapshot()
	ack(client, msg, protocol.AckPayload{Room: &snapshot})
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface, msg *protocol.Message) {
	if !h.leaveCurrentRoom(client.GetID()) {
		ackError(client, msg, protocol.ErrCodeNotInRoom)
		return
	}
	ackOK(client, msg)
}

// handleMakeOwner 处理转让房主
func (h *Handler) handleMakeOwner(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.MakeOwnerPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrCodeInvalidMsg)
		return
	}

	r, err := h.currentRoom(client.GetID())
	if err != nil {
		ackError(client, msg, apperrors.CodeOf(err, protocol.ErrCodeUnknown))
		return
	}

	if err := r.MakeOwner(client.GetID(), payload.TargetID); err != nil {
		ackError(client, msg, apperrors.CodeOf(err, protocol.ErrCodeUnknown))
		return
	}
	ackOK(client, msg)
}

// leaveCurrentRoom 解除绑定并离开房间，返回之前是否在房间中
func (h *Handler) leaveCurrentRoom(connID string) bool {
	code := h.membership.Unbind(connID)
	if code == "" {
		return false
	}
	h.roomManager.LeaveRoom(code, connID)
	return true
}

// currentRoom 连接当前所在的房间
func (h *Handler) currentRoom(connID string) (*room.Room, error) {
	code := h.membership.RoomOf(connID)
	if code == "" {
		return nil, apperrors.ErrRoomNotFound
	}
	r := h.roomManager.GetRoom(code)
	if r == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}
