package handler

import (
	"github.com/palemoky/word-impostor/internal/apperrors"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
	"github.com/palemoky/word-impostor/internal/types"
)

// handleStartGame 房主开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) {
	r, err := h.currentRoom(client.GetID())
	if err == nil {
		err = r.StartGame(client.GetID())
	}
	h.reply(client, msg, err)
}

// handleSubmitVote 投票
func (h *Handler) handleSubmitVote(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.SubmitVotePayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrCodeInvalidMsg)
		return
	}

	r, err := h.currentRoom(client.GetID())
	if err == nil {
		err = r.SubmitVote(client.GetID(), payload.TargetID)
	}
	h.reply(client, msg, err)
}

// handleEndVoting 房主提前结束投票，应答中附带结果
func (h *Handler) handleEndVoting(client types.ClientInterface, msg *protocol.Message) {
	r, err := h.currentRoom(client.GetID())
	if err != nil {
		h.reply(client, msg, err)
		return
	}

	results, err := r.EndVoting(client.GetID())
	if err != nil {
		h.reply(client, msg, err)
		return
	}
	ack(client, msg, protocol.AckPayload{Results: results})
}

// handleNextRound 房主开始下一轮
func (h *Handler) handleNextRound(client types.ClientInterface, msg *protocol.Message) {
	r, err := h.currentRoom(client.GetID())
	if err == nil {
		err = r.NextRound(client.GetID())
	}
	h.reply(client, msg, err)
}

func (h *Handler) reply(client types.ClientInterface, msg *protocol.Message, err error) {
	if err != nil {
		ackError(client, msg, apperrors.CodeOf(err, protocol.ErrCodeUnknown))
		return
	}
	ackOK(client, msg)
}
