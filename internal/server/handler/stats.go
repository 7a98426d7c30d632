package handler

import (
	"context"
	"time"

	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
	"github.com/palemoky/word-impostor/internal/server/storage"
	"github.com/palemoky/word-impostor/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// NormalizeLeaderboardLimit 默认 10，最多 100
func NormalizeLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	return min(limit, maxLeaderboardLimit)
}

// ToLeaderboardEntries 转换为协议格式
func ToLeaderboardEntries(entries []storage.LeaderboardEntry) []protocol.LeaderboardEntry {
	out := make([]protocol.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.LeaderboardEntry{Rank: e.Rank, Name: e.Name, Points: e.Points}
	}
	return out
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		ackError(client, msg, protocol.ErrCodeInvalidMsg)
		return
	}

	if h.leaderboard == nil {
		ack(client, msg, protocol.AckPayload{Leaderboard: []protocol.LeaderboardEntry{}})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.leaderboard.GetLeaderboard(ctx, NormalizeLeaderboardLimit(payload.Limit))
	if err != nil {
		logger.LogError("获取排行榜失败: %v", err)
		ackError(client, msg, protocol.ErrCodeUnknown)
		return
	}
	ack(client, msg, protocol.AckPayload{Leaderboard: ToLeaderboardEntries(entries)})
}
