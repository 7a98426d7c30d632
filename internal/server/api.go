package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/server/handler"
	"github.com/palemoky/word-impostor/internal/server/storage"
)

const apiTimeout = 3 * time.Second

// StatsResponse /api/stats 响应
type StatsResponse struct {
	Online       int                `json:"online"`
	Rooms        int                `json:"rooms"`
	ActiveRounds int                `json:"active_rounds"`
	Maintenance  bool               `json:"maintenance"`
	Rounds       storage.RoundStats `json:"rounds"`
}

// PlayerRankResponse /api/leaderboard/{name} 响应
type PlayerRankResponse struct {
	Name string `json:"name"`
	Rank int64  `json:"rank"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.LogError("响应编码失败: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: protocol.ErrorMessages[code]})
}

// handleGetRoom 房间公开状态，房间号不区分大小写
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room := s.roomManager.GetRoom(mux.Vars(r)["code"])
	if room == nil {
		writeError(w, http.StatusNotFound, protocol.ErrCodeRoomNotFound)
		return
	}
	writeJSON(w, http.StatusOK, room.Snapshot())
}

// handleGetLeaderboard ?limit=N&period=daily
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
			return
		}
		limit = n
	}
	limit = handler.NormalizeLeaderboardLimit(limit)

	ctx, cancel := context.WithTimeout(r.Context(), apiTimeout)
	defer cancel()

	var (
		entries []storage.LeaderboardEntry
		err     error
	)
	if r.URL.Query().Get("period") == "daily" {
		entries, err = s.leaderboard.GetDailyLeaderboard(ctx, limit)
	} else {
		entries, err = s.leaderboard.GetLeaderboard(ctx, limit)
	}
	if err != nil {
		logger.LogError("获取排行榜失败: %v", err)
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}
	writeJSON(w, http.StatusOK, handler.ToLeaderboardEntries(entries))
}

// handleGetPlayerRank 按显示名查询排名，未上榜返回 404
func (s *Server) handleGetPlayerRank(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ctx, cancel := context.WithTimeout(r.Context(), apiTimeout)
	defer cancel()

	rank, err := s.leaderboard.GetPlayerRank(ctx, name)
	if err != nil {
		logger.LogError("获取排名失败: %v", err)
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}
	if rank < 0 {
		writeError(w, http.StatusNotFound, protocol.ErrCodeInvalidPlayer)
		return
	}
	writeJSON(w, http.StatusOK, PlayerRankResponse{Name: name, Rank: rank})
}

// handleGetStats 服务器与回合统计
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), apiTimeout)
	defer cancel()

	rounds, err := s.leaderboard.GetRoundStats(ctx)
	if err != nil {
		logger.LogError("获取回合统计失败: %v", err)
		writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Online:       s.GetOnlineCount(),
		Rooms:        s.roomManager.RoomCount(),
		ActiveRounds: s.roomManager.GetActiveRoundsCount(),
		Maintenance:  s.IsMaintenanceMode(),
		Rounds:       rounds,
	})
}
