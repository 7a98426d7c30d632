package room

import (
	"github.com/palemoky/word-impostor/internal/game/round"
	"github.com/palemoky/word-impostor/internal/logger"
)

// LeaveRoom 玩家离开或断线
//
// 房主离开时由最早加入的玩家接任；卧底在投票中离开时本轮直接进入 results 且不计分；
// 最后一名玩家离开后房间被删除。
func (rm *RoomManager) LeaveRoom(code, playerID string) {
	room := rm.GetRoom(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	player, exists := room.players[playerID]
	if room.closed || !exists {
		room.mu.Unlock()
		return
	}

	// 卧底在投票中离开时，结果保留已经投出的票
	var castVotes []round.Vote
	impostorLeft := room.impostorID == playerID && room.phase == PhaseActive
	if impostorLeft {
		castVotes = room.voteRecordsLocked()
	}

	room.removePlayerLocked(playerID)
	log := logger.Room(room.Code)
	log.Info().Str("player", player.Name).Int("players", len(room.players)).Msg("👋 玩家离开房间")

	if len(room.players) == 0 {
		room.closed = true
		room.mu.Unlock()
		rm.deleteRoom(room)
		return
	}
	defer room.mu.Unlock()

	if room.ownerID == playerID {
		room.ownerID = room.playerOrder[0]
		log.Info().Str("owner", room.ownerID).Msg("👑 房主离开，房主已交接")
	}

	switch {
	case impostorLeft:
		room.forceResultsLocked(playerID, castVotes)
		room.impostorID = ""
	case room.impostorID == playerID:
		room.impostorID = ""
	case room.phase == PhaseActive && len(room.votes) == len(room.players):
		// 剩下的人都已投票
		room.concludeLocked()
	}

	room.publishStateLocked()
}
