package room

import (
	"time"

	"github.com/palemoky/word-impostor/internal/server/storage"
)

// toRoomDataLocked 将 Room 转换为可序列化的 RoomData，调用方需持有房间锁
func (r *Room) toRoomDataLocked() *storage.RoomData {
	data := &storage.RoomData{
		Code:        r.Code,
		Phase:       string(r.phase),
		OwnerID:     r.ownerID,
		Round:       r.round,
		Players:     make([]storage.PlayerData, 0, len(r.playerOrder)),
		VotesCount:  len(r.votes),
		PlayerOrder: append([]string(nil), r.playerOrder...),
		CreatedAt:   r.CreatedAt.Unix(),
		UpdatedAt:   time.Now().Unix(),
	}

	for _, id := range r.playerOrder {
		p := r.players[id]
		data.Players = append(data.Players, storage.PlayerData{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
		})
	}

	return data
}
