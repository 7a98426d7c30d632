package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）
//
// 只镜像公开状态，本轮词语和卧底身份不落盘。
type RoomData struct {
	Code        string       `json:"code"`
	Phase       string       `json:"phase"`
	OwnerID     string       `json:"owner_id"`
	Round       int          `json:"round"`
	Players     []PlayerData `json:"players"`
	VotesCount  int          `json:"votes_count"`
	PlayerOrder []string     `json:"player_order"`
	CreatedAt   int64        `json:"created_at"`
	UpdatedAt   int64        `json:"updated_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RedisStore Redis 房间镜像，client 为 nil 时所有操作都是空操作
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Enabled 是否连接了 Redis
func (rs *RedisStore) Enabled() bool {
	return rs != nil && rs.client != nil
}

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomCode string, data *RoomData) error {
	if !rs.Enabled() || data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + roomCode
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间镜像，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	key := roomKeyPrefix + code
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	if !rs.Enabled() {
		return nil
	}
	return rs.client.Del(ctx, roomKeyPrefix+code).Err()
}

// GetAllRoomCodes 获取所有房间号
func (rs *RedisStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	var codes []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// ClearRooms 清空房间镜像，进程启动时调用，上一次运行留下的房间不会恢复
func (rs *RedisStore) ClearRooms(ctx context.Context) (int, error) {
	codes, err := rs.GetAllRoomCodes(ctx)
	if err != nil || len(codes) == 0 {
		return 0, err
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = roomKeyPrefix + code
	}
	if err := rs.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}
