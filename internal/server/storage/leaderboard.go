package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	leaderboardKey   = "leaderboard:points"
	dailyLeaderboard = "leaderboard:daily:"
	roundStatsKey    = "stats:rounds"

	dailyExpiration = 48 * time.Hour

	// stats:rounds 中的字段
	fieldRounds         = "rounds"
	fieldCatches        = "catches"
	fieldImpostorBonus  = "impostor_bonus"
	fieldDisconnections = "impostor_disconnects"
)

// RoundRecord 一轮结束后要记录的数据，玩家以显示名标识
type RoundRecord struct {
	// Awards 显示名 → 本轮得分
	Awards map[string]int
	// Catches 投中卧底的人数
	Catches       int
	ImpostorBonus bool
	Disconnected  bool
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// RoundStats 全局回合统计
type RoundStats struct {
	Rounds              int64 `json:"rounds"`
	Catches             int64 `json:"catches"`
	ImpostorBonuses     int64 `json:"impostor_bonus"`
	ImpostorDisconnects int64 `json:"impostor_disconnects"`
}

// Leaderboard 积分排行榜，client 为 nil 时所有操作都是空操作
type Leaderboard struct {
	redis *redis.Client
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client}
}

// Enabled 是否连接了 Redis
func (lb *Leaderboard) Enabled() bool {
	return lb != nil && lb.redis != nil
}

func dailyKey(now time.Time) string {
	return dailyLeaderboard + now.Format("2006-01-02")
}

// RecordRound 记录一轮的结果
func (lb *Leaderboard) RecordRound(ctx context.Context, rec RoundRecord) error {
	if !lb.Enabled() {
		return nil
	}

	today := dailyKey(time.Now())
	_, err := lb.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, roundStatsKey, fieldRounds, 1)
		if rec.Disconnected {
			pipe.HIncrBy(ctx, roundStatsKey, fieldDisconnections, 1)
			return nil
		}
		if rec.Catches > 0 {
			pipe.HIncrBy(ctx, roundStatsKey, fieldCatches, int64(rec.Catches))
		}
		if rec.ImpostorBonus {
			pipe.HIncrBy(ctx, roundStatsKey, fieldImpostorBonus, 1)
		}

		for name, points := range rec.Awards {
			if points <= 0 {
				continue
			}
			pipe.ZIncrBy(ctx, leaderboardKey, float64(points), name)
			pipe.ZIncrBy(ctx, today, float64(points), name)
		}
		pipe.Expire(ctx, today, dailyExpiration)
		return nil
	})
	if err != nil {
		return fmt.Errorf("记录回合结果失败: %w", err)
	}
	return nil
}

// GetLeaderboard 获取总积分排行榜（从高到低）
func (lb *Leaderboard) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return lb.getRange(ctx, leaderboardKey, limit)
}

// GetDailyLeaderboard 获取今日排行榜
func (lb *Leaderboard) GetDailyLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return lb.getRange(ctx, dailyKey(time.Now()), limit)
}

func (lb *Leaderboard) getRange(ctx context.Context, key string, limit int) ([]LeaderboardEntry, error) {
	if !lb.Enabled() || limit <= 0 {
		return []LeaderboardEntry{}, nil
	}

	results, err := lb.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			Name:   name,
			Points: int(result.Score),
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜时返回 -1
func (lb *Leaderboard) GetPlayerRank(ctx context.Context, name string) (int64, error) {
	if !lb.Enabled() {
		return -1, nil
	}
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil // 未上榜
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

// GetRoundStats 获取全局回合统计
func (lb *Leaderboard) GetRoundStats(ctx context.Context) (RoundStats, error) {
	var stats RoundStats
	if !lb.Enabled() {
		return stats, nil
	}

	fields, err := lb.redis.HGetAll(ctx, roundStatsKey).Result()
	if err != nil {
		return stats, err
	}

	parse := func(key string) int64 {
		n, _ := strconv.ParseInt(fields[key], 10, 64)
		return n
	}
	stats.Rounds = parse(fieldRounds)
	stats.Catches = parse(fieldCatches)
	stats.ImpostorBonuses = parse(fieldImpostorBonus)
	stats.ImpostorDisconnects = parse(fieldDisconnections)
	return stats, nil
}
