// Package round 实现单轮游戏的纯逻辑：身份分配、计票与计分
package round

import "math/rand/v2"

// 计分规则
const (
	PointsForCatch    = 1 // 投中卧底的玩家
	PointsForImpostor = 2 // 卧底未被多数识破
)

// Vote 一条投票记录
type Vote struct {
	VoterID  string
	TargetID string
}

// Outcome 一轮结束后的结果
type Outcome struct {
	ImpostorID       string
	Word             string
	Votes            []Vote
	VotesForImpostor int
	// Awards 本轮每位玩家获得的分数，未得分的玩家不出现
	Awards map[string]int
}

// Assignment 一轮开始时的出题结果
type Assignment struct {
	Word       string
	ImpostorID string
}

// Picker 随机源，返回 [0, n) 的整数
type Picker func(n int) int

// DefaultPicker 使用全局随机源
var DefaultPicker Picker = rand.IntN

// Assign 抽词并从玩家中均匀选出卧底，允许与上一轮重复
func Assign(word string, playerIDs []string, pick Picker) Assignment {
	if pick == nil {
		pick = DefaultPicker
	}
	return Assignment{
		Word:       word,
		ImpostorID: playerIDs[pick(len(playerIDs))],
	}
}

// Tally 按被投票者计票
func Tally(votes []Vote) map[string]int {
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.TargetID]++
	}
	return counts
}

// ImpostorEarnsBonus 卧底得票严格少于玩家数的一半时获得奖励
func ImpostorEarnsBonus(votesForImpostor, playerCount int) bool {
	return float64(votesForImpostor) < float64(playerCount)/2
}

// Conclude 计票并计分，只应在每轮结束时调用一次
func Conclude(impostorID, word string, votes []Vote, playerCount int) Outcome {
	counts := Tally(votes)
	out := Outcome{
		ImpostorID:       impostorID,
		Word:             word,
		Votes:            votes,
		VotesForImpostor: counts[impostorID],
		Awards:           make(map[string]int),
	}

	for _, v := range votes {
		if v.TargetID == impostorID {
			out.Awards[v.VoterID] += PointsForCatch
		}
	}
	if ImpostorEarnsBonus(out.VotesForImpostor, playerCount) {
		out.Awards[impostorID] += PointsForImpostor
	}
	return out
}

// Total 本轮发放的总分
func (o Outcome) Total() int {
	total := 0
	for _, p := range o.Awards {
		total += p
	}
	return total
}
