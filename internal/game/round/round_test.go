package round

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssign(t *testing.T) {
	t.Parallel()

	players := []string{"p1", "p2", "p3"}
	a := Assign("pizza", players, func(n int) int {
		assert.Equal(t, 3, n)
		return 1
	})
	assert.Equal(t, "pizza", a.Word)
	assert.Equal(t, "p2", a.ImpostorID)
}

func TestAssign_DefaultPickerStaysInRange(t *testing.T) {
	t.Parallel()

	players := []string{"p1", "p2", "p3", "p4"}
	seen := make(map[string]bool)
	for range 500 {
		a := Assign("w", players, nil)
		assert.Contains(t, players, a.ImpostorID)
		seen[a.ImpostorID] = true
	}
	assert.Len(t, seen, len(players))
}

func TestTally(t *testing.T) {
	t.Parallel()

	counts := Tally([]Vote{
		{VoterID: "p1", TargetID: "p2"},
		{VoterID: "p3", TargetID: "p2"},
		{VoterID: "p2", TargetID: "p1"},
	})
	assert.Equal(t, map[string]int{"p2": 2, "p1": 1}, counts)
	assert.Empty(t, Tally(nil))
}

func TestImpostorEarnsBonus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		votes, players int
		want           bool
	}{
		{votes: 2, players: 5, want: true}, // 2 < 2.5
		{votes: 2, players: 3, want: false},
		{votes: 1, players: 3, want: true},
		{votes: 2, players: 4, want: false}, // 严格小于
		{votes: 0, players: 3, want: true},
		{votes: 3, players: 6, want: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.votes, tt.players), func(t *testing.T) {
			assert.Equal(t, tt.want, ImpostorEarnsBonus(tt.votes, tt.players))
		})
	}
}

// 卧底 P2，P1、P3 投 P2，P2 投 P1：卧底无奖励，P1、P3 各得 1 分
func TestConclude_ImpostorCaught(t *testing.T) {
	t.Parallel()

	votes := []Vote{
		{VoterID: "p1", TargetID: "p2"},
		{VoterID: "p2", TargetID: "p1"},
		{VoterID: "p3", TargetID: "p2"},
	}
	out := Conclude("p2", "pizza", votes, 3)

	assert.Equal(t, 2, out.VotesForImpostor)
	assert.Equal(t, map[string]int{"p1": 1, "p3": 1}, out.Awards)
	assert.Equal(t, votes, out.Votes)
	assert.Equal(t, "pizza", out.Word)
}

// 只有 P1 投了 P2 就结束投票：卧底 +2，P1 +1
func TestConclude_EarlyEnd(t *testing.T) {
	t.Parallel()

	out := Conclude("p2", "pizza", []Vote{{VoterID: "p1", TargetID: "p2"}}, 3)

	assert.Equal(t, 1, out.VotesForImpostor)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 2}, out.Awards)
}

func TestConclude_SelfVoteByImpostor(t *testing.T) {
	t.Parallel()

	// 卧底投自己也算一票，同样得 1 分
	out := Conclude("p1", "ost", []Vote{{VoterID: "p1", TargetID: "p1"}}, 4)
	assert.Equal(t, 1, out.VotesForImpostor)
	assert.Equal(t, map[string]int{"p1": 3}, out.Awards)
}

func TestConclude_NoVotes(t *testing.T) {
	t.Parallel()

	out := Conclude("p3", "ost", nil, 3)
	assert.Equal(t, 0, out.VotesForImpostor)
	assert.Equal(t, map[string]int{"p3": 2}, out.Awards)
}

// 任意投票组合下，总分 = 投中人数 + (奖励 ? 2 : 0)，且不超过玩家数 + 2
func TestConclude_ScoreSumProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for range 1000 {
		n := 3 + rng.IntN(6)
		players := make([]string, n)
		for i := range players {
			players[i] = fmt.Sprintf("p%d", i)
		}
		impostor := players[rng.IntN(n)]

		var votes []Vote
		catches := 0
		for _, p := range players {
			if rng.IntN(3) == 0 {
				continue
			}
			target := players[rng.IntN(n)]
			votes = append(votes, Vote{VoterID: p, TargetID: target})
			if target == impostor {
				catches++
			}
		}

		out := Conclude(impostor, "w", votes, n)
		want := catches
		if float64(catches) < float64(n)/2 {
			want += PointsForImpostor
		}
		assert.Equal(t, want, out.Total())
		assert.LessOrEqual(t, out.Total(), n+2)
	}
}
