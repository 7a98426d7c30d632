package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/word-impostor/internal/apperrors"
	"github.com/palemoky/word-impostor/internal/protocol"
)

// Scenario D: 房主在投票中断线，房主交给最早加入的玩家
func TestLeaveRoom_OwnerHandOff(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 2)
	room := setupRoom(t, rm)
	require.NoError(t, room.StartGame("p1"))

	rm.LeaveRoom(room.Code, "p1")

	snap, ok := pub.LastRoomUpdate()
	require.True(t, ok)
	assert.Equal(t, "p2", snap.OwnerID)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, "active", snap.Phase)
	assert.Equal(t, "p2", room.OwnerID())
}

// Scenario E: 卧底在投票中断线，直接进入 results 且不计分
func TestLeaveRoom_ImpostorDisconnects(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 1)
	room := setupRoom(t, rm)
	require.NoError(t, room.StartGame("p1"))
	require.NoError(t, room.SubmitVote("p1", "p2"))
	require.NoError(t, room.SubmitVote("p2", "p3"))

	rm.LeaveRoom(room.Code, "p2")

	results := pub.Results()
	require.Len(t, results, 1)
	r := results[0]
	assert.True(t, r.Disconnected)
	assert.Equal(t, "p2", r.ImpostorID)
	assert.Equal(t, "pizza", r.Word)
	assert.Nil(t, r.VotesForImpostor)
	// 结果保留离开前已经投出的票，包括卧底自己的票
	assert.Equal(t, []protocol.VoteRecord{
		{VoterID: "p1", TargetID: "p2"},
		{VoterID: "p2", TargetID: "p3"},
	}, r.Votes)

	snap := room.Snapshot()
	assert.Equal(t, "results", snap.Phase)
	assert.Len(t, snap.Players, 2)
	assert.Zero(t, snap.VotesCount)
	assert.Equal(t, map[string]int{"p1": 0, "p3": 0}, scores(snap))

	// 剩两人也可以继续下一轮
	pub.Reset()
	require.NoError(t, room.NextRound("p1"))
	assert.Equal(t, 2, room.Snapshot().Round)
	assert.Len(t, pub.Roles(), 2)
}

func TestLeaveRoom_ImpostorDisconnectsBeforeAnyVote(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 1)
	room := setupRoom(t, rm)
	require.NoError(t, room.StartGame("p1"))

	rm.LeaveRoom(room.Code, "p2")

	results := pub.Results()
	require.Len(t, results, 1)
	assert.True(t, results[0].Disconnected)
	assert.Empty(t, results[0].Votes)
}

func TestLeaveRoom_ImpostorLeavesInResults(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 1)
	room := setupRoom(t, rm)
	require.NoError(t, room.StartGame("p1"))
	_, err := room.EndVoting("p1")
	require.NoError(t, err)

	rm.LeaveRoom(room.Code, "p2")

	// 本轮已经结算过，不会再次发送结果
	assert.Len(t, pub.Results(), 1)
	assert.Equal(t, PhaseResults, room.Phase())
}

func TestLeaveRoom_RemainingVotesConcludeRound(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 0)
	room, err := rm.CreateRoom("p1", "P1")
	require.NoError(t, err)
	for i := 2; i <= 4; i++ {
		_, err := rm.JoinRoom(room.Code, fmt.Sprintf("p%d", i), "P")
		require.NoError(t, err)
	}
	require.NoError(t, room.StartGame("p1"))

	require.NoError(t, room.SubmitVote("p1", "p2"))
	require.NoError(t, room.SubmitVote("p2", "p1"))
	require.NoError(t, room.SubmitVote("p3", "p1"))

	// p4 没投票就离开，剩下三人都已投票
	rm.LeaveRoom(room.Code, "p4")

	results := pub.Results()
	require.Len(t, results, 1)
	assert.False(t, results[0].Disconnected)
	require.NotNil(t, results[0].VotesForImpostor)
	assert.Equal(t, 2, *results[0].VotesForImpostor)
	assert.Equal(t, PhaseResults, room.Phase())
	// 2 < 1.5 不成立，卧底无奖励
	assert.Equal(t, map[string]int{"p1": 0, "p2": 1, "p3": 1}, scores(room.Snapshot()))
}

func TestLeaveRoom_VotesForLeaverRemoved(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, 0)
	room, err := rm.CreateRoom("p1", "P1")
	require.NoError(t, err)
	for i := 2; i <= 4; i++ {
		_, err := rm.JoinRoom(room.Code, fmt.Sprintf("p%d", i), "P")
		require.NoError(t, err)
	}
	require.NoError(t, room.StartGame("p1"))

	require.NoError(t, room.SubmitVote("p1", "p4"))
	require.NoError(t, room.SubmitVote("p4", "p2"))
	assert.Equal(t, 2, room.Snapshot().VotesCount)

	rm.LeaveRoom(room.Code, "p4")

	snap := room.Snapshot()
	assert.Zero(t, snap.VotesCount)
	assert.Equal(t, "active", snap.Phase)
	assert.LessOrEqual(t, snap.VotesCount, len(snap.Players))
}

// 最后一名玩家离开后房间被删除
func TestLeaveRoom_LastPlayerDeletesRoom(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 0)
	room := setupRoom(t, rm)
	code := room.Code

	rm.LeaveRoom(code, "p1")
	rm.LeaveRoom(code, "p2")
	pub.Reset()
	rm.LeaveRoom(code, "p3")

	assert.Nil(t, rm.GetRoom(code))
	assert.Zero(t, rm.RoomCount())
	// 空房间不再广播
	assert.Empty(t, pub.All())

	_, err := rm.JoinRoom(code, "p4", "P4")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	// 对已关闭房间的引用也无法操作
	assert.ErrorIs(t, room.StartGame("p1"), apperrors.ErrRoomNotFound)
}

func TestLeaveRoom_UnknownPlayerOrRoom(t *testing.T) {
	t.Parallel()

	rm, pub := newTestManager(t, 0)
	room := setupRoom(t, rm)
	pub.Reset()

	rm.LeaveRoom(room.Code, "ghost")
	rm.LeaveRoom("NOPE00", "p1")

	assert.Empty(t, pub.All())
	assert.Equal(t, 3, room.PlayerCount())
}

func TestJoinRoom_ClosedRoomReportsNotFound(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, 0)
	room, err := rm.CreateRoom("p1", "P1")
	require.NoError(t, err)

	// 模拟最后一名玩家离开后、从注册表删除前的窗口
	room.mu.Lock()
	room.closed = true
	room.mu.Unlock()

	_, err = rm.JoinRoom(room.Code, "p2", "P2")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestLeaveAndJoin_Concurrent(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, 0)
	room, err := rm.CreateRoom("owner", "Owner")
	require.NoError(t, err)
	code := room.Code

	var wg sync.WaitGroup
	wg.Go(func() { rm.LeaveRoom(code, "owner") })
	for i := range 10 {
		wg.Go(func() {
			_, _ = rm.JoinRoom(code, fmt.Sprintf("p%d", i), "P")
		})
	}
	wg.Wait()

	// 加入成功的玩家必然在注册表中的房间里
	if r := rm.GetRoom(code); r != nil {
		snap := r.Snapshot()
		assert.NotEmpty(t, snap.Players)
		assert.True(t, r.HasPlayer(snap.OwnerID))
	}
}

func TestGetActiveRoundsCount(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, 0)
	r1 := setupRoom(t, rm)
	_ = setupRoom(t, rm)

	assert.Zero(t, rm.GetActiveRoundsCount())
	require.NoError(t, r1.StartGame("p1"))
	assert.Equal(t, 1, rm.GetActiveRoundsCount())

	_, err := r1.EndVoting("p1")
	require.NoError(t, err)
	assert.Zero(t, rm.GetActiveRoundsCount())
}
