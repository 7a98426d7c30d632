package client

import (
	"context"
	"time"

	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

// --- 便捷方法 ---

// CreateRoom 创建房间
func (c *Client) CreateRoom(ctx context.Context, name string) (*protocol.RoomSnapshot, error) {
	ack, err := c.Request(ctx, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: name})
	return ack.Room, err
}

// JoinRoom 加入房间，房间号不区分大小写
func (c *Client) JoinRoom(ctx context.Context, code, name string) (*protocol.RoomSnapshot, error) {
	ack, err := c.Request(ctx, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: code, Name: name})
	return ack.Room, err
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom(ctx context.Context) error {
	_, err := c.Request(ctx, protocol.MsgLeaveRoom, nil)
	return err
}

// MakeOwner 转让房主
func (c *Client) MakeOwner(ctx context.Context, targetID string) error {
	_, err := c.Request(ctx, protocol.MsgMakeOwner, protocol.MakeOwnerPayload{TargetID: targetID})
	return err
}

// StartGame 开始游戏
func (c *Client) StartGame(ctx context.Context) error {
	_, err := c.Request(ctx, protocol.MsgStartGame, nil)
	return err
}

// SubmitVote 投票
func (c *Client) SubmitVote(ctx context.Context, targetID string) error {
	_, err := c.Request(ctx, protocol.MsgSubmitVote, protocol.SubmitVotePayload{TargetID: targetID})
	return err
}

// EndVoting 提前结束投票
func (c *Client) EndVoting(ctx context.Context) (*protocol.ResultsPayload, error) {
	ack, err := c.Request(ctx, protocol.MsgEndVoting, nil)
	return ack.Results, err
}

// NextRound 下一轮
func (c *Client) NextRound(ctx context.Context) error {
	_, err := c.Request(ctx, protocol.MsgNextRound, nil)
	return err
}

// GetLeaderboard 获取排行榜
func (c *Client) GetLeaderboard(ctx context.Context, limit int) ([]protocol.LeaderboardEntry, error) {
	ack, err := c.Request(ctx, protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: limit})
	return ack.Leaderboard, err
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
