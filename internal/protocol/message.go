package protocol

import "encoding/json"

// Message 基础消息结构
//
// ID 由客户端生成，服务端在 ack 中原样带回，用于请求/应答配对。
type Message struct {
	Type    MessageType     `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgMakeOwner  MessageType = "make_owner"  // 转让房主

	// 游戏操作
	MsgStartGame  MessageType = "start_game"  // 开始游戏
	MsgSubmitVote MessageType = "submit_vote" // 投票
	MsgEndVoting  MessageType = "end_voting"  // 房主提前结束投票
	MsgNextRound  MessageType = "next_round"  // 下一轮

	// 查询
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected  MessageType = "connected"   // 连接成功
	MsgPong       MessageType = "pong"        // 心跳 pong
	MsgAck        MessageType = "ack"         // 请求应答
	MsgRoomUpdate MessageType = "room_update" // 房间公开状态
	MsgRole       MessageType = "role"        // 身份（仅发给本人）
	MsgResults    MessageType = "results"     // 本轮结果
	MsgError      MessageType = "error"       // 错误消息
)
