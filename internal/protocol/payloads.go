package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Name string `json:"name"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

// SubmitVotePayload 投票请求
type SubmitVotePayload struct {
	TargetID string `json:"target_id"`
}

// MakeOwnerPayload 转让房主请求
type MakeOwnerPayload struct {
	TargetID string `json:"target_id"`
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"player_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// AckPayload 请求应答，OK 为 false 时 Error 为错误码
type AckPayload struct {
	OK          bool               `json:"ok"`
	Error       string             `json:"error,omitempty"`
	Room        *RoomSnapshot      `json:"room,omitempty"`
	Results     *ResultsPayload    `json:"results,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// RoomSnapshot 房间公开状态，每次状态变化后广播
type RoomSnapshot struct {
	ID         string       `json:"id"`
	OwnerID    string       `json:"owner_id"`
	Phase      string       `json:"phase"`
	Round      int          `json:"round"`
	Players    []PlayerInfo `json:"players"`
	VotesCount int          `json:"votes_count"`
}

// PlayerInfo 玩家公开信息
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RolePayload 身份信息，卧底的 Word 为 nil
type RolePayload struct {
	IsImpostor bool    `json:"is_impostor"`
	Word       *string `json:"word"`
}

// ResultsPayload 本轮结果
type ResultsPayload struct {
	ImpostorID       string       `json:"impostor_id"`
	Word             string       `json:"word"`
	Votes            []VoteRecord `json:"votes"`
	VotesForImpostor *int         `json:"votes_for_impostor,omitempty"`
	Disconnected     bool         `json:"disconnected,omitempty"`
}

// VoteRecord 一条投票记录
type VoteRecord struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
