package protocol

// 错误码
const (
	ErrCodeUnknown           = "UNKNOWN"
	ErrCodeInvalidMsg        = "INVALID_MSG"
	ErrCodeRateLimit         = "RATE_LIMIT"
	ErrCodeServerMaintenance = "SERVER_MAINTENANCE"

	ErrCodeFailedCreate  = "FAILED_CREATE"
	ErrCodeRoomNotFound  = "ROOM_NOT_FOUND"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeNotOwner      = "NOT_OWNER"
	ErrCodeNeedPlayers   = "NEED_3_PLAYERS"
	ErrCodeGameStarted   = "GAME_STARTED"
	ErrCodeNotVoting     = "NOT_VOTING"
	ErrCodeNotInResults  = "NOT_IN_RESULTS"
	ErrCodeInvalidTarget = "INVALID_TARGET"
	ErrCodeInvalidPlayer = "INVALID_PLAYER"
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[string]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeServerMaintenance: "服务器维护中",
	ErrCodeFailedCreate:      "创建房间失败",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeNotOwner:          "只有房主可以执行此操作",
	ErrCodeNeedPlayers:       "至少需要 3 名玩家",
	ErrCodeGameStarted:       "游戏已开始",
	ErrCodeNotVoting:         "当前不在投票阶段",
	ErrCodeNotInResults:      "本轮尚未结束",
	ErrCodeInvalidTarget:     "投票对象不存在",
	ErrCodeInvalidPlayer:     "玩家不存在",
}
