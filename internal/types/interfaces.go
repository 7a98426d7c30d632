package types

import (
	"github.com/palemoky/word-impostor/internal/protocol"
)

// Publisher 房间通知出口（由网关实现，房间只依赖这个接口）
type Publisher interface {
	// BroadcastToRoom 发送给房间内所有成员
	BroadcastToRoom(code string, msg *protocol.Message)
	// SendToConnection 只发送给一个连接
	SendToConnection(connID string, msg *protocol.Message)
}

// RoundObserver 房间和回合事件，用于指标统计
type RoundObserver interface {
	RoomOpened()
	RoomClosed()
	RoundStarted()
	RoundConcluded(disconnected bool)
}

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	SendMessage(msg *protocol.Message)
	Close()
}
