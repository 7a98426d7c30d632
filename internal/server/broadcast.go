package server

import "github.com/palemoky/word-impostor/internal/protocol"

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastToRoom 发送给房间内所有成员（实现 types.Publisher）
func (s *Server) BroadcastToRoom(code string, msg *protocol.Message) {
	members := s.membership.Members(code)

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, id := range members {
		if client, ok := s.clients[id]; ok {
			client.SendMessage(msg)
		}
	}
}

// SendToConnection 只发送给一个连接（实现 types.Publisher）
func (s *Server) SendToConnection(connID string, msg *protocol.Message) {
	s.clientsMu.RLock()
	client, ok := s.clients[connID]
	s.clientsMu.RUnlock()

	if ok {
		client.SendMessage(msg)
	}
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// BroadcastToLobby 广播消息给未在房间内的连接
func (s *Server) BroadcastToLobby(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for id, client := range s.clients {
		if s.membership.RoomOf(id) == "" {
			client.SendMessage(msg)
		}
	}
}
