package server

import (
	"net/http"

	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

// handleWebSocket 处理 WebSocket 连接，?codec=protobuf 选择二进制编码
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		logger.LogInfo("🔧 维护模式，拒绝新连接: %s", clientIP)
		s.metrics.Reject("maintenance")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// IP 过滤检查
	if !s.ipFilter.IsAllowed(clientIP) {
		logger.LogWarn("🚫 IP %s 被过滤器拒绝", clientIP)
		s.metrics.Reject("ip_filter")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		logger.LogWarn("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		s.metrics.Reject("origin")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 速率限制检查
	if !s.rateLimiter.Allow(clientIP) {
		logger.LogWarn("🚫 IP %s 请求过于频繁", clientIP)
		s.metrics.Reject("rate_limit")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	// 连接数限制检查，连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		logger.LogWarn("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		s.metrics.Reject("server_full")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		logger.LogWarn("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn, codec.ByName(r.URL.Query().Get("codec")))
	client.IP = clientIP
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))

	logger.LogInfo("✅ 连接 %s 已建立 (IP: %s, 编码: %s)", client.ID, clientIP, client.codec.Name())

	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.IsMaintenanceMode() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("MAINTENANCE"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	s.clients[client.ID] = client
	n := len(s.clients)
	s.clientsMu.Unlock()

	s.metrics.OnlinePlayers.Set(float64(n))
}

// unregisterClient 注销客户端并释放连接槽位
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	_, ok := s.clients[client.ID]
	if ok {
		delete(s.clients, client.ID)
	}
	n := len(s.clients)
	s.clientsMu.Unlock()

	if !ok {
		return
	}
	<-s.semaphore
	s.metrics.OnlinePlayers.Set(float64(n))
	logger.LogInfo("❌ 连接 %s 已断开", client.ID)
}
