package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

const monitorInterval = 30 * time.Second

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopMonitor:
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Info().
				Int("online", s.GetOnlineCount()).
				Int("rooms", s.roomManager.RoomCount()).
				Int("active_rounds", s.roomManager.GetActiveRoundsCount()).
				Int("goroutines", runtime.NumGoroutine()).
				Int("conns", len(s.semaphore)).
				Int("max_conns", s.maxConnections).
				Float64("alloc_mb", float64(m.Alloc)/1024/1024).
				Msg("📊 [监控]")
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新房间
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "👷🏻‍♂️ 维护模式：停止新的房间创建",
	}))

	logger.LogInfo("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的回合结束（最多 timeout）后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.roomManager.GetActiveRoundsCount()
		if active == 0 {
			logger.LogInfo("✅ 所有回合已结束，将在 %ds 后关闭服务器！", s.config.Game.RoomCleanupDelay)
			s.Broadcast(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
				Code:    protocol.ErrCodeServerMaintenance,
				Message: fmt.Sprintf("🚧 服务器将在 %d 秒后停机维护！", s.config.Game.RoomCleanupDelay),
			}))
			break
		}
		logger.LogInfo("⏳ 等待 %d 个回合结束...", active)
		<-ticker.C
	}

	if active := s.roomManager.GetActiveRoundsCount(); active > 0 {
		logger.LogWarn("⚠️ 超时，仍有 %d 个回合进行中，强制关闭", active)
	}

	s.Shutdown()
}

// Shutdown 等待缓冲时间后关闭所有连接和依赖
func (s *Server) Shutdown() {
	time.Sleep(s.config.Game.RoomCleanupDelayDuration())
	s.close()
	logger.LogInfo("服务器已关闭")
}

// close 立即关闭
func (s *Server) close() {
	s.stopOnce.Do(func() {
		close(s.stopMonitor)
		s.rateLimiter.Stop()

		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				logger.LogWarn("HTTP 服务关闭失败: %v", err)
			}
		}

		if s.redis != nil {
			_ = s.redis.Close()
		}
	})
}
