package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/word-impostor/internal/config"
	"github.com/palemoky/word-impostor/internal/game/room"
	"github.com/palemoky/word-impostor/internal/game/word"
	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/server/handler"
	"github.com/palemoky/word-impostor/internal/server/session"
	"github.com/palemoky/word-impostor/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client // 未启用 Redis 时为 nil
	redisStore  *storage.RedisStore
	leaderboard *storage.Leaderboard
	roomManager *room.RoomManager
	membership  *session.Membership
	metrics     *Metrics
	handler     *handler.Handler
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	stopMonitor chan struct{}
	stopOnce    sync.Once
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		// 房间不跨进程存活，清理上次运行留下的镜像
		if n, err := storage.NewRedisStore(rdb).ClearRooms(ctx); err != nil {
			logger.LogWarn("清理房间镜像失败: %v", err)
		} else if n > 0 {
			logger.LogInfo("🧹 已清理 %d 个残留房间镜像", n)
		}
	}

	catalog, err := word.Load(cfg.Game.WordsFile)
	if err != nil {
		return nil, fmt.Errorf("加载词库失败: %w", err)
	}
	logger.LogInfo("📚 词库已加载: %d 个词", catalog.Len())

	return newServer(cfg, rdb, catalog), nil
}

// newServer 组装服务器组件，rdb 可以为 nil
func newServer(cfg *config.Config, rdb *redis.Client, catalog word.Catalog) *Server {
	s := &Server{
		config:      cfg,
		redis:       rdb,
		redisStore:  storage.NewRedisStore(rdb),
		leaderboard: storage.NewLeaderboard(rdb),
		membership:  session.NewMembership(),
		metrics:     NewMetrics(),
		clients:     make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		stopMonitor:    make(chan struct{}),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	s.roomManager = room.NewRoomManager(s, catalog, s.redisStore, s.leaderboard, room.Options{
		MinPlayers:    cfg.Game.MinPlayers,
		CodeLength:    cfg.Game.RoomCodeLength,
		MaxNameLength: cfg.Game.MaxNameLength,
		Observer:      s.metrics,
	})

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
		Membership:  s.membership,
		Leaderboard: s.leaderboard,
		Metrics:     s.metrics,
	})

	logger.LogInfo("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)

	return s
}

// Router HTTP 路由
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms/{code}", s.handleGetRoom).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", s.handleGetLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/{name}", s.handleGetPlayerRank).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleGetStats).Methods(http.MethodGet)
	return r
}

// Start 启动服务器，阻塞直到监听结束
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	go s.monitorStats()

	logger.LogInfo("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RoomManager 房间管理器
func (s *Server) RoomManager() *room.RoomManager {
	return s.roomManager
}

// Metrics 指标
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
