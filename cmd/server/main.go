package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/palemoky/word-impostor/internal/config"
	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.LogWarn("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.LogError("初始化日志失败: %v", err)
	}
	defer logger.Close()

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.LogError("创建服务器失败: %v", err)
		os.Exit(1)
	}

	// 优雅关闭：进入维护模式，等待进行中的回合结束
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.LogInfo("正在关闭服务器...")
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		logger.Close()
		os.Exit(0)
	}()

	logger.LogInfo("🕵 谁是卧底服务器启动中...")
	if err := srv.Start(); err != nil {
		logger.LogError("服务器启动失败: %v", err)
		os.Exit(1)
	}
}
