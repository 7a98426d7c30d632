package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认配置
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 4000
	defaultMaxConnections = 10000
	defaultRedisAddr      = "localhost:6379"

	defaultMinPlayers            = 3
	defaultRoomCodeLength        = 6
	defaultMaxNameLength         = 24
	defaultShutdownTimeout       = 30 // 分钟
	defaultShutdownCheckInterval = 10 // 秒
	defaultRoomCleanupDelay      = 5  // 秒

	defaultRateMaxPerSecond    = 10
	defaultRateMaxPerMinute    = 60
	defaultRateBanDuration     = 60 // 秒
	defaultMessageMaxPerSecond = 20

	defaultLogLevel = "info"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置，Enabled 为 false 时房间镜像和排行榜不落盘
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MinPlayers            int    `yaml:"min_players"`
	RoomCodeLength        int    `yaml:"room_code_length"`
	MaxNameLength         int    `yaml:"max_name_length"`
	ShutdownTimeout       int    `yaml:"shutdown_timeout"`        // 优雅关闭等待时间（分钟）
	ShutdownCheckInterval int    `yaml:"shutdown_check_interval"` // 关闭检查间隔（秒）
	RoomCleanupDelay      int    `yaml:"room_cleanup_delay"`      // 关闭前的缓冲时间（秒）
	WordsFile             string `yaml:"words_file"`              // 自定义词库，为空时使用内置词库
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ShutdownTimeoutDuration 返回优雅关闭最长等待时间
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// RoomCleanupDelayDuration 返回关闭前的缓冲时间
func (c *GameConfig) RoomCleanupDelayDuration() time.Duration {
	return time.Duration(c.RoomCleanupDelay) * time.Second
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// Load 加载配置文件，随后应用 .env 与环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := loadEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default 返回默认配置（同样会读取环境变量）
func Default() *Config {
	cfg := &Config{}
	_ = loadEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Game.MinPlayers == 0 {
		cfg.Game.MinPlayers = defaultMinPlayers
	}
	if cfg.Game.RoomCodeLength == 0 {
		cfg.Game.RoomCodeLength = defaultRoomCodeLength
	}
	if cfg.Game.MaxNameLength == 0 {
		cfg.Game.MaxNameLength = defaultMaxNameLength
	}
	if cfg.Game.ShutdownTimeout == 0 {
		cfg.Game.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Game.ShutdownCheckInterval == 0 {
		cfg.Game.ShutdownCheckInterval = defaultShutdownCheckInterval
	}
	if cfg.Game.RoomCleanupDelay == 0 {
		cfg.Game.RoomCleanupDelay = defaultRoomCleanupDelay
	}
	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = defaultRateMaxPerSecond
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = defaultRateMaxPerMinute
	}
	if cfg.Security.RateLimit.BanDuration == 0 {
		cfg.Security.RateLimit.BanDuration = defaultRateBanDuration
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = defaultMessageMaxPerSecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

// loadEnv 读取可选的 .env 文件，然后用环境变量覆盖配置
func loadEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// HOST/PORT 与原有部署脚本保持兼容
	setString(&cfg.Server.Host, "HOST")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setInt(&cfg.Server.MaxConnections, "SERVER_MAX_CONNECTIONS")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setInt(&cfg.Game.MinPlayers, "GAME_MIN_PLAYERS")
	setString(&cfg.Game.WordsFile, "GAME_WORDS_FILE")

	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Security.AllowedOrigins = origins
	}

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.File, "LOG_FILE")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
