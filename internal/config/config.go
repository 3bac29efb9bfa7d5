package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"gmatprep.db"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"gmatprep-dev-secret"`
	GinMode       string `env:"GIN_MODE" envDefault:"release"`

	ContentDir   string `env:"CONTENT_DIR" envDefault:"content"`
	ContentWatch bool   `env:"CONTENT_WATCH" envDefault:"false"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	// RedisAddr 为空时使用进程内缓存。
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RenderCacheTTL time.Duration `env:"RENDER_CACHE_TTL" envDefault:"1h"`

	SuperRootUserName string `env:"SUPER_ROOT_USER_NAME"`
	SuperRootPassword string `env:"SUPER_ROOT_PASSWORD"`
	SiteBaseURL       string `env:"SITE_BASE_URL"`
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 当前目录存在 .env 时先载入，已设置的环境变量优先。
func Load() (AppConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return AppConfig{}, err
	}
	return Parse()
}

// Parse 只读取环境变量，不处理 .env 文件。
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) normalize() {
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	c.SuperRootUserName = strings.TrimSpace(c.SuperRootUserName)
	c.SuperRootPassword = strings.TrimSpace(c.SuperRootPassword)
	c.SiteBaseURL = strings.TrimRight(strings.TrimSpace(c.SiteBaseURL), "/")
	if c.RenderCacheTTL < 0 {
		c.RenderCacheTTL = 0
	}
}

// SeedsSuperRoot reports whether both super root credentials are set.
func (c AppConfig) SeedsSuperRoot() bool {
	return c.SuperRootUserName != "" && c.SuperRootPassword != ""
}
