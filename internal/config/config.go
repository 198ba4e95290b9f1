package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr     string
	AllowedOrigins []string

	RedisURL    string
	DatabaseURL string
	ArchiveTTL  time.Duration

	MsgTemplateDir string

	MaxConcurrentGames int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:         ":8080",
		ArchiveTTL:         24 * time.Hour,
		MaxConcurrentGames: 200,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("ARCHIVE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ArchiveTTL = d
		}
	}

	cfg.MsgTemplateDir = strings.TrimSpace(os.Getenv("MSG_TEMPLATE_DIR"))

	if v := strings.TrimSpace(os.Getenv("MAX_CONCURRENT_GAMES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentGames = n
		}
	}

	return cfg, nil
}
