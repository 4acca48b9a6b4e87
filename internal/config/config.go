package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BotConfig configures the Discord bot process, which also hosts the ops
// HTTP server.
type BotConfig struct {
	DiscordToken string
	DatabaseURL  string
	OpsAddr      string
	DefaultCap   int64
	BoostedCap   int64
}

// TickerConfig configures the background job runner.
type TickerConfig struct {
	DatabaseURL     string
	TickEvery       time.Duration
	QuestRegenEvery time.Duration
	QuestCount      int
}

func LoadBotFromEnv() (BotConfig, error) {
	cfg := BotConfig{
		DiscordToken: strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		OpsAddr:      envDefault("DUCKONOMY_OPS_ADDR", ":8090"),
		DefaultCap:   envInt64Default("DUCKONOMY_BET_CAP", 100_000),
		BoostedCap:   envInt64Default("DUCKONOMY_BET_CAP_BOOSTED", 500_000),
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadTickerFromEnv() (TickerConfig, error) {
	cfg := TickerConfig{
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TickEvery:       envDurationDefault("DUCKONOMY_TICK_EVERY", 30*time.Second),
		QuestRegenEvery: envDurationDefault("DUCKONOMY_QUEST_REGEN_EVERY", 6*time.Hour),
		QuestCount:      int(envInt64Default("DUCKONOMY_QUEST_COUNT", 5)),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
