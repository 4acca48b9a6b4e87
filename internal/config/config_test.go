package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("DUCKONOMY_TEST_STR", "  value  ")
	if got := envDefault("DUCKONOMY_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("envDefault = %q", got)
	}
	if got := envDefault("DUCKONOMY_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("missing key: envDefault = %q", got)
	}

	t.Setenv("DUCKONOMY_TEST_DUR", "45s")
	if got := envDurationDefault("DUCKONOMY_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Fatalf("envDurationDefault = %v", got)
	}
	t.Setenv("DUCKONOMY_TEST_DUR", "garbage")
	if got := envDurationDefault("DUCKONOMY_TEST_DUR", time.Minute); got != time.Minute {
		t.Fatalf("bad duration: envDurationDefault = %v", got)
	}

	t.Setenv("DUCKONOMY_TEST_INT", "250")
	if got := envInt64Default("DUCKONOMY_TEST_INT", 10); got != 250 {
		t.Fatalf("envInt64Default = %d", got)
	}
	t.Setenv("DUCKONOMY_TEST_INT", "nope")
	if got := envInt64Default("DUCKONOMY_TEST_INT", 10); got != 10 {
		t.Fatalf("bad int: envInt64Default = %d", got)
	}
}

func TestLoadBotFromEnvRequiresSecrets(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/duckonomy")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatal("missing token accepted")
	}

	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatal("missing database url accepted")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/duckonomy")
	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("valid env rejected: %v", err)
	}
	if cfg.OpsAddr != ":8090" {
		t.Fatalf("default ops addr = %q", cfg.OpsAddr)
	}
}
