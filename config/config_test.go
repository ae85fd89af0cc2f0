package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minefield/mines"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		defaultVal string
		envValue   string
		want       string
	}{
		{
			name:       "Environment variable exists",
			key:        "TEST_KEY_EXISTS",
			defaultVal: "default",
			envValue:   "custom_value",
			want:       "custom_value",
		},
		{
			name:       "Environment variable does not exist",
			key:        "TEST_KEY_NOT_EXISTS",
			defaultVal: "default_value",
			envValue:   "",
			want:       "default_value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			got := getEnv(tt.key, tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		defaultVal int
		envValue   string
		want       int
	}{
		{"Valid integer", "TEST_INT_VALID", 0, "42", 42},
		{"Invalid integer", "TEST_INT_INVALID", 10, "not_a_number", 10},
		{"Empty value", "TEST_INT_EMPTY", 5, "", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			got := getEnvAsInt(tt.key, tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "REDIS_URL", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TTL_MINUTES", "LOG_LEVEL", "DIFFICULTY"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.Redis.Enabled() {
		t.Errorf("Redis should be disabled without REDIS_URL")
	}
	if cfg.Redis.TTL != DefaultRedisTTL {
		t.Errorf("TTL = %v, want %v", cfg.Redis.TTL, DefaultRedisTTL)
	}
	if cfg.LogLevel != logrus.InfoLevel {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.Difficulty != mines.Intermediate {
		t.Errorf("Difficulty = %v, want intermediate", cfg.Difficulty)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("REDIS_URL", "cache:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TTL_MINUTES", "15")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DIFFICULTY", "hard")
	cfg := Load()
	if cfg.DBPath != "/tmp/other.db" || cfg.Redis.URL != "cache:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Redis.TTL != 15*time.Minute {
		t.Errorf("TTL = %v, want 15m", cfg.Redis.TTL)
	}
	if cfg.LogLevel != logrus.DebugLevel || cfg.Difficulty != mines.Hard {
		t.Errorf("Unexpected level/difficulty %v/%v", cfg.LogLevel, cfg.Difficulty)
	}
	if cfg.NewLogger().GetLevel() != logrus.DebugLevel {
		t.Errorf("Logger ignores configured level")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("DIFFICULTY", "nightmare")
	t.Setenv("REDIS_TTL_MINUTES", "-3")
	cfg := Load()
	if cfg.LogLevel != logrus.InfoLevel || cfg.Difficulty != mines.Intermediate || cfg.Redis.TTL != DefaultRedisTTL {
		t.Errorf("Invalid values should fall back to defaults, got %+v", cfg)
	}
}
