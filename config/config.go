package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minefield/mines"
)

const (
	DefaultDBPath   = "minefield.db"
	DefaultRedisTTL = 24 * time.Hour
)

type Redis struct {
	URL      string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool {
	return r.URL != ""
}

type Config struct {
	DBPath     string
	Redis      Redis
	LogLevel   logrus.Level
	Difficulty mines.Difficulty
}

// Load reads the configuration from the environment and a .env file in the
// working directory. Invalid values fall back to their defaults.
func Load() Config {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	difficulty, err := mines.ParseDifficulty(getEnv("DIFFICULTY", mines.Intermediate.String()))
	if err != nil {
		difficulty = mines.Intermediate
	}
	ttl := time.Duration(getEnvAsInt("REDIS_TTL_MINUTES", int(DefaultRedisTTL/time.Minute))) * time.Minute
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return Config{
		DBPath: getEnv("DB_PATH", DefaultDBPath),
		Redis: Redis{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      ttl,
		},
		LogLevel:   level,
		Difficulty: difficulty,
	}
}

func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
