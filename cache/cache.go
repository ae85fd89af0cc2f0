package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minefield/config"
	"github.com/tomasstrnad1997/minefield/mines"
	"github.com/tomasstrnad1997/minefield/protocol"
)

const keyPrefix = "minefield:board:"

var (
	ErrMiss     = errors.New("cache miss")
	ErrDisabled = errors.New("redis not configured")
)

var log = logrus.New()

func SetLogger(logger *logrus.Logger) {
	log = logger
}

// SessionCache keeps the in-progress board of each session so a crashed or
// closed terminal can resume it.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and pings it. Callers run without a cache when it
// returns an error.
func New(cfg config.Redis) (*SessionCache, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		log.WithError(err).Warn("Redis connection failed, running without cache")
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.WithField("addr", cfg.URL).Info("Redis connected")

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.DefaultRedisTTL
	}
	return &SessionCache{client: client, ttl: ttl}, nil
}

func key(session uuid.UUID) string {
	return keyPrefix + session.String()
}

// SaveBoard stores the encoded board and elapsed play time of a session and
// refreshes its expiry.
func (c *SessionCache) SaveBoard(ctx context.Context, session uuid.UUID, board *mines.Board, elapsed time.Duration) error {
	encoded, err := protocol.EncodeBoard(board)
	if err != nil {
		return err
	}
	k := key(session)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "board", encoded, "elapsed", int64(elapsed/time.Second))
		pipe.Expire(ctx, k, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache session %s: %w", session, err)
	}
	log.WithField("session", session).Debug("cached board")
	return nil
}

func (c *SessionCache) LoadBoard(ctx context.Context, session uuid.UUID) (*mines.Board, time.Duration, error) {
	fields, err := c.client.HGetAll(ctx, key(session)).Result()
	if err != nil {
		return nil, 0, err
	}
	encoded, ok := fields["board"]
	if !ok {
		return nil, 0, ErrMiss
	}
	board, err := protocol.DecodeBoard([]byte(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("decode cached board %s: %w", session, err)
	}
	seconds, _ := strconv.ParseInt(fields["elapsed"], 10, 64)
	return board, time.Duration(seconds) * time.Second, nil
}

func (c *SessionCache) Delete(ctx context.Context, session uuid.UUID) error {
	return c.client.Del(ctx, key(session)).Err()
}

// Sessions lists the sessions that currently have a cached board.
func (c *SessionCache) Sessions(ctx context.Context) ([]uuid.UUID, error) {
	var sessions []uuid.UUID
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id, err := uuid.Parse(strings.TrimPrefix(iter.Val(), keyPrefix))
		if err != nil {
			log.WithField("key", iter.Val()).Warn("skipping malformed session key")
			continue
		}
		sessions = append(sessions, id)
	}
	return sessions, iter.Err()
}

func (c *SessionCache) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if _, err := c.client.Ping(ctx).Result(); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("redis down: %v", err)
		return stats
	}
	stats["status"] = "up"
	stats["message"] = "Redis is healthy"

	poolStats := c.client.PoolStats()
	stats["hits"] = strconv.FormatUint(uint64(poolStats.Hits), 10)
	stats["misses"] = strconv.FormatUint(uint64(poolStats.Misses), 10)
	stats["total_conns"] = strconv.FormatUint(uint64(poolStats.TotalConns), 10)
	stats["idle_conns"] = strconv.FormatUint(uint64(poolStats.IdleConns), 10)
	return stats
}

func (c *SessionCache) Close() error {
	log.Debug("Disconnecting from Redis")
	return c.client.Close()
}
