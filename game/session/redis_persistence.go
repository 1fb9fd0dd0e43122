package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/tic-tac-two/game/service"
)

const (
	DefaultRedisKeyPrefix = "tictactwo:session:"
	redisOpTimeout        = 3 * time.Second
	redisScanCount        = 100
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisPersistence implements SessionPersistence with one Redis string per
// session. A non-zero TTL expires sessions that stop being saved.
type RedisPersistence struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	configManager service.ConfigManager
}

// NewRedisPersistence creates a Redis-backed session persistence layer
func NewRedisPersistence(client *redis.Client, keyPrefix string, ttl time.Duration, configManager service.ConfigManager) *RedisPersistence {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisPersistence{
		client:        client,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		configManager: configManager,
	}
}

// Save stores the session document, refreshing its TTL
func (rp *RedisPersistence) Save(sess *service.Session) error {
	jsonData, err := encodeSession(sess)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := rp.client.Set(ctx, rp.key(sess.ID), jsonData, rp.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// Load retrieves a session by ID
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	jsonData, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return decodeSession(jsonData, rp.configManager)
}

// Delete removes a session
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	removed, err := rp.client.Del(ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	var sessionIDs []string
	iter := rp.client.Scan(ctx, 0, rp.keyPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		sessionIDs = append(sessionIDs, strings.TrimPrefix(iter.Val(), rp.keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	return sessionIDs, nil
}

// Exists checks if a session is stored
func (rp *RedisPersistence) Exists(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session in redis: %w", err)
	}
	return n > 0, nil
}

func (rp *RedisPersistence) key(id string) string {
	return rp.keyPrefix + strings.ToLower(id)
}
