package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	blacklistPrefix = "blacklist:"
	webhookPrefix   = "webhook:event:"
)

var client *redis.Client

// Init connects the shared client and verifies it with PING.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully")
	return nil
}

func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// Store holds the token blacklist and the processed-webhook ledger.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// BlacklistToken revokes token until expiry elapses.
func (s *Store) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	if err := s.rdb.Set(ctx, blacklistPrefix+token, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

func (s *Store) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	val, err := s.rdb.Get(ctx, blacklistPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

// MarkEventProcessed records a provider event id. It returns false when the
// id was already recorded, meaning the event is a redelivery.
func (s *Store) MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	first, err := s.rdb.SetNX(ctx, webhookPrefix+eventID, time.Now().Unix(), ttl).Result()
	if err != nil {
		logger.Error("Failed to record webhook event", err, map[string]interface{}{
			"event_id": eventID,
		})
		return false, err
	}
	return first, nil
}

// ForgetEvent removes a recorded event so the provider's retry is processed.
func (s *Store) ForgetEvent(ctx context.Context, eventID string) error {
	return s.rdb.Del(ctx, webhookPrefix+eventID).Err()
}
