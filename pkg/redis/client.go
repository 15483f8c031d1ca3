package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

type Client struct {
	client  valkey.Client
	lockTTL time.Duration
}

const (
	processedEventKeyPrefix = "wa_event:"
	processedEventTTL       = 24 * time.Hour

	userLockKeyPrefix  = "user_lock:"
	defaultUserLockTTL = 30 * time.Second
	lockPollInterval   = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultUserLockTTL
	}

	return &Client{client: client, lockTTL: lockTTL}, nil
}

// ClaimEvent records an inbound event id. It returns false when the id was
// already claimed, i.e. the platform redelivered an event we handled.
func (c *Client) ClaimEvent(ctx context.Context, eventID string) (bool, error) {
	key := processedEventKeyPrefix + eventID

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value(time.Now().UTC().Format(time.RFC3339)).
		Nx().ExSeconds(int64(processedEventTTL.Seconds())).Build()).Error()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}

	return true, nil
}

// ReleaseEvent forgets a claim so a redelivery is processed again.
func (c *Client) ReleaseEvent(ctx context.Context, eventID string) error {
	key := processedEventKeyPrefix + eventID

	if err := c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to release event %s: %w", eventID, err)
	}

	return nil
}

// Lock takes a per-key lock shared by every service instance. It polls until
// the lock is free or ctx is done. The lock expires after the configured
// REDIS_LOCK_TTL in case the holder dies.
func (c *Client) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := userLockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := c.client.Do(ctx, c.client.B().Set().Key(lockKey).Value(token).
			Nx().PxMilliseconds(c.lockTTL.Milliseconds()).Build()).Error()
		if err == nil {
			break
		}
		if !valkey.IsValkeyNil(err) {
			return nil, fmt.Errorf("failed to acquire lock for %s: %w", key, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for lock on %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Exec(releaseCtx, c.client, []string{lockKey}, []string{token}).Error(); err != nil {
			logger.Warnf("failed to release lock %s: %v", lockKey, err)
		}
	}, nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
