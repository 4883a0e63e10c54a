package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	stockSnapshotKey = "stock:levels"
	notificationsKey = "notifications:stock"
	chatChannelFmt   = "chat:session:%s"

	// Dashboard notification feed is capped; older entries fall off.
	notificationFeedSize = 100
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheStockSnapshot stores the serialized stock levels snapshot with a TTL
func (c *Client) CacheStockSnapshot(ctx context.Context, snapshot interface{}, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal stock snapshot: %w", err)
	}
	return c.rdb.Set(ctx, stockSnapshotKey, data, ttl).Err()
}

// GetStockSnapshot loads the cached stock levels snapshot into dest.
// Returns false when no snapshot is cached.
func (c *Client) GetStockSnapshot(ctx context.Context, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, stockSnapshotKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal stock snapshot: %w", err)
	}
	return true, nil
}

// InvalidateStockSnapshot drops the cached snapshot after a mutation
func (c *Client) InvalidateStockSnapshot(ctx context.Context) error {
	return c.rdb.Del(ctx, stockSnapshotKey).Err()
}

// PushNotification prepends a rendered notification onto the capped feed
func (c *Client) PushNotification(ctx context.Context, notification interface{}) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.LPush(ctx, notificationsKey, data)
	pipe.LTrim(ctx, notificationsKey, 0, notificationFeedSize-1)

	_, err = pipe.Exec(ctx)
	return err
}

// RecentNotifications returns up to n notifications, newest first
func (c *Client) RecentNotifications(ctx context.Context, n int64) ([]string, error) {
	return c.rdb.LRange(ctx, notificationsKey, 0, n-1).Result()
}

// MarkEventSeen records an event ID with a TTL. Returns false when the event
// was already seen, so consumers can skip duplicates on redelivery.
func (c *Client) MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("event:%s", eventID), "1", ttl).Result()
}

// PublishChatMessage pushes a chat message onto the session's pub/sub channel
// for realtime delivery to connected dashboards
func (c *Client) PublishChatMessage(ctx context.Context, sessionID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	return c.rdb.Publish(ctx, fmt.Sprintf(chatChannelFmt, sessionID), data).Err()
}
