package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const notificationTTL = 30 * 24 * time.Hour

// NotificationCounters tracks unread notification counts per user. The notify
// relay bumps a user's counter whenever one of their bookings changes state;
// clients read and reset it through the API.
type NotificationCounters struct {
	client *redis.Client
}

func NewNotificationCounters(client *redis.Client) *NotificationCounters {
	return &NotificationCounters{client: client}
}

func (n *NotificationCounters) Bump(ctx context.Context, userID string) error {
	key := n.key(userID)
	pipe := n.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, notificationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (n *NotificationCounters) Unread(ctx context.Context, userID string) (int64, error) {
	raw, err := n.client.Get(ctx, n.key(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (n *NotificationCounters) Reset(ctx context.Context, userID string) error {
	return n.client.Del(ctx, n.key(userID)).Err()
}

func (n *NotificationCounters) key(userID string) string {
	return "notify:unread:" + userID
}
