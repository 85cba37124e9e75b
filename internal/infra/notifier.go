package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// RedisNotifier рассылает сигнал обновления реестра всем инстансам через Pub/Sub.
// Публикация идёт через предохранитель: при лежащем Redis запись в админке не ждёт таймаутов.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	cb      *gobreaker.CircuitBreaker
}

func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = RedisChanPolicyUpdate
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "retention-notifier",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &RedisNotifier{rdb: rdb, channel: channel, cb: cb}
}

// NotifyUpdate публикует RefreshSignal в канал реестра.
func (n *RedisNotifier) NotifyUpdate(ctx context.Context) error {
	_, err := n.cb.Execute(func() (interface{}, error) {
		return nil, n.rdb.Publish(ctx, n.channel, RefreshSignal).Err()
	})
	if err != nil {
		return fmt.Errorf("redis: failed to publish policy update: %w", err)
	}
	return nil
}
