// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"ragdesk/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient holds conversation sessions.
	SessionCacheClient *redis.Client
	// QueueClient is the connection the booking task queue lives on.
	QueueClient *redis.Client
)

func newRedisClient(db int, label string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (%s): %w", label, err)
	}
	return client, nil
}

// InitSessionCache connects the session store client.
func InitSessionCache() (*redis.Client, error) {
	client, err := newRedisClient(config.AppConfig.RedisSessionDB, "Sessions")
	if err != nil {
		return nil, err
	}
	SessionCacheClient = client
	return client, nil
}

// InitQueueCache connects the client used to health-check the task queue.
func InitQueueCache() (*redis.Client, error) {
	client, err := newRedisClient(config.AppConfig.RedisQueueDB, "Queue")
	if err != nil {
		return nil, err
	}
	QueueClient = client
	return client, nil
}

// RedisClients returns every initialized client, for health checks and shutdown.
func RedisClients() []*redis.Client {
	var out []*redis.Client
	for _, c := range []*redis.Client{SessionCacheClient, QueueClient} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
