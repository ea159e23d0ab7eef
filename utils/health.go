package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Pinger is anything whose liveness can be probed, e.g. a vector store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus represents current status of external services.
type HealthStatus struct {
	VectorStore bool      `json:"vectorStore"`
	Redis       []bool    `json:"redis"`
	CheckedAt   time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth probes every dependency once and stores the snapshot.
func CheckHealth(ctx context.Context, redisClients []*redis.Client, store Pinger) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var redisHealth []bool
	for _, client := range redisClients {
		err := client.Ping(ctx).Err()
		redisHealth = append(redisHealth, err == nil)
	}

	storeHealthy := true
	if store != nil {
		if err := store.Ping(ctx); err != nil {
			GetLogger().Warn("health: vector store unreachable", zap.Error(err))
			storeHealthy = false
		}
	}

	status := HealthStatus{VectorStore: storeHealthy, Redis: redisHealth, CheckedAt: time.Now()}
	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is done.
func StartHealthMonitor(ctx context.Context, redisClients []*redis.Client, store Pinger) {
	go func() {
		CheckHealth(ctx, redisClients, store)

		ticker := time.NewTicker(HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, redisClients, store)
			}
		}
	}()
}
