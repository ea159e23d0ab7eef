package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func TestCheckHealth(t *testing.T) {
	Logger = zap.NewNop()
	mr := miniredis.RunT(t)
	up := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { up.Close(); down.Close() })

	status := CheckHealth(context.Background(), []*redis.Client{up, down}, PingFunc(func(context.Context) error {
		return errors.New("unreachable")
	}))
	if len(status.Redis) != 2 || !status.Redis[0] || status.Redis[1] {
		t.Errorf("Redis = %v, want [true false]", status.Redis)
	}
	if status.VectorStore {
		t.Error("VectorStore reported healthy")
	}
	if got := GetHealthStatus(); got.CheckedAt != status.CheckedAt {
		t.Error("snapshot not stored")
	}

	status = CheckHealth(context.Background(), nil, nil)
	if !status.VectorStore || len(status.Redis) != 0 {
		t.Errorf("empty check = %+v", status)
	}
}
