package db

import (
	"context"

	"RestQueryAPI/internal/logger"

	"github.com/redis/go-redis/v9"
)

// InitRedis принимает адрес явно (а не через os.Getenv)
func InitRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		addr = "localhost:6379"
		logger.Warn("redis_default_addr", nil)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
