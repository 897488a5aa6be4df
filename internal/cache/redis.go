package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// MustConnect opens the Redis connection backing the job queue. The
// queue is load-bearing, so a dead Redis aborts startup.
func MustConnect(addr string, db int) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		panic(err)
	}
	return r
}
