package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores entries under a shared prefix with a per-key TTL and
// lets Redis handle expiry. Connection failures log once per call and
// degrade to misses.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &Redis{
		client: redis.NewClient(opt),
		prefix: "analysis:",
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("cache: read failed for %s: %v", key, err)
		return "", false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		log.Printf("cache: write failed for %s: %v", key, err)
	}
}

func (r *Redis) Size(ctx context.Context) int64 {
	var count int64
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

func (r *Redis) Close() error {
	return r.client.Close()
}
