package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// RedisSettings tunes the shared client pool. Zero values fall back to
// defaults sized for a single Evently instance.
type RedisSettings struct {
	PoolSize     int
	MinIdleConns int
}

// ConnectRedis connects the client shared by restriction snapshots, rate
// limiting, and the check-in feed pub/sub.
func ConnectRedis(redisURI string, settings RedisSettings) error {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return err
	}

	if settings.PoolSize <= 0 {
		settings.PoolSize = 10
	}
	if settings.MinIdleConns <= 0 {
		settings.MinIdleConns = 5
	}
	opt.PoolSize = settings.PoolSize
	opt.MinIdleConns = settings.MinIdleConns
	opt.MaxRetries = 3

	// Snapshot reads sit on the event-registration path, so commands get
	// short timeouts and the callers fail open instead of waiting.
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	RedisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Println("✅ Connected to Redis")
	return nil
}

// DisconnectRedis closes the Redis connection.
func DisconnectRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
