package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisMu     sync.Mutex
	closeOnce   sync.Once
)

// GetRedisClient dials redis once and returns nil when it is unreachable;
// the caller falls back to the in-memory store. The client closes when the
// service context ends.
func GetRedisClient(ctx context.Context) *redis.Client {
	logger := logger_i.NewLogger("redis")

	redisMu.Lock()
	defer redisMu.Unlock()

	if redisClient != nil {
		return redisClient
	}

	client := redis.NewClient(&redis.Options{
		Addr:                  config.EnvOr("REDIS_ADDR", config.RedisAddr),
		Password:              config.EnvOr("REDIS_PASSWORD", ""),
		DB:                    config.RedisConversationDB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis is offline, conversation state will not persist", "error", err)
		return nil
	}

	redisClient = client
	closeOnce.Do(func() {
		go closeRedis(ctx, logger)
	})
	return redisClient
}

func closeRedis(ctx context.Context, logger *logger_i.Logger) {
	<-ctx.Done()
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("error closing redis client", "error", err)
		}
		redisClient = nil
	}
}
