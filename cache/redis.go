package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tpq_payments"

var Redis *redis.Client

// ConnectRedis leaves Redis nil when REDIS_ADDR is unset; every helper below is then a no-op.
func ConnectRedis() {
	addr := config.Config("REDIS_ADDR")
	if addr == "" {
		log.Println("⚠️ REDIS_ADDR not set, confirmation cache disabled.")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Config("REDIS_PASSWORD"),
		DB:       config.ConfigInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("🔥 Failed to connect Redis at %s, cache disabled: %v", addr, err)
		return
	}

	Redis = client
	log.Println("✅ Redis connected")
}

func Key(operation, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, operation, id)
}

// GetJSON reports whether key was found and decoded into dest.
func GetJSON(ctx context.Context, key string, dest any) bool {
	if Redis == nil {
		return false
	}
	raw, err := Redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("Redis get %s failed: %v", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("Redis value for %s is not valid JSON: %v", key, err)
		return false
	}
	return true
}

func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if Redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("Redis set %s: marshal failed: %v", key, err)
		return
	}
	if err := Redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("Redis set %s failed: %v", key, err)
	}
}

func Delete(ctx context.Context, keys ...string) {
	if Redis == nil || len(keys) == 0 {
		return
	}
	if err := Redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Redis del %v failed: %v", keys, err)
	}
}
