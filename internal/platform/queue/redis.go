package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/7rockstarmade/LogicModule/internal/platform/config"
)

// RDB stays nil when REDIS_ADDR is empty.
var RDB *redis.Client

const pingTimeout = 5 * time.Second

func ConnectRedis() {
	if config.AppConfig.RedisAddr == "" {
		log.Println("WARN: REDIS_ADDR is empty, attempt locking and notification queue disabled.")
		return
	}
	rdb, err := OpenRedis(context.Background(), config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisDB)
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	RDB = rdb
	fmt.Println("Successfully connected to Redis!")
}

// OpenRedis returns a client for addr once it answers a ping.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		RDB = nil
		fmt.Println("Redis connection closed.")
	}
}
