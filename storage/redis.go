package storage

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// Redis backs the chat change feed (pub/sub), typing indicators and the
// refresh-token allowlist.
var Redis *redis.Client

func InitializeRedis() {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
		log.Println("REDIS_URL not set, using localhost:6379")
	}

	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Panic("invalid REDIS_DB value: " + raw)
		}
		db = parsed
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	if err := Redis.Ping(context.Background()).Err(); err != nil {
		// pub/sub is the delivery path for chat, fail loudly at boot
		log.Panic("could not reach redis at " + addr + ": " + err.Error())
	}
	log.Println("connected to redis at", addr)
}
