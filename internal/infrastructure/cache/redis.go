package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"tavern/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const dialTimeout = 5 * time.Second

var RedisClient *redis.Client

// New 创建客户端并确认可达
func New(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// InitRedis 未启用时返回 nil，创建顾客时不加手机号锁
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		log.Info().Msg("Redis 未启用，手机号查重不加锁")
		return nil
	}

	client, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Int("port", cfg.Port).Msg("连接 Redis 失败")
	}
	RedisClient = client
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("Redis 已连接")
	return client
}

func CloseRedis() {
	if RedisClient == nil {
		return
	}
	if err := RedisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("关闭 Redis 失败")
	}
	RedisClient = nil
}
