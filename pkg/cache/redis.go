package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dataforwardpro/dataforwardpro/internal/config"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

var (
	rdb *redis.Client
	ttl time.Duration
)

// InitRedis 初始化Redis连接
// Host 为空表示不启用缓存，所有 Get/Set 直接成为空操作
func InitRedis(cfg config.CacheConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil
	}

	rdb = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	ttl = cfg.TTL

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized successfully")
	return nil
}

// Enabled 缓存是否可用
func Enabled() bool {
	return rdb != nil
}

// GetJSON 读取并反序列化缓存值，未命中或未启用返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("Cache value decode failed, dropping entry", "key", key, "error", err)
		rdb.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON 序列化并写入缓存值，失败仅记录日志不影响主流程
func SetJSON(ctx context.Context, key string, value interface{}) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Cache value encode failed", "key", key, "error", err)
		return
	}
	if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

// Invalidate 删除指定缓存键
func Invalidate(ctx context.Context, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	rdb.Del(ctx, keys...)
}

// Close 关闭Redis连接
func Close() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}
