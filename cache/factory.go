package cache

import (
	"fmt"
	"log"

	"github.com/anoixa/image-api/cache/memory"
	"github.com/anoixa/image-api/cache/redis"
	"github.com/anoixa/image-api/config"
)

// NewFactory 根据配置创建缓存提供者
func NewFactory(cfg *config.Config) (Provider, error) {
	cacheType := cfg.CacheType
	if cacheType == "" {
		cacheType = "memory"
	}

	var (
		provider Provider
		err      error
	)
	switch cacheType {
	case "memory":
		provider, err = memory.NewMemory(memory.DefaultConfig())
	case "redis":
		provider, err = redis.NewRedis(redis.Config{
			Address:      cfg.CacheRedisAddr,
			Password:     cfg.CacheRedisPassword,
			DB:           cfg.CacheRedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
		})
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", cacheType, err)
	}

	log.Printf("[Cache] Using '%s' cache provider", provider.Name())
	return provider, nil
}
