package redis

import (
	"fmt"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/velours/internal/config"
)

// Dial 创建 Redis 连接池，Addr 为空时返回 nil（不启用）
func Dial(cfg *config.RedisConfig, size int) (radix.Client, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}
	if size <= 0 {
		size = 10
	}
	pool, err := radix.NewPool("tcp", cfg.Addr, size)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return pool, nil
}
