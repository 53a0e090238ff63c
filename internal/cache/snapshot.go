package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// SnapshotCache 将最新快照镜像到 Redis，供其它服务读取实时状态。
// Publish 只保留最新值，由 Run 协程写入，从不阻塞调用方。
type SnapshotCache struct {
	kv      KVStore
	key     string
	ttl     time.Duration
	logger  *zap.Logger
	pending chan models.ReadingSnapshot
}

func NewSnapshotCache(kv KVStore, key string, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		kv:      kv,
		key:     key,
		ttl:     ttl,
		logger:  logger,
		pending: make(chan models.ReadingSnapshot, 1),
	}
}

// Publish replaces any snapshot still waiting to be written.
func (c *SnapshotCache) Publish(s models.ReadingSnapshot) {
	for {
		select {
		case c.pending <- s:
			return
		default:
		}
		select {
		case <-c.pending:
		default:
		}
	}
}

// Run 写入协程，ctx 取消后退出
func (c *SnapshotCache) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-c.pending:
			if err := c.write(ctx, s); err != nil {
				c.logger.Warn("Failed to mirror snapshot",
					zap.String("key", c.key),
					zap.Error(err),
				)
			}
		}
	}
}

func (c *SnapshotCache) write(ctx context.Context, s models.ReadingSnapshot) error {
	data, err := json.Marshal(models.NewSensorDataEvent(s))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.kv.Set(writeCtx, c.key, string(data), c.ttl)
}
