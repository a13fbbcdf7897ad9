package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
)

// Cache shares one loaded catalog between requests. The snapshot is never
// modified; Reload replaces it as a whole.
type Cache struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[Catalog]
}

func NewCache(path string, log *zap.Logger) *Cache {
	return &Cache{path: path, logger: logger.OrNop(log)}
}

// Catalog returns the current snapshot, loading it on first use.
func (c *Cache) Catalog(context.Context) (*Catalog, error) {
	if cat := c.current.Load(); cat != nil {
		return cat, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cat := c.current.Load(); cat != nil {
		return cat, nil
	}

	return c.reloadLocked()
}

// Reload loads the catalog again. On failure the previous snapshot is kept.
func (c *Cache) Reload() (*Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reloadLocked()
}

func (c *Cache) reloadLocked() (*Catalog, error) {
	cat, err := Load(c.path, c.logger)
	if err != nil {
		return nil, err
	}

	c.current.Store(cat)
	return cat, nil
}

// Watch reloads the catalog every interval until ctx is done.
func (c *Cache) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Reload(); err != nil {
				c.logger.Warn("catalog reload failed, keeping previous snapshot",
					zap.String("path", c.path),
					zap.Error(err),
				)
			}
		}
	}
}
