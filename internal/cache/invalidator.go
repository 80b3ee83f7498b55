package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"go.uber.org/zap"
	"resty.dev/v3"
)

// Invalidator tells the presentation layer that page paths are stale.
// Calls are best-effort; callers log failures and move on.
type Invalidator struct {
	client *resty.Client
	logger *zap.Logger
}

func NewInvalidator(cfg *config.Config, logger *zap.Logger) *Invalidator {
	return &Invalidator{
		client: resty.New().
			SetBaseURL(cfg.CachePurgeBaseURL).
			SetTimeout(4 * time.Second),
		logger: logger.Named("cache.invalidator"),
	}
}

func (i *Invalidator) Invalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(map[string][]string{"paths": paths}).
		Post("/purge")
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("purge: status %d", resp.StatusCode())
	}

	i.logger.Debug("pages_invalidated", zap.Strings("paths", paths))
	return nil
}
