package lifecycle

import (
	"context"

	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"go.uber.org/zap"
)

// Finder is the read side of reconciliation. It degrades instead of
// failing: a broken datastore yields an empty due-set so one unavailable
// dependency never halts the whole pass.
type Finder struct {
	episodes  episode.Repository
	logger    *zap.Logger
	batchSize int
}

func NewFinder(episodes episode.Repository, cfg *config.Config, logger *zap.Logger) *Finder {
	return &Finder{
		episodes:  episodes,
		logger:    logger.Named("episode.finder"),
		batchSize: cfg.ReconcileBatchSize,
	}
}

// FindByID returns nil on a missing id and on query failure.
func (f *Finder) FindByID(ctx context.Context, id int64) *episode.Episode {
	ep, err := f.episodes.FindByID(ctx, id)
	if err != nil {
		f.logger.Warn("find_by_id_failed", zap.Error(err), zap.Int64("episode_id", id))
		return nil
	}
	return ep
}

// FindDue returns every episode with outstanding work, or an empty slice
// on query failure.
func (f *Finder) FindDue(ctx context.Context) []*episode.Episode {
	due, err := f.episodes.FindDue(ctx, f.batchSize)
	if err != nil {
		f.logger.Warn("find_due_failed", zap.Error(err))
		return nil
	}
	return due
}
