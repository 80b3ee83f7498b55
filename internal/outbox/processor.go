package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is the transactional email side of event delivery.
type Notifier interface {
	PublishNotice(ctx context.Context, p *podcast.Podcast, ep *episode.Episode) error
	NoContentNotice(ctx context.Context, p *podcast.Podcast) error
}

// PageInvalidator tells the presentation layer that page paths are stale.
type PageInvalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

type Processor struct {
	db           *gorm.DB
	episodes     episode.Repository
	attempts     episode.AttemptRepository
	podcasts     podcast.Repository
	notifier     Notifier
	invalidator  PageInvalidator
	logger       *zap.Logger
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
}

func NewProcessor(
	db *gorm.DB,
	episodes episode.Repository,
	attempts episode.AttemptRepository,
	podcasts podcast.Repository,
	notifier Notifier,
	invalidator PageInvalidator,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		episodes:     episodes,
		attempts:     attempts,
		podcasts:     podcasts,
		notifier:     notifier,
		invalidator:  invalidator,
		logger:       logger.Named("outbox.processor"),
		pollInterval: 5 * time.Second,
		batchSize:    5,
		maxAttempts:  10,
	}
}

// Run polls the outbox so side effects happen after durable writes,
// keeping episode state authoritative.
func (p *Processor) Run(ctx context.Context) {
	if err := p.processBatch(ctx); err != nil {
		p.logger.Error("outbox_initial_poll_failed", zap.Error(err))
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("outbox_poll_failed", zap.Error(err))
			}
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) error {
	events, err := p.fetchAndLockPending(ctx)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error("outbox_event_processing_failed",
				zap.Error(err),
				zap.Int64("event_id", event.ID),
				zap.String("event_type", string(event.EventType)),
			)
		}
	}

	return nil
}

func (p *Processor) fetchAndLockPending(ctx context.Context) ([]Event, error) {
	var events []Event
	now := time.Now().UTC()

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(
			`SELECT * FROM outbox_events
			 WHERE status IN (?, ?)
			   AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
			   AND attempts < ?
			 ORDER BY created_at ASC
			 LIMIT ?
			 FOR UPDATE SKIP LOCKED`,
			StatusPending,
			StatusFailed,
			now,
			p.maxAttempts,
			p.batchSize,
		).Scan(&events).Error; err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(events))
		for i := range events {
			ids = append(ids, events[i].ID)
			events[i].Attempts++
		}

		return tx.Model(&Event{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":     StatusProcessing,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"updated_at": now,
				"last_error": nil,
			}).Error
	})

	return events, err
}

func (p *Processor) processEvent(ctx context.Context, event Event) error {
	switch event.EventType {
	case EventTypeEpisodePublished:
		return p.handleEpisodePublished(ctx, event)
	case EventTypeCacheInvalidate:
		return p.handleCacheInvalidate(ctx, event)
	case EventTypeNoNewContent:
		return p.handleNoNewContent(ctx, event)
	default:
		return p.markEventFailed(ctx, event, fmt.Errorf("unsupported event type: %s", event.EventType))
	}
}

func (p *Processor) handleEpisodePublished(ctx context.Context, event Event) error {
	pod, ep, err := p.loadPair(ctx, event)
	if err != nil {
		return p.markEventFailed(ctx, event, err)
	}

	if err := p.notifier.PublishNotice(ctx, pod, ep); err != nil {
		return p.markEventFailed(ctx, event, fmt.Errorf("publish notice: %w", err))
	}

	// Invalidation is best-effort; a stale page never blocks delivery.
	if err := p.invalidator.Invalidate(ctx, pod.PagePaths(event.EpisodeID)...); err != nil {
		p.logger.Warn("cache_invalidate_failed",
			zap.Error(err),
			zap.Int64("episode_id", event.EpisodeID),
		)
	}

	return p.markEventCompleted(ctx, event.ID)
}

func (p *Processor) handleCacheInvalidate(ctx context.Context, event Event) error {
	pod, _, err := p.loadPair(ctx, event)
	if err != nil {
		return p.markEventFailed(ctx, event, err)
	}

	if err := p.invalidator.Invalidate(ctx, pod.PagePaths(event.EpisodeID)...); err != nil {
		return p.markEventFailed(ctx, event, fmt.Errorf("invalidate: %w", err))
	}
	return p.markEventCompleted(ctx, event.ID)
}

func (p *Processor) handleNoNewContent(ctx context.Context, event Event) error {
	pod, err := p.podcasts.FindByID(ctx, event.PodcastID)
	if err != nil {
		return p.markEventFailed(ctx, event, fmt.Errorf("load podcast: %w", err))
	}
	if pod == nil {
		return p.markEventFailed(ctx, event, fmt.Errorf("podcast not found"))
	}

	if err := p.notifier.NoContentNotice(ctx, pod); err != nil {
		return p.markEventFailed(ctx, event, fmt.Errorf("no content notice: %w", err))
	}

	if event.AttemptID != 0 {
		if err := p.attempts.MarkNotified(ctx, event.AttemptID); err != nil {
			p.logger.Warn("attempt_mark_notified_failed",
				zap.Error(err),
				zap.Int64("attempt_id", event.AttemptID),
			)
		}
	}

	return p.markEventCompleted(ctx, event.ID)
}

func (p *Processor) loadPair(ctx context.Context, event Event) (*podcast.Podcast, *episode.Episode, error) {
	pod, err := p.podcasts.FindByID(ctx, event.PodcastID)
	if err != nil {
		return nil, nil, fmt.Errorf("load podcast: %w", err)
	}
	if pod == nil {
		return nil, nil, fmt.Errorf("podcast not found")
	}

	ep, err := p.episodes.FindByID(ctx, event.EpisodeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load episode: %w", err)
	}
	if ep == nil {
		return nil, nil, fmt.Errorf("episode not found")
	}
	if ep.PodcastID == nil || *ep.PodcastID != event.PodcastID {
		return nil, nil, fmt.Errorf("episode podcast mismatch")
	}

	return pod, ep, nil
}

func (p *Processor) markEventCompleted(ctx context.Context, eventID int64) error {
	now := time.Now().UTC()
	return p.db.WithContext(ctx).Model(&Event{}).
		Where("id = ? AND status = ?", eventID, StatusProcessing).
		Updates(map[string]any{
			"status":       StatusCompleted,
			"processed_at": now,
			"updated_at":   now,
			"last_error":   nil,
		}).Error
}

// markEventFailed schedules a retry. Episode state is never touched here:
// a failed side effect must not roll back a committed transition.
func (p *Processor) markEventFailed(ctx context.Context, event Event, err error) error {
	if err == nil {
		return nil
	}

	now := time.Now().UTC()
	nextAttempt := now.Add(backoffDuration(event.Attempts))

	updateErr := p.db.WithContext(ctx).Model(&Event{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"status":          StatusFailed,
			"last_error":      err.Error(),
			"next_attempt_at": nextAttempt,
			"updated_at":      now,
		}).Error
	if updateErr != nil {
		return fmt.Errorf("mark event failed: %w (original error: %v)", updateErr, err)
	}
	return err
}

func backoffDuration(attempt int) time.Duration {
	if attempt <= 1 {
		return 10 * time.Second
	}

	maxBackoff := 5 * time.Minute
	base := 10 * time.Second
	shift := attempt - 1
	if shift > 6 {
		shift = 6
	}

	d := base * time.Duration(1<<shift)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
