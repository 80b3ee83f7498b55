package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/outbox"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/postprocess"
	"go.uber.org/zap"
)

// Outcome classifies what one processing attempt did to an episode.
// OutcomeFailed reports a failed attempt, not the episode's data state:
// an unexpected error leaves the persisted status untouched.
type Outcome string

const (
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCompleted Outcome = "completed"
	OutcomeProcessed Outcome = "processed"
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
	OutcomeNoChange  Outcome = "no_change"
)

const timeoutNote = "timed out waiting for audio generation"

// Result is the outcome of one processing attempt. Err may accompany a
// non-failed outcome, e.g. a pending episode that completed but whose
// immediate post-processing attempt did not go through.
type Result struct {
	Outcome Outcome
	Err     error
}

// Orchestrator is the post-processing pipeline boundary, satisfied by
// postprocess.Orchestrator and mocked in tests.
type Orchestrator interface {
	ProcessCompleted(ctx context.Context, podcastID, episodeID int64, opts postprocess.Options) (*episode.Episode, error)
}

// Processor decides and applies exactly one state transition per episode
// per pass. All writes are status-gated in the repository, so a
// concurrent pass degrades into a no-op rather than a double transition.
type Processor struct {
	episodes episode.Repository
	events   outbox.Enqueuer
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewProcessor(episodes episode.Repository, events outbox.Enqueuer, cfg *config.Config, logger *zap.Logger) *Processor {
	return &Processor{
		episodes: episodes,
		events:   events,
		logger:   logger.Named("episode.processor"),
		timeout:  cfg.PendingTimeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Process runs one pass over one episode.
func (p *Processor) Process(ctx context.Context, ep *episode.Episode, orch Orchestrator, orchEnabled bool) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("process_panic",
				zap.Any("panic", r),
				zap.Int64("episode_id", ep.ID),
			)
			res = Result{Outcome: OutcomeFailed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch ep.Status {
	case episode.StatusPending:
		return p.processPending(ctx, ep, orch, orchEnabled)
	case episode.StatusCompleted, episode.StatusSummaryCompleted:
		return p.runPipeline(ctx, ep, orch, orchEnabled)
	default:
		// failed, processed and published are terminal for the engine.
		return Result{Outcome: OutcomeNoChange}
	}
}

func (p *Processor) processPending(ctx context.Context, ep *episode.Episode, orch Orchestrator, orchEnabled bool) Result {
	// The staleness check outranks everything else: an episode that
	// barely missed its deadline fails even if audio just arrived.
	if ep.PendingExpired(p.now(), p.timeout) {
		applied, err := p.episodes.MarkTimedOut(ctx, ep.ID, timeoutNote)
		if err != nil {
			return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("mark timed out: %w", err)}
		}
		if !applied {
			return Result{Outcome: OutcomeNoChange}
		}
		_ = ep.MarkFailed(timeoutNote)
		p.logger.Info("episode_timed_out", zap.Int64("episode_id", ep.ID))
		return Result{Outcome: OutcomeTimedOut}
	}

	if !ep.HasAudio() {
		return Result{Outcome: OutcomeNoChange}
	}

	applied, err := p.episodes.MarkCompleted(ctx, ep.ID, "awaiting post-processing")
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("mark completed: %w", err)}
	}
	if !applied {
		return Result{Outcome: OutcomeNoChange}
	}
	if err := ep.MarkCompleted(); err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	p.logger.Info("episode_completed", zap.Int64("episode_id", ep.ID))

	if ep.PodcastID != nil {
		if err := p.events.Enqueue(ctx, &outbox.Event{
			EventType: outbox.EventTypeCacheInvalidate,
			PodcastID: *ep.PodcastID,
			EpisodeID: ep.ID,
		}); err != nil {
			p.logger.Warn("cache_event_enqueue_failed",
				zap.Error(err),
				zap.Int64("episode_id", ep.ID),
			)
		}
	}

	// The pipeline is cheap relative to the reconciliation interval, so
	// attempt it now instead of waiting a full pass. The transition to
	// completed stands either way; a pipeline error rides along as a
	// warning.
	if orchEnabled && orch != nil && ep.PodcastID != nil {
		if _, err := orch.ProcessCompleted(ctx, *ep.PodcastID, ep.ID, postprocess.Options{}); err != nil {
			return Result{Outcome: OutcomeCompleted, Err: err}
		}
	}
	return Result{Outcome: OutcomeCompleted}
}

func (p *Processor) runPipeline(ctx context.Context, ep *episode.Episode, orch Orchestrator, orchEnabled bool) Result {
	if !orchEnabled || orch == nil {
		return Result{Outcome: OutcomeNoChange}
	}
	if ep.PodcastID == nil {
		return Result{Outcome: OutcomeNoChange, Err: fmt.Errorf("episode %d has no podcast", ep.ID)}
	}

	updated, err := orch.ProcessCompleted(ctx, *ep.PodcastID, ep.ID, postprocess.Options{})
	if err != nil {
		return Result{Outcome: OutcomeNoChange, Err: err}
	}
	*ep = *updated
	return Result{Outcome: OutcomePublished}
}

// RequiresProcessing is the pre-pass observability heuristic: would this
// episode get work done if processed right now?
func (p *Processor) RequiresProcessing(ep *episode.Episode) bool {
	switch ep.Status {
	case episode.StatusCompleted, episode.StatusSummaryCompleted:
		return true
	case episode.StatusPending:
		return ep.HasAudio() && !ep.PendingExpired(p.now(), p.timeout)
	default:
		return false
	}
}
