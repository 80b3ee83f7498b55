package postprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/generation"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/storage"
	"github.com/wavecastlabs/wavecast-cloud/internal/outbox"
	"go.uber.org/zap"
)

// Stage identifies one unit of pipeline work for diagnostics.
type Stage string

const (
	StageTranscript  Stage = "transcript"
	StageTitle       Stage = "title"
	StageSummary     Stage = "summary"
	StageCheckpoint  Stage = "checkpoint"
	StageImagePrompt Stage = "image_prompt"
	StageImage       Stage = "image"
	StageUpload      Stage = "upload"
	StagePublish     Stage = "publish"
)

// StageError reports which pipeline stage failed. The episode stays at its
// last checkpoint and is retried on a later reconciliation pass.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options lets callers skip individual stages, e.g. re-running the image
// phase without touching a hand-edited title.
type Options struct {
	SkipTitle   bool
	SkipSummary bool
	SkipImage   bool
}

// Orchestrator runs the completed -> published pipeline for one episode.
//
// Progress is checkpointed through the episode status: title+summary land
// with summary_completed, the cover image with published. A later pass
// resumes from the persisted status, never from in-memory state. The
// orchestrator never marks an episode failed; only the processor's
// timeout path does that.
type Orchestrator struct {
	episodes episode.Repository
	store    storage.ObjectStore
	text     generation.TextGenerator
	images   generation.ImageGenerator
	events   outbox.Enqueuer
	logger   *zap.Logger
	retry    RetryPolicy
	maxChars int
	now      func() time.Time
}

func NewOrchestrator(
	episodes episode.Repository,
	store storage.ObjectStore,
	text generation.TextGenerator,
	images generation.ImageGenerator,
	events outbox.Enqueuer,
	cfg *config.Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		episodes: episodes,
		store:    store,
		text:     text,
		images:   images,
		events:   events,
		logger:   logger.Named("postprocess.orchestrator"),
		retry: RetryPolicy{
			MaxRetries: cfg.TranscriptRetries - 1,
			BaseDelay:  2 * time.Second,
		},
		maxChars: cfg.TranscriptMaxChars,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessCompleted runs the pipeline from the episode's persisted
// checkpoint. Returns the updated episode on success.
func (o *Orchestrator) ProcessCompleted(ctx context.Context, podcastID, episodeID int64, opts Options) (*episode.Episode, error) {
	ep, err := o.episodes.FindByID(ctx, episodeID)
	if err != nil {
		return nil, fmt.Errorf("load episode: %w", err)
	}
	if ep == nil {
		return nil, episode.ErrNotFound
	}

	switch ep.Phase() {
	case episode.PhaseText:
		if err := o.runTextPhase(ctx, podcastID, ep, opts); err != nil {
			return nil, err
		}
		return o.runImagePhase(ctx, podcastID, ep, opts)
	case episode.PhaseImage:
		// Resumption: title and summary are already checkpointed and are
		// not regenerated.
		return o.runImagePhase(ctx, podcastID, ep, opts)
	case episode.PhaseDone:
		return ep, nil
	default:
		return nil, fmt.Errorf("episode %d not eligible for post-processing (status %s)", episodeID, ep.Status)
	}
}

func (o *Orchestrator) runTextPhase(ctx context.Context, podcastID int64, ep *episode.Episode, opts Options) error {
	var raw []byte
	key := storage.TranscriptKey(podcastID, ep.ID)
	err := o.retry.Do(ctx, func() error {
		var getErr error
		raw, getErr = o.store.Get(ctx, key)
		return getErr
	})
	if err != nil {
		return o.stageFail(ctx, ep.ID, StageTranscript, err)
	}
	transcript := NormalizeTranscript(string(raw), o.maxChars)
	if transcript == "" {
		return o.stageFail(ctx, ep.ID, StageTranscript, fmt.Errorf("transcript empty"))
	}

	title := ep.Title
	if !opts.SkipTitle {
		title, err = o.text.Title(ctx, transcript)
		if err != nil {
			return o.stageFail(ctx, ep.ID, StageTitle, err)
		}
	}

	summary := ep.SummaryText
	if !opts.SkipSummary {
		summary, err = o.text.Summary(ctx, transcript)
		if err != nil {
			return o.stageFail(ctx, ep.ID, StageSummary, err)
		}
	}

	applied, err := o.episodes.CheckpointText(ctx, ep.ID, title, summary)
	if err != nil {
		return o.stageFail(ctx, ep.ID, StageCheckpoint, err)
	}
	if !applied {
		// Another pass checkpointed first; its values win.
		fresh, err := o.episodes.FindByID(ctx, ep.ID)
		if err != nil {
			return fmt.Errorf("reload episode: %w", err)
		}
		if fresh != nil {
			*ep = *fresh
		}
		return nil
	}

	if err := ep.CheckpointText(title, summary); err != nil {
		return err
	}
	o.logger.Info("text_checkpoint_written", zap.Int64("episode_id", ep.ID))
	return nil
}

func (o *Orchestrator) runImagePhase(ctx context.Context, podcastID int64, ep *episode.Episode, opts Options) (*episode.Episode, error) {
	if ep.Phase() == episode.PhaseDone {
		return ep, nil
	}

	coverURL := ep.CoverImage
	if !opts.SkipImage {
		prompt, err := o.text.ImagePrompt(ctx, ep.Title, ep.SummaryText)
		if err != nil {
			return nil, o.stageFail(ctx, ep.ID, StageImagePrompt, err)
		}

		img, err := o.images.Generate(ctx, prompt)
		if err != nil {
			return nil, o.stageFail(ctx, ep.ID, StageImage, err)
		}

		coverURL, err = o.store.Put(ctx, storage.CoverKey(podcastID, ep.ID), img, "image/png")
		if err != nil {
			return nil, o.stageFail(ctx, ep.ID, StageUpload, err)
		}
	}

	publishedAt := o.now()
	applied, err := o.episodes.Publish(ctx, ep.ID, coverURL, publishedAt)
	if err != nil {
		return nil, o.stageFail(ctx, ep.ID, StagePublish, err)
	}

	if err := ep.MarkPublished(coverURL, publishedAt); err != nil {
		return nil, err
	}

	if applied {
		if err := o.events.Enqueue(ctx, &outbox.Event{
			EventType: outbox.EventTypeEpisodePublished,
			PodcastID: podcastID,
			EpisodeID: ep.ID,
		}); err != nil {
			// The publish write committed; notification loss is logged,
			// not propagated.
			o.logger.Error("publish_event_enqueue_failed",
				zap.Error(err),
				zap.Int64("episode_id", ep.ID),
			)
		}
		o.logger.Info("episode_published",
			zap.Int64("episode_id", ep.ID),
			zap.Int64("podcast_id", podcastID),
		)
	}

	return ep, nil
}

func (o *Orchestrator) stageFail(ctx context.Context, episodeID int64, stage Stage, cause error) error {
	if err := o.episodes.RecordStageFailure(ctx, episodeID, string(stage), cause.Error()); err != nil {
		o.logger.Warn("stage_failure_record_failed",
			zap.Error(err),
			zap.Int64("episode_id", episodeID),
		)
	}
	return &StageError{Stage: stage, Err: cause}
}
