package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/source"
	"github.com/wavecastlabs/wavecast-cloud/internal/outbox"
	"github.com/wavecastlabs/wavecast-cloud/pkg/genqueue"
	"github.com/wavecastlabs/wavecast-cloud/pkg/snowflake"
	"go.uber.org/zap"
)

// Service triggers generation for a podcast: it probes the content
// source, creates the pending episode and hands it to the external
// workers over the queue. Every trigger is recorded as an append-only
// GenerationAttempt row regardless of how it ends.
type Service struct {
	episodes episode.Repository
	attempts episode.AttemptRepository
	podcasts podcast.Repository
	prober   source.ContentProber
	queue    genqueue.TaskEnqueuer
	events   outbox.Enqueuer
	node     *snowflake.Node
	logger   *zap.Logger
}

func NewService(
	episodes episode.Repository,
	attempts episode.AttemptRepository,
	podcasts podcast.Repository,
	prober source.ContentProber,
	queue genqueue.TaskEnqueuer,
	events outbox.Enqueuer,
	node *snowflake.Node,
	logger *zap.Logger,
) *Service {
	return &Service{
		episodes: episodes,
		attempts: attempts,
		podcasts: podcasts,
		prober:   prober,
		queue:    queue,
		events:   events,
		node:     node,
		logger:   logger.Named("trigger.service"),
	}
}

// Trigger runs one generation trigger for the podcast. The returned
// attempt describes the outcome even when err is non-nil.
func (s *Service) Trigger(ctx context.Context, podcastID int64, src episode.TriggerSource) (*episode.GenerationAttempt, error) {
	pod, err := s.podcasts.FindByID(ctx, podcastID)
	if err != nil {
		return nil, fmt.Errorf("load podcast: %w", err)
	}
	if pod == nil {
		return nil, fmt.Errorf("podcast %d not found", podcastID)
	}

	attempt := &episode.GenerationAttempt{
		ID:        s.node.GenerateID(),
		PodcastID: podcastID,
		Source:    src,
		CreatedAt: time.Now().UTC(),
	}

	hasContent, err := s.prober.HasNewContent(ctx, pod.ConfigID)
	if err != nil {
		return s.finish(ctx, attempt, episode.AttemptFailedProbe, err)
	}

	if !hasContent {
		attempt.Outcome = episode.AttemptNoNewContent
		if err := s.attempts.Create(ctx, attempt); err != nil {
			return attempt, fmt.Errorf("record attempt: %w", err)
		}
		if err := s.events.Enqueue(ctx, &outbox.Event{
			EventType: outbox.EventTypeNoNewContent,
			PodcastID: podcastID,
			AttemptID: attempt.ID,
		}); err != nil {
			s.logger.Warn("no_content_event_enqueue_failed",
				zap.Error(err),
				zap.Int64("podcast_id", podcastID),
			)
		}
		s.logger.Info("no_new_content", zap.Int64("podcast_id", podcastID))
		return attempt, nil
	}

	ep := episode.NewEpisode(podcastID, pod.ConfigID)
	ep.ID = s.node.GenerateID()
	if err := s.episodes.Create(ctx, ep); err != nil {
		return s.finish(ctx, attempt, episode.AttemptFailedCreate, err)
	}
	attempt.EpisodeID = &ep.ID

	task, err := genqueue.NewScriptGenerateTask(ep.ID, podcastID, pod.ConfigID)
	if err != nil {
		return s.finish(ctx, attempt, episode.AttemptFailedQueue, err)
	}
	if _, err := s.queue.Enqueue(task); err != nil {
		return s.finish(ctx, attempt, episode.AttemptFailedQueue, err)
	}

	attempt.Outcome = episode.AttemptSuccess
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return attempt, fmt.Errorf("record attempt: %w", err)
	}
	s.logger.Info("generation_triggered",
		zap.Int64("podcast_id", podcastID),
		zap.Int64("episode_id", ep.ID),
		zap.String("source", string(src)),
	)
	return attempt, nil
}

func (s *Service) finish(ctx context.Context, attempt *episode.GenerationAttempt, outcome episode.AttemptOutcome, cause error) (*episode.GenerationAttempt, error) {
	attempt.Outcome = outcome
	attempt.Detail = cause.Error()
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Warn("attempt_record_failed", zap.Error(err))
	}
	return attempt, cause
}
