package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"github.com/wavecastlabs/wavecast-cloud/internal/outbox"
	"github.com/wavecastlabs/wavecast-cloud/pkg/genqueue"
	"github.com/wavecastlabs/wavecast-cloud/pkg/snowflake"
	"github.com/wavecastlabs/wavecast-cloud/pkg/testhelper"
	"go.uber.org/zap"
)

type triggerFixture struct {
	episodes *testhelper.MockEpisodeRepository
	attempts *testhelper.MockAttemptRepository
	podcasts *testhelper.MockPodcastRepository
	prober   *testhelper.MockContentProber
	queue    *testhelper.MockTaskEnqueuer
	events   *testhelper.MockEventEnqueuer
	svc      *Service
}

func newTriggerFixture(t *testing.T) *triggerFixture {
	node, err := snowflake.NewNode()
	require.NoError(t, err)

	f := &triggerFixture{
		episodes: testhelper.NewMockEpisodeRepository(),
		attempts: &testhelper.MockAttemptRepository{},
		podcasts: &testhelper.MockPodcastRepository{
			Podcasts: map[int64]*podcast.Podcast{
				7: {ID: 7, Title: "Daily Brief", ConfigID: "cfg-7", OwnerEmail: "owner@test.dev"},
			},
		},
		prober: &testhelper.MockContentProber{HasContent: true},
		queue:  &testhelper.MockTaskEnqueuer{},
		events: &testhelper.MockEventEnqueuer{},
	}
	f.svc = NewService(f.episodes, f.attempts, f.podcasts, f.prober, f.queue, f.events, node, zap.NewNop())
	return f
}

func TestTrigger_CreatesEpisodeAndEnqueues(t *testing.T) {
	f := newTriggerFixture(t)

	attempt, err := f.svc.Trigger(context.Background(), 7, episode.TriggerManualAdmin)
	require.NoError(t, err)

	assert.Equal(t, episode.AttemptSuccess, attempt.Outcome)
	require.NotNil(t, attempt.EpisodeID)

	created := f.episodes.Get(*attempt.EpisodeID)
	require.NotNil(t, created)
	assert.Equal(t, episode.StatusPending, created.Status)
	assert.Equal(t, "cfg-7", created.ConfigID)

	require.Len(t, f.queue.Tasks, 1)
	assert.Equal(t, genqueue.TypeScriptGenerate, f.queue.Tasks[0].Type())

	var payload genqueue.GeneratePayload
	require.NoError(t, json.Unmarshal(f.queue.Tasks[0].Payload(), &payload))
	assert.Equal(t, *attempt.EpisodeID, payload.EpisodeID)
	assert.Equal(t, int64(7), payload.PodcastID)

	require.Len(t, f.attempts.Attempts, 1)
	assert.Equal(t, episode.AttemptSuccess, f.attempts.Attempts[0].Outcome)
}

func TestTrigger_NoNewContent(t *testing.T) {
	f := newTriggerFixture(t)
	f.prober.HasContent = false

	attempt, err := f.svc.Trigger(context.Background(), 7, episode.TriggerCron)
	require.NoError(t, err)

	assert.Equal(t, episode.AttemptNoNewContent, attempt.Outcome)
	assert.Nil(t, attempt.EpisodeID)
	assert.Empty(t, f.queue.Tasks)

	// The owner notice goes through the outbox, tied to this attempt.
	require.Len(t, f.events.Events, 1)
	assert.Equal(t, outbox.EventTypeNoNewContent, f.events.Events[0].EventType)
	assert.Equal(t, attempt.ID, f.events.Events[0].AttemptID)
}

func TestTrigger_ProbeFailure(t *testing.T) {
	f := newTriggerFixture(t)
	f.prober.Err = errors.New("scraper unreachable")

	attempt, err := f.svc.Trigger(context.Background(), 7, episode.TriggerCron)
	require.Error(t, err)

	assert.Equal(t, episode.AttemptFailedProbe, attempt.Outcome)
	assert.Contains(t, attempt.Detail, "scraper unreachable")
	assert.Empty(t, f.queue.Tasks)

	// The failed attempt is still recorded.
	require.Len(t, f.attempts.Attempts, 1)
	assert.Equal(t, episode.AttemptFailedProbe, f.attempts.Attempts[0].Outcome)
}

func TestTrigger_EnqueueFailureKeepsEpisode(t *testing.T) {
	f := newTriggerFixture(t)
	f.queue.Err = errors.New("redis down")

	attempt, err := f.svc.Trigger(context.Background(), 7, episode.TriggerManualAdmin)
	require.Error(t, err)

	assert.Equal(t, episode.AttemptFailedQueue, attempt.Outcome)
	require.NotNil(t, attempt.EpisodeID)

	// The pending episode stays; the reconciler times it out later.
	created := f.episodes.Get(*attempt.EpisodeID)
	require.NotNil(t, created)
	assert.Equal(t, episode.StatusPending, created.Status)
}

func TestTrigger_UnknownPodcast(t *testing.T) {
	f := newTriggerFixture(t)

	attempt, err := f.svc.Trigger(context.Background(), 404, episode.TriggerManualAdmin)
	require.Error(t, err)
	assert.Nil(t, attempt)
	assert.Empty(t, f.attempts.Attempts)
}
