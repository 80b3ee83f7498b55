package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/lifecycle"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/postprocess"
	"github.com/wavecastlabs/wavecast-cloud/pkg/testhelper"
	"go.uber.org/zap"
)

// mockOrchestrator publishes every episode except the ids in failFor.
type mockOrchestrator struct {
	failFor map[int64]error
	calls   []int64
}

func (m *mockOrchestrator) ProcessCompleted(ctx context.Context, podcastID, episodeID int64, opts postprocess.Options) (*episode.Episode, error) {
	m.calls = append(m.calls, episodeID)
	if err, ok := m.failFor[episodeID]; ok {
		return nil, err
	}
	pid := podcastID
	now := time.Now().UTC()
	return &episode.Episode{
		ID:          episodeID,
		PodcastID:   &pid,
		Status:      episode.StatusPublished,
		PublishedAt: &now,
	}, nil
}

type reconcilerFixture struct {
	repo *testhelper.MockEpisodeRepository
	orch *mockOrchestrator
	rec  *EpisodeReconciler
}

func newReconcilerFixture() *reconcilerFixture {
	cfg := &config.Config{
		PendingTimeout:        30 * time.Minute,
		ReconcileInterval:     5 * time.Minute,
		ReconcileBatchSize:    50,
		PostProcessingEnabled: true,
	}
	repo := testhelper.NewMockEpisodeRepository()
	events := &testhelper.MockEventEnqueuer{}
	logger := zap.NewNop()

	orch := &mockOrchestrator{failFor: map[int64]error{}}
	finder := lifecycle.NewFinder(repo, cfg, logger)
	processor := lifecycle.NewProcessor(repo, events, cfg, logger)

	return &reconcilerFixture{
		repo: repo,
		orch: orch,
		rec:  NewEpisodeReconciler(finder, processor, orch, cfg, logger),
	}
}

func (f *reconcilerFixture) seed(status episode.Status, age time.Duration, audioURL string) *episode.Episode {
	pid := int64(7)
	created := time.Now().UTC().Add(-age)
	return f.repo.Seed(&episode.Episode{
		PodcastID: &pid,
		Status:    status,
		AudioURL:  audioURL,
		CreatedAt: created,
		UpdatedAt: created,
	})
}

func TestReconcileAll_Empty(t *testing.T) {
	f := newReconcilerFixture()

	summary := f.rec.ReconcileAll(context.Background())

	assert.Zero(t, summary.Checked)
	assert.NotNil(t, summary.Errors)
	assert.Empty(t, summary.Errors)
}

func TestReconcileAll_MixedStatuses(t *testing.T) {
	f := newReconcilerFixture()

	stale := f.seed(episode.StatusPending, 31*time.Minute, "")
	fresh := f.seed(episode.StatusPending, time.Minute, "")
	ready := f.seed(episode.StatusPending, time.Minute, "https://cdn.test/a.mp3")
	checkpointed := f.seed(episode.StatusSummaryCompleted, time.Hour, "https://cdn.test/b.mp3")
	f.seed(episode.StatusPublished, time.Hour, "https://cdn.test/c.mp3")

	summary := f.rec.ReconcileAll(context.Background())

	// The published episode is not in the due-set.
	assert.Equal(t, 4, summary.Checked)
	assert.Equal(t, 1, summary.TimedOut)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Published)
	assert.Equal(t, 2, summary.RequiresProcessing)
	assert.Empty(t, summary.Errors)

	assert.Equal(t, episode.StatusFailed, f.repo.Get(stale.ID).Status)
	assert.Equal(t, episode.StatusPending, f.repo.Get(fresh.ID).Status)
	assert.Equal(t, episode.StatusCompleted, f.repo.Get(ready.ID).Status)
	_ = checkpointed
}

func TestReconcileAll_OneFailureDoesNotStopThePass(t *testing.T) {
	f := newReconcilerFixture()

	good1 := f.seed(episode.StatusCompleted, time.Hour, "https://cdn.test/a.mp3")
	bad := f.seed(episode.StatusCompleted, time.Hour, "https://cdn.test/b.mp3")
	good2 := f.seed(episode.StatusCompleted, time.Hour, "https://cdn.test/c.mp3")
	f.orch.failFor[bad.ID] = errors.New("image service down")

	summary := f.rec.ReconcileAll(context.Background())

	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 2, summary.Published)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "image service down")

	// Every due episode was attempted despite the failure in the middle.
	assert.ElementsMatch(t, []int64{good1.ID, bad.ID, good2.ID}, f.orch.calls)
}

func TestReconcileOne(t *testing.T) {
	f := newReconcilerFixture()

	ep := f.seed(episode.StatusCompleted, time.Hour, "https://cdn.test/a.mp3")

	summary := f.rec.ReconcileOne(context.Background(), ep.ID)

	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Published)
	assert.Equal(t, 1, summary.RequiresProcessing)
	assert.Empty(t, summary.Errors)
}

func TestReconcileOne_NotFound(t *testing.T) {
	f := newReconcilerFixture()

	summary := f.rec.ReconcileOne(context.Background(), 404)

	assert.Zero(t, summary.Checked)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "not found")
}

func TestReconcileOne_TerminalEpisodeIsNoOp(t *testing.T) {
	f := newReconcilerFixture()

	ep := f.seed(episode.StatusPublished, time.Hour, "https://cdn.test/a.mp3")

	summary := f.rec.ReconcileOne(context.Background(), ep.ID)

	assert.Equal(t, 1, summary.Checked)
	assert.Zero(t, summary.Published)
	assert.Empty(t, summary.Errors)
	assert.Empty(t, f.orch.calls)
}
