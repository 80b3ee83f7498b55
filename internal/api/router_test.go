package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"github.com/wavecastlabs/wavecast-cloud/internal/reconciler"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/lifecycle"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/trigger"
	"github.com/wavecastlabs/wavecast-cloud/pkg/snowflake"
	"github.com/wavecastlabs/wavecast-cloud/pkg/testhelper"
	"go.uber.org/zap"
)

const testToken = "test-admin-token"

type apiFixture struct {
	router   *Router
	episodes *testhelper.MockEpisodeRepository
	prober   *testhelper.MockContentProber
	queue    *testhelper.MockTaskEnqueuer
}

func newAPIFixture(t *testing.T, adminToken string) *apiFixture {
	cfg := &config.Config{
		Port:                  "8080",
		AdminAPIToken:         adminToken,
		PendingTimeout:        30 * time.Minute,
		ReconcileInterval:     5 * time.Minute,
		ReconcileBatchSize:    50,
		PostProcessingEnabled: false,
	}
	logger := zap.NewNop()

	episodes := testhelper.NewMockEpisodeRepository()
	events := &testhelper.MockEventEnqueuer{}
	finder := lifecycle.NewFinder(episodes, cfg, logger)
	processor := lifecycle.NewProcessor(episodes, events, cfg, logger)
	rec := reconciler.NewEpisodeReconciler(finder, processor, nil, cfg, logger)

	node, err := snowflake.NewNode()
	require.NoError(t, err)
	prober := &testhelper.MockContentProber{HasContent: true}
	queue := &testhelper.MockTaskEnqueuer{}
	podcasts := &testhelper.MockPodcastRepository{
		Podcasts: map[int64]*podcast.Podcast{
			7: {ID: 7, Title: "Daily Brief", ConfigID: "cfg-7"},
		},
	}
	svc := trigger.NewService(episodes, &testhelper.MockAttemptRepository{}, podcasts, prober, queue, events, node, logger)

	return &apiFixture{
		router:   NewRouter(cfg, rec, svc, logger),
		episodes: episodes,
		prober:   prober,
		queue:    queue,
	}
}

func (f *apiFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuth_MissingToken(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodGet, "/admin/reconcile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_WrongToken(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodGet, "/admin/reconcile", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_NotConfigured(t *testing.T) {
	f := newAPIFixture(t, "")

	w := f.do(http.MethodGet, "/admin/reconcile", testToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAuth_HeaderToken(t *testing.T) {
	f := newAPIFixture(t, testToken)

	req := httptest.NewRequest(http.MethodGet, "/admin/reconcile", nil)
	req.Header.Set("X-Admin-Token", testToken)
	w := httptest.NewRecorder()
	f.router.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReconcile_Sweep(t *testing.T) {
	f := newAPIFixture(t, testToken)

	pid := int64(7)
	stale := time.Now().UTC().Add(-31 * time.Minute)
	f.episodes.Seed(&episode.Episode{
		PodcastID: &pid,
		Status:    episode.StatusPending,
		CreatedAt: stale,
	})

	w := f.do(http.MethodGet, "/admin/reconcile", testToken)
	require.Equal(t, http.StatusOK, w.Code)

	var summary reconciler.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.TimedOut)
	assert.Empty(t, summary.Errors)
}

func TestReconcile_TargetedUnknownEpisode(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodGet, "/admin/reconcile?episode_id=404", testToken)
	require.Equal(t, http.StatusOK, w.Code)

	var summary reconciler.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "not found")
}

func TestReconcile_InvalidEpisodeID(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodGet, "/admin/reconcile?episode_id=abc", testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerGeneration(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodPost, "/admin/podcasts/7/generate", testToken)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["outcome"])
	assert.Len(t, f.queue.Tasks, 1)
}

func TestTriggerGeneration_NoNewContent(t *testing.T) {
	f := newAPIFixture(t, testToken)
	f.prober.HasContent = false

	w := f.do(http.MethodPost, "/admin/podcasts/7/generate", testToken)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "no_new_content", resp["outcome"])
	assert.Empty(t, f.queue.Tasks)
}

func TestTriggerGeneration_UnknownPodcast(t *testing.T) {
	f := newAPIFixture(t, testToken)

	w := f.do(http.MethodPost, "/admin/podcasts/404/generate", testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
