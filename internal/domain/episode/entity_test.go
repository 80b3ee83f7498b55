package episode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEpisode(t *testing.T) {
	ep := NewEpisode(42, "cfg-1")

	assert.Equal(t, int64(42), *ep.PodcastID)
	assert.Equal(t, "cfg-1", ep.ConfigID)
	assert.Equal(t, StatusPending, ep.Status)
	assert.Empty(t, ep.AudioURL)
	assert.NotZero(t, ep.CreatedAt)
	assert.NotZero(t, ep.UpdatedAt)
	assert.Nil(t, ep.PublishedAt)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		target  Status
		want    bool
	}{
		{"same state", StatusPending, StatusPending, true},

		{"pending to completed", StatusPending, StatusCompleted, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"completed to summary_completed", StatusCompleted, StatusSummaryCompleted, true},
		{"completed to published", StatusCompleted, StatusPublished, true},
		{"summary_completed to published", StatusSummaryCompleted, StatusPublished, true},

		// No backward edges.
		{"completed to pending", StatusCompleted, StatusPending, false},
		{"published to completed", StatusPublished, StatusCompleted, false},
		{"summary_completed to completed", StatusSummaryCompleted, StatusCompleted, false},

		// Terminal statuses have no outgoing edges.
		{"failed to completed", StatusFailed, StatusCompleted, false},
		{"published to failed", StatusPublished, StatusFailed, false},
		{"processed to published", StatusProcessed, StatusPublished, false},

		// Pipeline entry is restricted.
		{"pending to published", StatusPending, StatusPublished, false},
		{"pending to summary_completed", StatusPending, StatusSummaryCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.current, tt.target))
		})
	}
}

func TestCanTransition_EmptyTarget(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, ""))
	assert.True(t, CanTransition(StatusFailed, ""))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusProcessed.IsTerminal())
	assert.True(t, StatusPublished.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusSummaryCompleted.IsTerminal())
}

func TestPhase(t *testing.T) {
	tests := []struct {
		status Status
		want   ProcessingPhase
	}{
		{StatusPending, PhaseNone},
		{StatusFailed, PhaseNone},
		{StatusCompleted, PhaseText},
		{StatusSummaryCompleted, PhaseImage},
		{StatusPublished, PhaseDone},
		{StatusProcessed, PhaseDone},
	}
	for _, tt := range tests {
		ep := &Episode{Status: tt.status}
		assert.Equal(t, tt.want, ep.Phase(), "status %s", tt.status)
	}
}

func TestPendingExpired(t *testing.T) {
	now := time.Now().UTC()
	timeout := 30 * time.Minute

	fresh := &Episode{Status: StatusPending, CreatedAt: now.Add(-5 * time.Minute)}
	assert.False(t, fresh.PendingExpired(now, timeout))

	stale := &Episode{Status: StatusPending, CreatedAt: now.Add(-31 * time.Minute)}
	assert.True(t, stale.PendingExpired(now, timeout))

	// Staleness only applies to pending episodes.
	completed := &Episode{Status: StatusCompleted, CreatedAt: now.Add(-2 * time.Hour)}
	assert.False(t, completed.PendingExpired(now, timeout))
}

func TestMarkCompleted_KeepsAudioURL(t *testing.T) {
	ep := NewEpisode(1, "cfg")
	ep.AudioURL = "https://cdn.example.com/a.mp3"

	assert.NoError(t, ep.MarkCompleted())
	assert.Equal(t, StatusCompleted, ep.Status)
	assert.Equal(t, "https://cdn.example.com/a.mp3", ep.AudioURL)
	assert.Equal(t, "awaiting post-processing", ep.StatusNote)
}

func TestMarkFailed_FromTerminal(t *testing.T) {
	ep := &Episode{Status: StatusPublished}
	assert.ErrorIs(t, ep.MarkFailed("timed out"), ErrInvalidTransition)
}

func TestCheckpointThenPublish(t *testing.T) {
	ep := &Episode{Status: StatusCompleted}

	assert.NoError(t, ep.CheckpointText("A Title", "A summary."))
	assert.Equal(t, StatusSummaryCompleted, ep.Status)
	assert.Equal(t, "A Title", ep.Title)
	assert.Equal(t, "A summary.", ep.SummaryText)

	publishedAt := time.Now().UTC()
	assert.NoError(t, ep.MarkPublished("https://cdn.example.com/c.png", publishedAt))
	assert.Equal(t, StatusPublished, ep.Status)
	assert.Equal(t, "https://cdn.example.com/c.png", ep.CoverImage)
	assert.Equal(t, publishedAt, *ep.PublishedAt)
	assert.Empty(t, ep.StatusNote)

	// Publishing twice is rejected at the entity level.
	assert.ErrorIs(t, ep.MarkPublished("x", publishedAt), ErrInvalidTransition)
}
