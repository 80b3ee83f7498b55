package episode

import (
	"errors"
	"time"
)

// Status represents the lifecycle state of an episode.
type Status string

const (
	StatusPending          Status = "pending"
	StatusCompleted        Status = "completed"
	StatusSummaryCompleted Status = "summary_completed"
	StatusProcessed        Status = "processed"
	StatusPublished        Status = "published"
	StatusFailed           Status = "failed"
)

// ProcessingPhase is the post-processing progress derived from Status.
// It keeps resumption branching exhaustive instead of scattering status
// comparisons through the pipeline.
type ProcessingPhase int

const (
	// PhaseNone means the episode is not eligible for post-processing.
	PhaseNone ProcessingPhase = iota
	// PhaseText means title and summary still have to be generated.
	PhaseText
	// PhaseImage means text is checkpointed and only the cover image remains.
	PhaseImage
	// PhaseDone means the pipeline already ran to completion.
	PhaseDone
)

var (
	ErrInvalidTransition = errors.New("invalid episode status transition")
	ErrNotFound          = errors.New("episode not found")
)

// forwardEdges is the allowed transition table. Terminal statuses have no
// outgoing edges; a same-status "transition" is always a legal no-op.
var forwardEdges = map[Status][]Status{
	StatusPending:          {StatusCompleted, StatusFailed},
	StatusCompleted:        {StatusSummaryCompleted, StatusPublished},
	StatusSummaryCompleted: {StatusPublished},
}

// Episode is the core domain entity.
// It contains no database tags or infrastructure details.
type Episode struct {
	ID        int64  `json:"id,string"`
	PodcastID *int64 `json:"podcast_id,string,omitempty"`
	ConfigID  string `json:"config_id"`

	Status   Status `json:"status"`
	Title    string `json:"title"`
	AudioURL string `json:"audio_url"`

	// SummaryText is the user-facing description; StatusNote carries
	// machine status remarks. The two are deliberately separate columns.
	SummaryText string `json:"summary_text"`
	StatusNote  string `json:"status_note"`

	CoverImage string `json:"cover_image"`

	// Metadata is a diagnostic side-channel (last failed stage and error).
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NewEpisode creates an episode awaiting generation output.
func NewEpisode(podcastID int64, configID string) *Episode {
	now := time.Now().UTC()
	return &Episode{
		PodcastID:  &podcastID,
		ConfigID:   configID,
		Status:     StatusPending,
		StatusNote: "awaiting audio generation",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanTransition reports whether moving from current to target is legal.
// An empty target or a same-status move is treated as a no-op.
func CanTransition(current, target Status) bool {
	if target == "" || current == target {
		return true
	}
	for _, next := range forwardEdges[current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the reconciliation engine owes this status
// any further work.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFailed, StatusProcessed, StatusPublished:
		return true
	}
	return false
}

// DueStatuses are the statuses with outstanding automatic work.
func DueStatuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusSummaryCompleted}
}

// Phase derives post-processing progress from the persisted status.
func (e *Episode) Phase() ProcessingPhase {
	switch e.Status {
	case StatusCompleted:
		return PhaseText
	case StatusSummaryCompleted:
		return PhaseImage
	case StatusPublished, StatusProcessed:
		return PhaseDone
	default:
		return PhaseNone
	}
}

// HasAudio reports whether upstream generation has produced output.
// AudioURL is monotonic: once set it is never cleared.
func (e *Episode) HasAudio() bool {
	return e.AudioURL != ""
}

// PendingExpired reports whether a pending episode has outlived the
// generation timeout, measured from creation.
func (e *Episode) PendingExpired(now time.Time, timeout time.Duration) bool {
	return e.Status == StatusPending && now.Sub(e.CreatedAt) > timeout
}

// MarkCompleted transitions pending -> completed once audio arrived.
func (e *Episode) MarkCompleted() error {
	if !CanTransition(e.Status, StatusCompleted) {
		return ErrInvalidTransition
	}
	e.Status = StatusCompleted
	e.StatusNote = "awaiting post-processing"
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions to the terminal failed status with a note.
func (e *Episode) MarkFailed(note string) error {
	if !CanTransition(e.Status, StatusFailed) {
		return ErrInvalidTransition
	}
	e.Status = StatusFailed
	e.StatusNote = note
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// CheckpointText records the title/summary checkpoint.
func (e *Episode) CheckpointText(title, summary string) error {
	if !CanTransition(e.Status, StatusSummaryCompleted) {
		return ErrInvalidTransition
	}
	e.Title = title
	e.SummaryText = summary
	e.Status = StatusSummaryCompleted
	e.StatusNote = "awaiting cover image"
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkPublished finishes the pipeline.
func (e *Episode) MarkPublished(coverURL string, publishedAt time.Time) error {
	if !CanTransition(e.Status, StatusPublished) {
		return ErrInvalidTransition
	}
	e.CoverImage = coverURL
	e.Status = StatusPublished
	e.StatusNote = ""
	e.PublishedAt = &publishedAt
	e.UpdatedAt = time.Now().UTC()
	return nil
}
