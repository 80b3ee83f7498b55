package testhelper

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
)

// MockEpisodeRepository is an in-memory episode.Repository. Transition
// methods apply the same status gating as the real conditional UPDATEs,
// so concurrency no-ops behave like production.
type MockEpisodeRepository struct {
	mu       sync.Mutex
	episodes map[int64]*episode.Episode
	nextID   int64

	FindErr       error
	TransitionErr error

	TimedOutCalls   []int64
	CompletedCalls  []int64
	CheckpointCalls []int64
	PublishCalls    []int64
	FailureCalls    []string
}

func NewMockEpisodeRepository() *MockEpisodeRepository {
	return &MockEpisodeRepository{
		episodes: make(map[int64]*episode.Episode),
		nextID:   1,
	}
}

// Seed stores a copy of the episode, assigning an ID when unset.
func (m *MockEpisodeRepository) Seed(ep *episode.Episode) *episode.Episode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ep.ID == 0 {
		ep.ID = m.nextID
		m.nextID++
	}
	cp := *ep
	m.episodes[ep.ID] = &cp
	return ep
}

// Get returns the stored state for assertions.
func (m *MockEpisodeRepository) Get(id int64) *episode.Episode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ep, ok := m.episodes[id]; ok {
		cp := *ep
		return &cp
	}
	return nil
}

func (m *MockEpisodeRepository) FindByID(ctx context.Context, id int64) (*episode.Episode, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	return m.Get(id), nil
}

func (m *MockEpisodeRepository) FindDue(ctx context.Context, limit int) ([]*episode.Episode, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*episode.Episode
	for _, ep := range m.episodes {
		for _, st := range episode.DueStatuses() {
			if ep.Status == st {
				cp := *ep
				due = append(due, &cp)
			}
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockEpisodeRepository) Create(ctx context.Context, ep *episode.Episode) error {
	if m.TransitionErr != nil {
		return m.TransitionErr
	}
	m.Seed(ep)
	return nil
}

func (m *MockEpisodeRepository) MarkTimedOut(ctx context.Context, id int64, note string) (bool, error) {
	m.TimedOutCalls = append(m.TimedOutCalls, id)
	return m.transition(id, []episode.Status{episode.StatusPending}, func(ep *episode.Episode) {
		ep.Status = episode.StatusFailed
		ep.StatusNote = note
	})
}

func (m *MockEpisodeRepository) MarkCompleted(ctx context.Context, id int64, note string) (bool, error) {
	m.CompletedCalls = append(m.CompletedCalls, id)
	return m.transition(id, []episode.Status{episode.StatusPending}, func(ep *episode.Episode) {
		ep.Status = episode.StatusCompleted
		ep.StatusNote = note
	})
}

func (m *MockEpisodeRepository) CheckpointText(ctx context.Context, id int64, title, summary string) (bool, error) {
	m.CheckpointCalls = append(m.CheckpointCalls, id)
	return m.transition(id, []episode.Status{episode.StatusCompleted}, func(ep *episode.Episode) {
		ep.Status = episode.StatusSummaryCompleted
		ep.Title = title
		ep.SummaryText = summary
	})
}

func (m *MockEpisodeRepository) Publish(ctx context.Context, id int64, coverURL string, publishedAt time.Time) (bool, error) {
	m.PublishCalls = append(m.PublishCalls, id)
	return m.transition(id, []episode.Status{episode.StatusSummaryCompleted}, func(ep *episode.Episode) {
		ep.Status = episode.StatusPublished
		ep.CoverImage = coverURL
		at := publishedAt
		ep.PublishedAt = &at
	})
}

func (m *MockEpisodeRepository) RecordStageFailure(ctx context.Context, id int64, stage, detail string) error {
	m.FailureCalls = append(m.FailureCalls, stage)
	m.mu.Lock()
	defer m.mu.Unlock()
	if ep, ok := m.episodes[id]; ok {
		if ep.Metadata == nil {
			ep.Metadata = make(map[string]string)
		}
		ep.Metadata["last_stage"] = stage
		ep.Metadata["last_error"] = detail
	}
	return nil
}

func (m *MockEpisodeRepository) transition(id int64, allowed []episode.Status, apply func(*episode.Episode)) (bool, error) {
	if m.TransitionErr != nil {
		return false, m.TransitionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.episodes[id]
	if !ok {
		return false, nil
	}
	for _, st := range allowed {
		if ep.Status == st {
			apply(ep)
			ep.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// MockAttemptRepository records generation attempts in memory.
type MockAttemptRepository struct {
	mu        sync.Mutex
	Attempts  []*episode.GenerationAttempt
	Notified  []int64
	CreateErr error
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *episode.GenerationAttempt) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *attempt
	m.Attempts = append(m.Attempts, &cp)
	return nil
}

func (m *MockAttemptRepository) MarkNotified(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, id)
	return nil
}

// MockPodcastRepository serves seeded podcasts.
type MockPodcastRepository struct {
	Podcasts map[int64]*podcast.Podcast
	FindErr  error
}

func (m *MockPodcastRepository) FindByID(ctx context.Context, id int64) (*podcast.Podcast, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	return m.Podcasts[id], nil
}
