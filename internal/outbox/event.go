package outbox

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type EventType string

type EventStatus string

const (
	// EventTypeEpisodePublished fans out to subscriber email and page
	// invalidation after the publish write committed.
	EventTypeEpisodePublished EventType = "episode_published"

	// EventTypeCacheInvalidate marks presentation pages stale after a
	// pending -> completed transition.
	EventTypeCacheInvalidate EventType = "cache_invalidate"

	// EventTypeNoNewContent sends the owner a "nothing to generate"
	// notice after a content probe came back empty.
	EventTypeNoNewContent EventType = "no_new_content"
)

const (
	StatusPending    EventStatus = "pending"
	StatusProcessing EventStatus = "processing"
	StatusCompleted  EventStatus = "completed"
	StatusFailed     EventStatus = "failed"
)

// Event is a durable outbox entry for post-commit side effects. The state
// machine only ever writes rows here; delivery happens asynchronously so
// a failing mail or cache call can never roll back an episode transition.
type Event struct {
	ID            int64     `gorm:"primaryKey"`
	EventType     EventType `gorm:"type:varchar(100);not null"`
	PodcastID     int64     `gorm:"not null"`
	EpisodeID     int64
	AttemptID     int64
	Status        EventStatus `gorm:"type:varchar(50);not null"`
	Attempts      int         `gorm:"not null;default:0"`
	LastError     string      `gorm:"type:text"`
	LockedAt      *time.Time
	NextAttemptAt *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Event) TableName() string {
	return "outbox_events"
}

// Enqueuer is the write side handed to the state machine and trigger
// service.
type Enqueuer interface {
	Enqueue(ctx context.Context, event *Event) error
}

// Store persists outbox events.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Enqueue(ctx context.Context, event *Event) error {
	now := time.Now().UTC()
	event.Status = StatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	return s.db.WithContext(ctx).Create(event).Error
}
