package episode

import (
	"context"
	"time"
)

// Repository defines persistence for Episode entities.
//
// Transition methods are conditional writes gated on the current status;
// the returned bool reports whether a row actually moved. A false result
// with a nil error means another pass already applied the transition,
// which callers treat as an idempotent no-op.
type Repository interface {
	// FindByID returns (nil, nil) when the id does not exist.
	FindByID(ctx context.Context, id int64) (*Episode, error)

	// FindDue returns every episode whose status implies outstanding
	// reconciliation work, oldest first.
	FindDue(ctx context.Context, limit int) ([]*Episode, error)

	// Create persists a new episode and assigns its ID back.
	Create(ctx context.Context, ep *Episode) error

	// MarkTimedOut moves pending -> failed with a staleness note.
	MarkTimedOut(ctx context.Context, id int64, note string) (bool, error)

	// MarkCompleted moves pending -> completed. AudioURL is untouched.
	MarkCompleted(ctx context.Context, id int64, note string) (bool, error)

	// CheckpointText moves completed -> summary_completed, persisting
	// title and summary in the same write.
	CheckpointText(ctx context.Context, id int64, title, summary string) (bool, error)

	// Publish moves summary_completed -> published, persisting the cover
	// image URL and published_at.
	Publish(ctx context.Context, id int64, coverURL string, publishedAt time.Time) (bool, error)

	// RecordStageFailure stores pipeline diagnostics without advancing
	// status.
	RecordStageFailure(ctx context.Context, id int64, stage, detail string) error
}

// AttemptRepository persists the append-only generation attempt log.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *GenerationAttempt) error
	MarkNotified(ctx context.Context, id int64) error
}
