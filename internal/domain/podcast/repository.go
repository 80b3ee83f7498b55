package podcast

import "context"

// Repository defines read access to podcasts.
type Repository interface {
	// FindByID returns (nil, nil) when the id does not exist.
	FindByID(ctx context.Context, id int64) (*Podcast, error)
}
