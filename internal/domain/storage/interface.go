package storage

import (
	"context"
	"fmt"
)

// ObjectStore is the boundary to the object-storage service holding
// generated transcripts and cover images.
type ObjectStore interface {
	// Get reads an object's full contents.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an object and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// TranscriptKey is the canonical key for an episode's transcript.
func TranscriptKey(podcastID, episodeID int64) string {
	return fmt.Sprintf("podcasts/%d/episodes/%d/transcripts/transcript.txt", podcastID, episodeID)
}

// CoverKey is the canonical key for an episode's cover image.
func CoverKey(podcastID, episodeID int64) string {
	return fmt.Sprintf("podcasts/%d/episodes/%d/covers/cover.png", podcastID, episodeID)
}
