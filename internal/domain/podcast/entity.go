package podcast

import "time"

// Podcast is the parent entity of episodes. The reconciliation engine
// reads it for notification recipients and page paths only.
type Podcast struct {
	ID         int64  `json:"id,string"`
	Title      string `json:"title"`
	ConfigID   string `json:"config_id"`
	OwnerEmail string `json:"owner_email"`

	// Subscribers receive publish notifications.
	Subscribers []string `json:"subscribers,omitempty"`

	// FeedPath is the presentation-layer page invalidated on publish.
	FeedPath string `json:"feed_path"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PagePaths returns the stale page paths for one of this podcast's
// episodes, used for best-effort cache invalidation.
func (p *Podcast) PagePaths(episodeID int64) []string {
	paths := []string{p.FeedPath}
	if episodeID != 0 {
		paths = append(paths, p.FeedPath+"/episodes")
	}
	return paths
}
