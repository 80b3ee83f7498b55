package postgres

import (
	"encoding/json"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
)

// EpisodeModel is the database DTO with Gorm tags.
type EpisodeModel struct {
	ID          int64  `gorm:"primaryKey"`
	PodcastID   *int64 `gorm:"index"`
	ConfigID    string `gorm:"type:varchar(255)"`
	Status      string `gorm:"type:varchar(50);index"`
	Title       string `gorm:"type:text"`
	AudioURL    string `gorm:"type:text"`
	SummaryText string `gorm:"type:text"`
	StatusNote  string `gorm:"type:text"`
	CoverImage  string `gorm:"type:text"`
	Metadata    string `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

func (EpisodeModel) TableName() string {
	return "episodes"
}

// PodcastModel is the database DTO for podcasts.
type PodcastModel struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"type:varchar(255)"`
	ConfigID    string `gorm:"type:varchar(255)"`
	OwnerEmail  string `gorm:"type:varchar(255)"`
	Subscribers string `gorm:"type:jsonb"`
	FeedPath    string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PodcastModel) TableName() string {
	return "podcasts"
}

// AttemptModel is the database DTO for the generation attempt log.
type AttemptModel struct {
	ID        int64  `gorm:"primaryKey"`
	PodcastID int64  `gorm:"index"`
	EpisodeID *int64
	Source    string `gorm:"type:varchar(50)"`
	Outcome   string `gorm:"type:varchar(50)"`
	Detail    string `gorm:"type:text"`
	Notified  bool
	CreatedAt time.Time
}

func (AttemptModel) TableName() string {
	return "generation_attempts"
}

// Mappers

func episodeToDomain(m EpisodeModel) *episode.Episode {
	var meta map[string]string
	if m.Metadata != "" {
		// A corrupt metadata blob must never sink a read; diagnostics
		// are best-effort.
		_ = json.Unmarshal([]byte(m.Metadata), &meta)
	}
	return &episode.Episode{
		ID:          m.ID,
		PodcastID:   m.PodcastID,
		ConfigID:    m.ConfigID,
		Status:      episode.Status(m.Status),
		Title:       m.Title,
		AudioURL:    m.AudioURL,
		SummaryText: m.SummaryText,
		StatusNote:  m.StatusNote,
		CoverImage:  m.CoverImage,
		Metadata:    meta,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		PublishedAt: m.PublishedAt,
	}
}

func episodeToModel(e *episode.Episode) EpisodeModel {
	// jsonb columns reject the empty string, so default to an empty
	// object.
	meta := "{}"
	if len(e.Metadata) > 0 {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			meta = string(raw)
		}
	}
	return EpisodeModel{
		ID:          e.ID,
		PodcastID:   e.PodcastID,
		ConfigID:    e.ConfigID,
		Status:      string(e.Status),
		Title:       e.Title,
		AudioURL:    e.AudioURL,
		SummaryText: e.SummaryText,
		StatusNote:  e.StatusNote,
		CoverImage:  e.CoverImage,
		Metadata:    meta,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		PublishedAt: e.PublishedAt,
	}
}

func podcastToDomain(m PodcastModel) *podcast.Podcast {
	var subscribers []string
	if m.Subscribers != "" {
		_ = json.Unmarshal([]byte(m.Subscribers), &subscribers)
	}
	return &podcast.Podcast{
		ID:          m.ID,
		Title:       m.Title,
		ConfigID:    m.ConfigID,
		OwnerEmail:  m.OwnerEmail,
		Subscribers: subscribers,
		FeedPath:    m.FeedPath,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func attemptToModel(a *episode.GenerationAttempt) AttemptModel {
	return AttemptModel{
		ID:        a.ID,
		PodcastID: a.PodcastID,
		EpisodeID: a.EpisodeID,
		Source:    string(a.Source),
		Outcome:   string(a.Outcome),
		Detail:    a.Detail,
		Notified:  a.Notified,
		CreatedAt: a.CreatedAt,
	}
}
