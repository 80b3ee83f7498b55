package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"gorm.io/gorm"
)

// EpisodeRepository implements episode.Repository on postgres.
//
// Transition methods are conditional UPDATEs gated on the current status,
// so concurrent reconciliation passes collapse into one applied write and
// any number of harmless no-ops.
type EpisodeRepository struct {
	db *gorm.DB
}

func NewEpisodeRepository(db *gorm.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

func (r *EpisodeRepository) FindByID(ctx context.Context, id int64) (*episode.Episode, error) {
	var model EpisodeModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return episodeToDomain(model), nil
}

func (r *EpisodeRepository) FindDue(ctx context.Context, limit int) ([]*episode.Episode, error) {
	statuses := episode.DueStatuses()
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	query := r.db.WithContext(ctx).Where("status IN ?", values).Order("created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []EpisodeModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*episode.Episode, 0, len(models))
	for _, model := range models {
		items = append(items, episodeToDomain(model))
	}
	return items, nil
}

func (r *EpisodeRepository) Create(ctx context.Context, ep *episode.Episode) error {
	model := episodeToModel(ep)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	ep.ID = model.ID
	return nil
}

func (r *EpisodeRepository) MarkTimedOut(ctx context.Context, id int64, note string) (bool, error) {
	return r.transition(ctx, id,
		[]episode.Status{episode.StatusPending},
		map[string]any{
			"status":      string(episode.StatusFailed),
			"status_note": note,
		})
}

func (r *EpisodeRepository) MarkCompleted(ctx context.Context, id int64, note string) (bool, error) {
	// audio_url is deliberately absent from the update set: it is owned
	// by the external worker and monotonic once written.
	return r.transition(ctx, id,
		[]episode.Status{episode.StatusPending},
		map[string]any{
			"status":      string(episode.StatusCompleted),
			"status_note": note,
		})
}

func (r *EpisodeRepository) CheckpointText(ctx context.Context, id int64, title, summary string) (bool, error) {
	return r.transition(ctx, id,
		[]episode.Status{episode.StatusCompleted},
		map[string]any{
			"status":       string(episode.StatusSummaryCompleted),
			"title":        title,
			"summary_text": summary,
			"status_note":  "awaiting cover image",
		})
}

func (r *EpisodeRepository) Publish(ctx context.Context, id int64, coverURL string, publishedAt time.Time) (bool, error) {
	return r.transition(ctx, id,
		[]episode.Status{episode.StatusSummaryCompleted},
		map[string]any{
			"status":       string(episode.StatusPublished),
			"cover_image":  coverURL,
			"status_note":  "",
			"published_at": publishedAt,
		})
}

func (r *EpisodeRepository) RecordStageFailure(ctx context.Context, id int64, stage, detail string) error {
	meta, err := json.Marshal(map[string]string{
		"last_stage": stage,
		"last_error": detail,
	})
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&EpisodeModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"metadata":    string(meta),
			"status_note": "post-processing failed at " + stage,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *EpisodeRepository) transition(ctx context.Context, id int64, allowed []episode.Status, updates map[string]any) (bool, error) {
	values := make([]string, 0, len(allowed))
	for _, status := range allowed {
		values = append(values, string(status))
	}
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&EpisodeModel{}).
		Where("id = ? AND status IN ?", id, values).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PodcastRepository implements podcast.Repository on postgres.
type PodcastRepository struct {
	db *gorm.DB
}

func NewPodcastRepository(db *gorm.DB) *PodcastRepository {
	return &PodcastRepository{db: db}
}

func (r *PodcastRepository) FindByID(ctx context.Context, id int64) (*podcast.Podcast, error) {
	var model PodcastModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return podcastToDomain(model), nil
}

// AttemptRepository implements episode.AttemptRepository on postgres.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *episode.GenerationAttempt) error {
	model := attemptToModel(attempt)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	attempt.ID = model.ID
	return nil
}

func (r *AttemptRepository) MarkNotified(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&AttemptModel{}).
		Where("id = ?", id).
		Update("notified", true).Error
}
