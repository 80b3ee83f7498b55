package genqueue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task types consumed by the external generation workers. This service is
// producer-only: completion is observed indirectly when audio_url shows up
// on the episode record.
const (
	TypeScriptGenerate = "script:generate"
	TypeAudioGenerate  = "audio:generate"

	QueueGeneration = "generation"
)

// GeneratePayload hands an episode to the external pipeline.
type GeneratePayload struct {
	EpisodeID int64  `json:"episode_id"`
	PodcastID int64  `json:"podcast_id"`
	ConfigID  string `json:"config_id"`
}

func NewScriptGenerateTask(episodeID, podcastID int64, configID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{
		EpisodeID: episodeID,
		PodcastID: podcastID,
		ConfigID:  configID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeScriptGenerate, payload, asynq.Queue(QueueGeneration)), nil
}

func NewAudioGenerateTask(episodeID, podcastID int64, configID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{
		EpisodeID: episodeID,
		PodcastID: podcastID,
		ConfigID:  configID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAudioGenerate, payload, asynq.Queue(QueueGeneration)), nil
}
