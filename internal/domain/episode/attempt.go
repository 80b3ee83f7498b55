package episode

import "time"

// TriggerSource identifies what initiated a generation attempt.
type TriggerSource string

const (
	TriggerCron        TriggerSource = "cron"
	TriggerManualAdmin TriggerSource = "manual_admin"
	TriggerManualUser  TriggerSource = "manual_user"
)

// AttemptOutcome classifies how a generation trigger ended.
type AttemptOutcome string

const (
	AttemptSuccess      AttemptOutcome = "success"
	AttemptFailedProbe  AttemptOutcome = "failed_probe"
	AttemptFailedCreate AttemptOutcome = "failed_create"
	AttemptFailedQueue  AttemptOutcome = "failed_enqueue"
	AttemptNoNewContent AttemptOutcome = "no_new_content"
)

// GenerationAttempt is an append-only log row recording one triggered
// generation. It is written at trigger time and only ever mutated to mark
// the owner notification as sent. Reporting consumes it; the
// reconciliation engine does not.
type GenerationAttempt struct {
	ID        int64          `json:"id,string"`
	PodcastID int64          `json:"podcast_id,string"`
	EpisodeID *int64         `json:"episode_id,string,omitempty"`
	Source    TriggerSource  `json:"source"`
	Outcome   AttemptOutcome `json:"outcome"`
	Detail    string         `json:"detail,omitempty"`
	Notified  bool           `json:"notified"`
	CreatedAt time.Time      `json:"created_at"`
}
