package postprocess

import (
	"context"
	"strings"
	"time"
)

// RetryPolicy retries an idempotent call with linear backoff.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (r RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.BaseDelay * time.Duration(i+1)):
		}
	}
	return err
}

// NormalizeTranscript collapses runs of whitespace and truncates to
// maxChars, bounding the cost of the downstream generation calls.
func NormalizeTranscript(raw string, maxChars int) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if maxChars > 0 && len(collapsed) > maxChars {
		collapsed = collapsed[:maxChars]
	}
	return collapsed
}
