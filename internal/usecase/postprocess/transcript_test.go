package postprocess

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTranscript(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		maxChars int
		want     string
	}{
		{
			name:     "collapses whitespace",
			raw:      "  hello \n\t world  ",
			maxChars: 100,
			want:     "hello world",
		},
		{
			name:     "truncates to max chars",
			raw:      strings.Repeat("a ", 100),
			maxChars: 10,
			want:     "a a a a a ",
		},
		{
			name:     "whitespace only becomes empty",
			raw:      " \n\t ",
			maxChars: 100,
			want:     "",
		},
		{
			name:     "zero max keeps everything",
			raw:      "keep it all",
			maxChars: 0,
			want:     "keep it all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTranscript(tt.raw, tt.maxChars))
		})
	}
}

func TestRetryPolicy_EventualSuccess(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}

	calls := 0
	wantErr := errors.New("still broken")
	err := policy.Do(context.Background(), func() error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ContextCanceled(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Do(ctx, func() error {
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
