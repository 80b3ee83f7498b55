package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"go.uber.org/zap"
)

// recordingSender captures sends and fails selected addresses.
type recordingSender struct {
	recipients []string
	failFor    map[string]error
}

func (s *recordingSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) (string, error) {
	if err, ok := s.failFor[to]; ok {
		return "", err
	}
	s.recipients = append(s.recipients, to)
	return "msg-1", nil
}

func newTestMailer(sender Sender) *Mailer {
	cfg := &config.Config{
		EmailRatePerMinute: 60000,
		EmailBurst:         1000,
	}
	return NewMailer(sender, cfg, zap.NewNop())
}

func TestPublishNotice_AllSubscribers(t *testing.T) {
	sender := &recordingSender{}
	m := newTestMailer(sender)

	pod := &podcast.Podcast{
		ID:          7,
		Title:       "Daily Brief",
		Subscribers: []string{"a@test.dev", "b@test.dev", "c@test.dev"},
	}
	ep := &episode.Episode{ID: 1, Title: "Episode One", SummaryText: "What happened today."}

	err := m.PublishNotice(context.Background(), pod, ep)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@test.dev", "b@test.dev", "c@test.dev"}, sender.recipients)
}

func TestPublishNotice_ContinuesPastFailures(t *testing.T) {
	bounce := errors.New("mailbox full")
	sender := &recordingSender{failFor: map[string]error{"b@test.dev": bounce}}
	m := newTestMailer(sender)

	pod := &podcast.Podcast{
		ID:          7,
		Subscribers: []string{"a@test.dev", "b@test.dev", "c@test.dev"},
	}
	ep := &episode.Episode{ID: 1, Title: "Episode One"}

	err := m.PublishNotice(context.Background(), pod, ep)

	// One bad address must not starve the rest, but is still reported.
	assert.ErrorIs(t, err, bounce)
	assert.Equal(t, []string{"a@test.dev", "c@test.dev"}, sender.recipients)
}

func TestPublishNotice_NoSubscribers(t *testing.T) {
	sender := &recordingSender{}
	m := newTestMailer(sender)

	err := m.PublishNotice(context.Background(), &podcast.Podcast{ID: 7}, &episode.Episode{ID: 1})
	assert.NoError(t, err)
	assert.Empty(t, sender.recipients)
}

func TestNoContentNotice(t *testing.T) {
	sender := &recordingSender{}
	m := newTestMailer(sender)

	pod := &podcast.Podcast{ID: 7, Title: "Daily Brief", OwnerEmail: "owner@test.dev"}

	require.NoError(t, m.NoContentNotice(context.Background(), pod))
	assert.Equal(t, []string{"owner@test.dev"}, sender.recipients)
}

func TestNoContentNotice_NoOwnerEmail(t *testing.T) {
	sender := &recordingSender{}
	m := newTestMailer(sender)

	require.NoError(t, m.NoContentNotice(context.Background(), &podcast.Podcast{ID: 7}))
	assert.Empty(t, sender.recipients)
}
