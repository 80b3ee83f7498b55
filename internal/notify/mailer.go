package notify

import (
	"context"
	"fmt"

	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender sends one transactional email and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) (string, error)
}

// Mailer sends lifecycle notifications. The rate limiter is injected and
// scoped to this instance rather than living in package state, so tests
// and multi-tenant deployments get their own budgets.
type Mailer struct {
	sender  Sender
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewMailer(sender Sender, cfg *config.Config, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(cfg.EmailRatePerMinute)/60, cfg.EmailBurst),
		logger:  logger.Named("notify.mailer"),
	}
}

// PublishNotice emails every subscriber that a new episode is live.
func (m *Mailer) PublishNotice(ctx context.Context, p *podcast.Podcast, ep *episode.Episode) error {
	subject := fmt.Sprintf("New episode: %s", ep.Title)
	html := fmt.Sprintf(
		"<h2>%s</h2><p>%s</p><p><a href=%q>Listen now</a></p>",
		ep.Title, ep.SummaryText, ep.AudioURL,
	)
	text := fmt.Sprintf("%s\n\n%s\n\nListen: %s", ep.Title, ep.SummaryText, ep.AudioURL)

	var firstErr error
	for _, to := range p.Subscribers {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		id, err := m.sender.Send(ctx, to, subject, html, text)
		if err != nil {
			// Keep going; one bad address must not starve the rest.
			if firstErr == nil {
				firstErr = err
			}
			m.logger.Warn("publish_notice_failed",
				zap.Error(err),
				zap.Int64("episode_id", ep.ID),
			)
			continue
		}
		m.logger.Info("publish_notice_sent",
			zap.String("message_id", id),
			zap.Int64("episode_id", ep.ID),
		)
	}
	return firstErr
}

// NoContentNotice tells the podcast owner a scheduled check found nothing
// to generate.
func (m *Mailer) NoContentNotice(ctx context.Context, p *podcast.Podcast) error {
	if p.OwnerEmail == "" {
		return nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	subject := fmt.Sprintf("No new content for %s", p.Title)
	html := fmt.Sprintf(
		"<p>We checked the content source for <b>%s</b> and found nothing new, so no episode was generated.</p>",
		p.Title,
	)
	text := fmt.Sprintf("We checked the content source for %s and found nothing new, so no episode was generated.", p.Title)

	id, err := m.sender.Send(ctx, p.OwnerEmail, subject, html, text)
	if err != nil {
		return fmt.Errorf("no content notice: %w", err)
	}
	m.logger.Info("no_content_notice_sent",
		zap.String("message_id", id),
		zap.Int64("podcast_id", p.ID),
	)
	return nil
}
