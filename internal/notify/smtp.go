package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender on go-mail.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.SMTPUser),
		gomail.WithPassword(cfg.SMTPPassword),
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.SMTPFrom}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) (string, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return "", fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return "", fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)

	messageID := uuid.NewString()
	msg.SetMessageIDWithValue(messageID)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}
	return messageID, nil
}
