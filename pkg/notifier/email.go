package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mrz1836/postmark"
)

// EmailConfig holds Postmark configuration for the email channel.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"SUPPORT_EMAIL"`
}

// RecipientResolver maps a tenant to the billing contact address.
// Tenant account data lives outside the engine, so resolution is injected.
type RecipientResolver func(ctx context.Context, tenantID uuid.UUID) (string, error)

// EmailNotifier delivers lifecycle messages over Postmark transactional email.
type EmailNotifier struct {
	client    *postmark.Client
	config    EmailConfig
	recipient RecipientResolver
}

// NewEmailNotifier creates a Postmark-backed notifier. Configuration is
// validated up front so a broken channel fails at startup, not at send time.
func NewEmailNotifier(cfg EmailConfig, recipient RecipientResolver) (*EmailNotifier, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if recipient == nil {
		return nil, fmt.Errorf("%w: RecipientResolver is required", ErrInvalidConfig)
	}

	return &EmailNotifier{
		client:    postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config:    cfg,
		recipient: recipient,
	}, nil
}

func (n *EmailNotifier) Send(ctx context.Context, event Event, tenantID uuid.UUID, payload map[string]any) error {
	to, err := n.recipient(ctx, tenantID)
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}

	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:     n.config.SenderEmail,
		ReplyTo:  n.config.ReplyToEmail,
		To:       to,
		Subject:  subjectFor(event, payload),
		TextBody: bodyFor(event, payload),
		Tag:      string(event),
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func subjectFor(event Event, payload map[string]any) string {
	switch event {
	case EventTrialReminder:
		if days, ok := payload["days_remaining"]; ok {
			return fmt.Sprintf("Your trial ends in %v days", days)
		}
		return "Your trial is ending soon"
	case EventTrialConverted:
		return "Welcome aboard - your subscription is active"
	case EventTrialConvertedToFree:
		return "Your trial ended - you're now on the free plan"
	case EventTrialCancelled:
		return "Your trial has ended"
	case EventTrialExtended:
		return "Your trial has been extended"
	default:
		return "Subscription update"
	}
}

func bodyFor(event Event, payload map[string]any) string {
	body := fmt.Sprintf("Subscription event: %s\n", event)
	for k, v := range payload {
		body += fmt.Sprintf("%s: %v\n", k, v)
	}
	return body
}
