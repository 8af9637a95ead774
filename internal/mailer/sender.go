package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/content"
	"github.com/pepedome/backend/internal/newsletter"
	"github.com/pepedome/backend/internal/pkg/logger"
	"github.com/pepedome/backend/internal/subscriber"
	"github.com/pepedome/backend/internal/tracking"
)

// Sender runs a full newsletter send: resolve content, render per
// recipient, deliver, then finalize the newsletter with the exact count of
// accepted recipients.
type Sender struct {
	newsletters *newsletter.Store
	subscribers *subscriber.Store
	catalog     *content.Store
	renderer    *Renderer
	client      Client
	signer      *tracking.Signer

	siteName  string
	siteURL   string
	batchSize int
	log       *logger.Logger
}

// NewSender wires a sender.
func NewSender(newsletters *newsletter.Store, subscribers *subscriber.Store,
	catalog *content.Store, renderer *Renderer, client Client,
	signer *tracking.Signer, siteName, siteURL string) *Sender {
	return &Sender{
		newsletters: newsletters,
		subscribers: subscribers,
		catalog:     catalog,
		renderer:    renderer,
		client:      client,
		signer:      signer,
		siteName:    siteName,
		siteURL:     siteURL,
		batchSize:   50,
		log:         logger.Component("sender"),
	}
}

// SetBatchSize sets how many deliveries run between cancellation checks.
func (s *Sender) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// Send executes the send for one newsletter. The newsletter transitions to
// SENDING first; recipients who fail delivery are logged and skipped, and
// the final SENT recipient count reflects only accepted deliveries.
func (s *Sender) Send(ctx context.Context, id uuid.UUID) error {
	if err := s.newsletters.BeginSending(ctx, id); err != nil {
		return err
	}

	n, err := s.newsletters.GetWithContent(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return newsletter.NewNotFound("newsletter", id.String())
	}

	sections, err := newsletter.BuildSections(n.Blocks, s.catalog.Resolver(ctx, s.siteURL))
	if err != nil {
		return fmt.Errorf("resolve content for %s: %w", n.Slug, err)
	}

	recipients, err := s.subscribers.ConfirmedRecipients(ctx)
	if err != nil {
		return err
	}

	sent := 0
	for i, sub := range recipients {
		if i > 0 && i%s.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("send interrupted after %d recipients: %w", sent, err)
			}
			s.log.Debug("send progress", "newsletter", n.Slug, "delivered", sent, "remaining", len(recipients)-i)
		}
		msg, err := s.buildMessage(&n.Newsletter, sections, sub)
		if err != nil {
			return err
		}
		if _, err := s.client.Send(ctx, *msg); err != nil {
			s.log.Error("delivery failed", "newsletter", n.Slug, "recipient", sub.Email, "error", err)
			continue
		}
		sent++
	}

	if err := s.newsletters.MarkSent(ctx, id, sent); err != nil {
		return err
	}
	s.log.Info("newsletter sent", "newsletter", n.Slug, "recipients", sent, "skipped", len(recipients)-sent)
	return nil
}

func (s *Sender) buildMessage(n *newsletter.Newsletter, sections []newsletter.Section, sub subscriber.Subscriber) (*Message, error) {
	in := RenderInput{
		Newsletter:     n,
		Sections:       sections,
		SiteName:       s.siteName,
		SiteURL:        s.siteURL,
		UnsubscribeURL: s.siteURL + "/newsletter/baja",
	}
	if s.signer != nil {
		in.OpenPixelURL = s.signer.OpenURL(n.ID, sub.ID)
		in.UnsubscribeURL = s.signer.UnsubscribeURL(sub.ConfirmToken)
		in.WrapLink = func(target string) string {
			return s.signer.ClickURL(n.ID, sub.ID, target)
		}
	}

	html, err := s.renderer.Render(in)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      sub.Email,
		Subject: n.Subject,
		HTML:    html,
		Text:    s.renderer.RenderText(in),
		Tags: map[string]string{
			"newsletter_id": n.ID.String(),
			"subscriber_id": sub.ID.String(),
		},
	}, nil
}
