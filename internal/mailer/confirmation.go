package mailer

import (
	"context"
	"fmt"

	"github.com/pepedome/backend/internal/pkg/logger"
)

// ConfirmationMailer sends the double opt-in email after a signup.
type ConfirmationMailer struct {
	client   Client
	siteName string
	baseURL  string
	log      *logger.Logger
}

// NewConfirmationMailer creates a confirmation mailer. baseURL is the public
// base the confirm link is built on.
func NewConfirmationMailer(client Client, siteName, baseURL string) *ConfirmationMailer {
	return &ConfirmationMailer{
		client:   client,
		siteName: siteName,
		baseURL:  baseURL,
		log:      logger.Component("confirmation-mailer"),
	}
}

// SendConfirmation delivers the opt-in email carrying the confirm link.
func (m *ConfirmationMailer) SendConfirmation(ctx context.Context, email, token string) error {
	confirmURL := fmt.Sprintf("%s/subscribe/confirm/%s", m.baseURL, token)

	msg := Message{
		To:      email,
		Subject: fmt.Sprintf("Confirma tu suscripción a %s", m.siteName),
		HTML: fmt.Sprintf(`<html><body style="font-family:sans-serif;max-width:600px;margin:0 auto">
<h2>¡Casi listo!</h2>
<p>Haz clic en el enlace para confirmar tu suscripción al boletín de %s:</p>
<p><a href="%s">Confirmar suscripción</a></p>
<p>Si no te has suscrito, ignora este mensaje.</p>
</body></html>`, m.siteName, confirmURL),
		Text: fmt.Sprintf("Confirma tu suscripción a %s: %s\n\nSi no te has suscrito, ignora este mensaje.",
			m.siteName, confirmURL),
		Tags: map[string]string{"type": "confirmation"},
	}

	if _, err := m.client.Send(ctx, msg); err != nil {
		m.log.Error("confirmation send failed", "error", err, "recipient", logger.RedactEmail(email))
		return err
	}
	return nil
}
