package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/content"
	"github.com/pepedome/backend/internal/newsletter"
	"github.com/pepedome/backend/internal/subscriber"
)

// SendRunner triggers a full newsletter send. Satisfied by mailer.Sender.
type SendRunner interface {
	Send(ctx context.Context, id uuid.UUID) error
}

// Handlers bundles the stores behind the HTTP API.
type Handlers struct {
	newsletters *newsletter.Store
	catalog     *content.Store
	subscribers *subscriber.Store
	sender      SendRunner // nil when no delivery backend is configured
	siteURL     string

	confirmMailer ConfirmationMailer

	startedAt time.Time
}

// NewHandlers creates the API handlers.
func NewHandlers(newsletters *newsletter.Store, catalog *content.Store,
	subscribers *subscriber.Store, sender SendRunner, siteURL string) *Handlers {
	return &Handlers{
		newsletters: newsletters,
		catalog:     catalog,
		subscribers: subscribers,
		sender:      sender,
		siteURL:     siteURL,
		startedAt:   time.Now(),
	}
}

// HealthCheck reports liveness and uptime.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// idParam parses the {id} URL parameter; a false return means the response
// has already been written.
func idParam(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
