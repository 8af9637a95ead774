package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ConfirmationMailer delivers the double opt-in confirmation email. Nil when
// no delivery backend is configured; subscriptions still land as pending.
type ConfirmationMailer interface {
	SendConfirmation(ctx context.Context, email, token string) error
}

// SetConfirmationMailer wires the opt-in email sender.
func (h *Handlers) SetConfirmationMailer(m ConfirmationMailer) {
	h.confirmMailer = m
}

// Subscribe handles POST /api/subscribe. Re-subscribing an existing address
// resets it to pending and issues a fresh confirmation token.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	sub, err := h.subscribers.Subscribe(r.Context(), req.Email)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if h.confirmMailer != nil {
		if err := h.confirmMailer.SendConfirmation(r.Context(), sub.Email, sub.ConfirmToken); err != nil {
			// Subscription is stored; the confirm link can be re-sent later.
			respondSafeError(w, err, "could not send the confirmation email")
			return
		}
	}

	respondData(w, http.StatusCreated, map[string]string{"status": sub.Status})
}

// ConfirmSubscription handles GET /subscribe/confirm/{token}, the link from
// the opt-in email, and renders a small confirmation page.
func (h *Handlers) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if _, err := h.subscribers.Confirm(r.Context(), token); err != nil {
		respondHTML(w, http.StatusNotFound,
			"Enlace no válido", "Este enlace de confirmación no es válido o ya fue utilizado.")
		return
	}

	respondHTML(w, http.StatusOK,
		"¡Suscripción confirmada!", "Gracias por unirte a la newsletter de Pepe Dome. Nos vemos bajo la cúpula.")
}

// Unsubscribe handles GET /unsubscribe/{token}, the plain footer link. The
// token is the subscriber's confirm token, so the link works without login.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.subscribers.Unsubscribe(r.Context(), token); err != nil {
		respondHTML(w, http.StatusNotFound,
			"Enlace no válido", "Este enlace de baja no es válido.")
		return
	}

	respondHTML(w, http.StatusOK,
		"Baja confirmada", "Te has dado de baja del boletín de Pepe Dome.")
}

// ListSubscribers handles GET /api/admin/subscribers.
func (h *Handlers) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 50, 100)

	subs, total, err := h.subscribers.List(r.Context(), params.Page, params.Limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	counts, err := h.subscribers.Count(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondData(w, http.StatusOK, struct {
		PaginatedResponse
		Counts map[string]int `json:"counts"`
	}{NewPaginatedResponse(subs, params, total), counts})
}

// LookupSubscriber handles GET /api/admin/subscribers/lookup?email=, used by
// support to check the state of a single address.
func (h *Handlers) LookupSubscriber(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if !strings.Contains(email, "@") {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	sub, err := h.subscribers.GetByEmail(r.Context(), email)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if sub == nil {
		respondError(w, http.StatusNotFound, "subscriber not found")
		return
	}
	respondData(w, http.StatusOK, sub)
}

func respondHTML(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="es"><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:sans-serif;max-width:600px;margin:40px auto;text-align:center">
<h1>%s</h1><p>%s</p>
</body></html>`, title, title, body)
}
