package tracking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/pkg/logger"
	"github.com/pepedome/backend/internal/subscriber"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves the tracking endpoints. Invalid or tampered links degrade
// silently: opens still get the pixel, clicks 400 rather than redirect to
// an unverified target.
type Handler struct {
	signer *Signer
	store  *Store
	subs   *subscriber.Store
	log    *logger.Logger
}

// NewHandler creates a tracking handler.
func NewHandler(signer *Signer, store *Store, subs *subscriber.Store) *Handler {
	return &Handler{signer: signer, store: store, subs: subs, log: logger.Component("tracking")}
}

// Routes mounts the tracking endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/track/open/{data}/{sig}", h.HandleOpen)
	r.Get("/track/click/{data}/{sig}", h.HandleClick)
	r.Get("/track/unsubscribe/{data}/{sig}", h.HandleUnsubscribe)
	return r
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache")
	w.Write(pixelGIF)
}

// HandleOpen records a unique open and always serves the pixel.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	parts, ok := h.signer.Verify(chi.URLParam(r, "data"), chi.URLParam(r, "sig"))
	if !ok || len(parts) != 2 {
		h.servePixel(w)
		return
	}
	newsletterID, err1 := uuid.Parse(parts[0])
	subscriberID, err2 := uuid.Parse(parts[1])
	if err1 != nil || err2 != nil {
		h.servePixel(w)
		return
	}

	if err := h.store.RecordOpen(r.Context(), newsletterID, subscriberID); err != nil {
		h.log.Error("record open failed", "error", err, "newsletter_id", newsletterID)
	}
	h.servePixel(w)
}

// HandleClick records a unique click and redirects to the wrapped target.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	parts, ok := h.signer.Verify(chi.URLParam(r, "data"), chi.URLParam(r, "sig"))
	if !ok || len(parts) < 3 {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}
	newsletterID, err1 := uuid.Parse(parts[0])
	subscriberID, err2 := uuid.Parse(parts[1])
	if err1 != nil || err2 != nil {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}
	// The target URL may itself contain pipes.
	target := parts[2]
	for _, p := range parts[3:] {
		target += "|" + p
	}

	if err := h.store.RecordClick(r.Context(), newsletterID, subscriberID); err != nil {
		h.log.Error("record click failed", "error", err, "newsletter_id", newsletterID)
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleUnsubscribe removes the subscriber and shows a short confirmation.
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	parts, ok := h.signer.Verify(chi.URLParam(r, "data"), chi.URLParam(r, "sig"))
	if !ok || len(parts) != 1 {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}

	if err := h.subs.Unsubscribe(r.Context(), parts[0]); err != nil {
		h.log.Warn("unsubscribe failed", "error", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<html><body><p>Te has dado de baja del boletín de Pepe Dome.</p></body></html>"))
}
