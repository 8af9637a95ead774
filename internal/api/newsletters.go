package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pepedome/backend/internal/newsletter"
)

// CreateNewsletter handles POST /api/admin/newsletters.
func (h *Handlers) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	var in newsletter.NewsletterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.newsletters.Create(r.Context(), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, n)
}

// ListNewsletters handles GET /api/admin/newsletters with optional
// status, page and limit query parameters.
func (h *Handlers) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)
	f := newsletter.ListFilter{
		Status: r.URL.Query().Get("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	result, err := h.newsletters.List(r.Context(), f)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, NewPaginatedResponse(result.Items, params, result.Pagination.Total))
}

// GetNewsletter handles GET /api/admin/newsletters/{id}, returning the
// newsletter with its ordered blocks and stats.
func (h *Handlers) GetNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	n, err := h.newsletters.GetWithContent(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if n == nil {
		respondError(w, http.StatusNotFound, "newsletter not found")
		return
	}
	respondData(w, http.StatusOK, n)
}

// UpdateNewsletter handles PUT /api/admin/newsletters/{id}. Fields absent
// from the body are left unchanged.
func (h *Handlers) UpdateNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var up newsletter.NewsletterUpdate
	if err := json.NewDecoder(r.Body).Decode(&up); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.newsletters.Update(r.Context(), id, up)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, n)
}

// DeleteNewsletter handles DELETE /api/admin/newsletters/{id}. Only drafts
// can be deleted.
func (h *Handlers) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.newsletters.Delete(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ScheduleNewsletter handles POST /api/admin/newsletters/{id}/schedule.
func (h *Handlers) ScheduleNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.newsletters.Schedule(r.Context(), id, req.ScheduledAt); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"status":       newsletter.StatusScheduled,
		"scheduled_at": req.ScheduledAt,
	})
}

// SendNewsletter handles POST /api/admin/newsletters/{id}/send, starting an
// immediate synchronous send.
func (h *Handlers) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if h.sender == nil {
		respondError(w, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}

	if err := h.sender.Send(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": newsletter.StatusSent})
}

// AddBlock handles POST /api/admin/newsletters/{id}/blocks.
func (h *Handlers) AddBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var in newsletter.BlockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	block, err := h.newsletters.AddBlock(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, block)
}

// RemoveBlock handles DELETE /api/admin/newsletters/{id}/blocks/{blockId}.
func (h *Handlers) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	blockID, ok := idParam(w, chi.URLParam(r, "blockId"))
	if !ok {
		return
	}

	if err := h.newsletters.RemoveBlock(r.Context(), blockID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ReorderBlocks handles PUT /api/admin/newsletters/{id}/blocks/reorder.
func (h *Handlers) ReorderBlocks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		Positions []newsletter.BlockPosition `json:"positions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.newsletters.Reorder(r.Context(), id, req.Positions); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "reordered"})
}

// ReplaceBlocks handles PUT /api/admin/newsletters/{id}/blocks, swapping the
// full block list in one transaction.
func (h *Handlers) ReplaceBlocks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		Blocks []newsletter.BlockInput `json:"blocks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	blocks, err := h.newsletters.ReplaceAll(r.Context(), id, req.Blocks)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, blocks)
}
