package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pepedome/backend/internal/content"
)

// ListEvents handles GET /api/events. Shows are always included; dated
// events are filtered to those that have not yet started.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.catalog.ListUpcoming(r.Context(), time.Now())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, events)
}

// GetEventBySlug handles GET /api/events/{slug}.
func (h *Handlers) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	event, err := h.catalog.GetEventBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if event == nil {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}
	respondData(w, http.StatusOK, event)
}

// CreateEvent handles POST /api/admin/events.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in content.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.catalog.CreateEvent(r.Context(), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /api/admin/events/{id}.
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var in content.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.catalog.UpdateEvent(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, event)
}

// UpdateEventStatus handles PUT /api/admin/events/{id}/status.
func (h *Handlers) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.catalog.UpdateEventStatus(r.Context(), id, req.Status); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": req.Status})
}

// DeleteEvent handles DELETE /api/admin/events/{id}.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteEvent(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListArticles handles GET /api/articles.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 20, 100)

	articles, err := h.catalog.ListArticles(r.Context(), params.Limit, params.Offset)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, articles)
}

// GetArticleBySlug handles GET /api/articles/{slug}.
func (h *Handlers) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.catalog.GetArticleBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}
	respondData(w, http.StatusOK, article)
}

// CreateArticle handles POST /api/admin/articles.
func (h *Handlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var in content.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.catalog.CreateArticle(r.Context(), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, article)
}

// UpdateArticle handles PUT /api/admin/articles/{id}.
func (h *Handlers) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var in content.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.catalog.UpdateArticle(r.Context(), id, in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, article)
}

// DeleteArticle handles DELETE /api/admin/articles/{id}.
func (h *Handlers) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteArticle(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "deleted"})
}
