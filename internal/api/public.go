package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pepedome/backend/internal/newsletter"
)

// ListPublishedNewsletters handles GET /api/newsletters, the public archive
// of sent issues.
func (h *Handlers) ListPublishedNewsletters(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsletters.ListPublished(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, items)
}

// GetPublishedNewsletter handles GET /api/newsletters/{slug}. Blocks are
// resolved against the catalog and returned grouped into sections, ready
// for the web archive page to render.
func (h *Handlers) GetPublishedNewsletter(w http.ResponseWriter, r *http.Request) {
	n, err := h.newsletters.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if n == nil {
		respondError(w, http.StatusNotFound, "newsletter not found")
		return
	}

	sections, err := newsletter.BuildSections(n.Blocks, h.catalog.Resolver(r.Context(), h.siteURL))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"newsletter": n.Newsletter,
		"sections":   sections,
	})
}
