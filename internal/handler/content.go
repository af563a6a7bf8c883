package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/englishhub/englishhub/internal/content"
	"github.com/englishhub/englishhub/internal/metrics"
	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/server/middleware"
)

// ContentHandler serves the catalog. Reads are public; writes run behind
// middleware.RequireSession.
type ContentHandler struct {
	repo    *content.Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler. m may be nil.
func NewContentHandler(repo *content.Repository, m *metrics.Metrics, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ContentHandler{repo: repo, metrics: m, logger: logger}
}

// contentView adds the derived player URL to a stored item.
type contentView struct {
	model.Content
	EmbedURL string `json:"embed_url,omitempty"`
}

func viewOf(c model.Content) contentView {
	return contentView{Content: c, EmbedURL: c.EmbedURL()}
}

func listOf(items []model.Content, category model.Category) model.ListResponse {
	views := make([]contentView, len(items))
	for i, c := range items {
		views[i] = viewOf(c)
	}
	return model.ListResponse{
		Resource: views,
		Meta:     &model.ResponseMeta{Count: len(views), Category: category},
	}
}

// List returns the catalog, filtered when ?category= is present.
// GET /api/v1/content
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("category")
	if raw == "" {
		items, err := h.repo.List(r.Context())
		if err != nil {
			writeServiceError(w, r, h.logger, "list content", err)
			return
		}
		writeJSON(w, http.StatusOK, listOf(items, ""))
		return
	}
	h.listCategory(w, r, raw)
}

// ListByCategory returns one category.
// GET /api/v1/categories/{category}/content
func (h *ContentHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	h.listCategory(w, r, chi.URLParam(r, "category"))
}

func (h *ContentHandler) listCategory(w http.ResponseWriter, r *http.Request, raw string) {
	category, err := model.ParseCategory(raw)
	if err != nil {
		writeServiceError(w, r, h.logger, "list content", err)
		return
	}
	items, err := h.repo.ListByCategory(r.Context(), category)
	if err != nil {
		writeServiceError(w, r, h.logger, "list content", err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(items, category))
}

// Get returns one item.
// GET /api/v1/content/{id}
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get content", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(*item))
}

// Create stores a new item. created_by defaults to the session's admin.
// POST /api/v1/content
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.NewContent
	if err := readJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "create content", err)
		return
	}
	if in.CreatedBy == "" {
		if sess := middleware.GetSession(r.Context()); sess != nil {
			in.CreatedBy = sess.Username
		}
	}

	item, err := h.repo.Insert(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "create content", err)
		return
	}
	h.metrics.ObserveContentMutation("insert")
	h.logger.InfoContext(r.Context(), "content added",
		"id", item.ID, "category", item.Category, "created_by", item.CreatedBy)

	w.Header().Set("Location", "/api/v1/content/"+item.ID)
	writeJSON(w, http.StatusCreated, viewOf(*item))
}

// Delete removes one item; unknown ids succeed.
// DELETE /api/v1/content/{id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, "delete content", err)
		return
	}
	h.metrics.ObserveContentMutation("delete")
	h.logger.InfoContext(r.Context(), "content deleted", "id", id)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteAll empties the catalog.
// DELETE /api/v1/content
func (h *ContentHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteAll(r.Context()); err != nil {
		writeServiceError(w, r, h.logger, "delete all content", err)
		return
	}
	h.metrics.ObserveContentMutation("delete_all")
	h.logger.WarnContext(r.Context(), "catalog emptied")
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
