package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"podsumgo/pkg/catalog"
	"podsumgo/pkg/model"
)

// Catalog defines the podcast catalog operations the handlers need.
type Catalog interface {
	SearchEpisodes(ctx context.Context, p catalog.SearchParams) (*catalog.SearchResult, error)
	GetEpisode(ctx context.Context, id string) (*model.Episode, error)
	GetBestPodcasts(ctx context.Context, p catalog.BestPodcastsParams) (*catalog.BestPodcasts, error)
	GetGenres(ctx context.Context) ([]catalog.Genre, error)
}

// PodcastHandler serves catalog search and browse endpoints.
type PodcastHandler struct {
	catalog Catalog
}

func NewPodcastHandler(c Catalog) *PodcastHandler {
	return &PodcastHandler{catalog: c}
}

// HandleSearch handles GET /api/podcasts/search
func (h *PodcastHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	params := catalog.SearchParams{
		Query:    query,
		Offset:   intParam(q.Get("offset")),
		LenMin:   intParam(q.Get("len_min")),
		LenMax:   intParam(q.Get("len_max")),
		GenreIDs: q.Get("genre_ids"),
	}
	if v := q.Get("published_after"); v != "" {
		params.PublishedAfter, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("published_before"); v != "" {
		params.PublishedBefore, _ = strconv.ParseInt(v, 10, 64)
	}

	result, err := h.catalog.SearchEpisodes(r.Context(), params)
	if err != nil {
		h.writeCatalogError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGet handles GET /api/podcasts/{id}
func (h *PodcastHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ep, err := h.catalog.GetEpisode(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeCatalogError(w, "episode lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

// HandleBest handles GET /api/podcasts/best
func (h *PodcastHandler) HandleBest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	best, err := h.catalog.GetBestPodcasts(r.Context(), catalog.BestPodcastsParams{
		GenreID: intParam(q.Get("genre_id")),
		Page:    intParam(q.Get("page")),
		Region:  q.Get("region"),
	})
	if err != nil {
		h.writeCatalogError(w, "best podcasts", err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

// HandleGenres handles GET /api/podcasts/genres
func (h *PodcastHandler) HandleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.GetGenres(r.Context())
	if err != nil {
		h.writeCatalogError(w, "genres", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]catalog.Genre{"genres": genres})
}

// writeCatalogError maps catalog sentinel errors onto HTTP statuses.
func (h *PodcastHandler) writeCatalogError(w http.ResponseWriter, op string, err error) {
	slog.Error("catalog request failed", "op", op, "error", err)
	switch {
	case errors.Is(err, catalog.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "podcast catalog is not configured")
	case errors.Is(err, catalog.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "API rate limit exceeded. Please try again later.")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, catalog.ErrInvalidKey):
		writeError(w, http.StatusBadGateway, "invalid podcast catalog API key")
	default:
		writeError(w, http.StatusBadGateway, "podcast catalog request failed")
	}
}

func intParam(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
