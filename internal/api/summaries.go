package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"podsumgo/pkg/model"
	"podsumgo/pkg/store"
)

// SummariesHandler serves CRUD endpoints for persisted summaries.
// Records are addressed by episode id, which is the natural key; the
// internal uuid only distinguishes regenerations.
type SummariesHandler struct {
	store store.SummaryStore
}

func NewSummariesHandler(s store.SummaryStore) *SummariesHandler {
	return &SummariesHandler{store: s}
}

// HandleList handles GET /api/summaries
func (h *SummariesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.ListSummaries(r.Context())
	if err != nil {
		slog.Error("failed to list summaries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list summaries")
		return
	}
	if recs == nil {
		recs = []*model.SummaryRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleGet handles GET /api/summaries/{id}
func (h *SummariesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to load summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no summary for this episode")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleCreate handles POST /api/summaries. Saving an existing episode id
// replaces the previous record.
func (h *SummariesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var rec model.SummaryRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rec.EpisodeID == "" || rec.Content == "" {
		writeError(w, http.StatusBadRequest, "episodeId and content are required")
		return
	}
	if !rec.Format.Valid() || !rec.Length.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported summary format or length")
		return
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CharacterCount = len(rec.Content)
	rec.CreatedAt = time.Now().UTC()

	if err := h.store.SaveSummary(r.Context(), &rec); err != nil {
		slog.Error("failed to save summary", "episode", rec.EpisodeID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save summary")
		return
	}
	writeJSON(w, http.StatusCreated, &rec)
}

// summaryPatch is the partial-update body for PATCH.
type summaryPatch struct {
	Content *string       `json:"content"`
	Format  *model.Format `json:"format"`
	Length  *model.Length `json:"length"`
}

// HandlePatch handles PATCH /api/summaries/{id}
func (h *SummariesHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	episodeID := r.PathValue("id")

	var patch summaryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.store.GetSummary(r.Context(), episodeID)
	if err != nil {
		slog.Error("failed to load summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no summary for this episode")
		return
	}

	if patch.Content != nil {
		rec.Content = *patch.Content
		rec.CharacterCount = len(rec.Content)
	}
	if patch.Format != nil {
		if !patch.Format.Valid() {
			writeError(w, http.StatusBadRequest, "unsupported summary format")
			return
		}
		rec.Format = *patch.Format
	}
	if patch.Length != nil {
		if !patch.Length.Valid() {
			writeError(w, http.StatusBadRequest, "unsupported summary length")
			return
		}
		rec.Length = *patch.Length
	}

	if err := h.store.SaveSummary(r.Context(), rec); err != nil {
		slog.Error("failed to update summary", "episode", episodeID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update summary")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleDelete handles DELETE /api/summaries/{id}
func (h *SummariesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	found, err := h.store.DeleteSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to delete summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete summary")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no summary for this episode")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
