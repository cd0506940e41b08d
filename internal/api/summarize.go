package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"podsumgo/pkg/model"
	"podsumgo/pkg/store"
	"podsumgo/pkg/summarizer"
)

// Pipeline defines the summarizer operations the handler needs.
type Pipeline interface {
	Summarize(ctx context.Context, ep model.Episode, opts model.Options, onProgress summarizer.ProgressFunc) summarizer.Response
	EstimateProcessingTime(ep model.Episode) (time.Duration, model.Source)
}

// SummarizeHandler runs the pipeline and persists successful results.
// At most one run per episode id is allowed at a time; the pipeline itself
// is stateless, so the guard lives here.
type SummarizeHandler struct {
	pipeline Pipeline
	store    store.SummaryStore
	usage    store.UsageStore
	hub      *ProgressHub

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSummarizeHandler(p Pipeline, s store.SummaryStore, u store.UsageStore, hub *ProgressHub) *SummarizeHandler {
	return &SummarizeHandler{
		pipeline: p,
		store:    s,
		usage:    u,
		hub:      hub,
		inflight: make(map[string]struct{}),
	}
}

// SummarizeRequest is the body of POST /api/summarize.
type SummarizeRequest struct {
	Episode model.Episode `json:"podcast"`
	Options model.Options `json:"options"`
}

// SummarizeResponse wraps the pipeline outcome with the stored record.
type SummarizeResponse struct {
	summarizer.Response
	Record *model.SummaryRecord `json:"record,omitempty"`
}

// HandleSummarize handles POST /api/summarize
func (h *SummarizeHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	if !h.acquire(req.Episode.ID) {
		writeError(w, http.StatusConflict, "summarization already in progress for this episode")
		return
	}
	defer h.release(req.Episode.ID)

	onProgress := func(p model.Progress) {
		if h.hub != nil {
			h.hub.Publish(req.Episode.ID, p)
		}
	}

	resp := h.pipeline.Summarize(r.Context(), req.Episode, req.Options, onProgress)
	h.recordUsage(r.Context(), req.Episode, resp)

	if !resp.Success {
		if r.Context().Err() != nil {
			// Client went away; nothing left to answer.
			return
		}
		writeJSON(w, http.StatusOK, SummarizeResponse{Response: resp})
		return
	}

	rec := &model.SummaryRecord{
		ID:             uuid.NewString(),
		EpisodeID:      req.Episode.ID,
		Content:        resp.Result.Summary,
		Format:         req.Options.Format,
		Length:         req.Options.Length,
		CharacterCount: len(resp.Result.Summary),
		CreatedAt:      time.Now().UTC(),
		Episode:        req.Episode,
	}
	if err := h.store.SaveSummary(r.Context(), rec); err != nil {
		slog.Error("failed to persist summary", "episode", req.Episode.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "summary generated but could not be saved")
		return
	}

	writeJSON(w, http.StatusOK, SummarizeResponse{Response: resp, Record: rec})
}

// HandleEstimate handles POST /api/summarize/estimate
func (h *SummarizeHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, strategy := h.pipeline.EstimateProcessingTime(req.Episode)
	writeJSON(w, http.StatusOK, map[string]any{
		"estimatedMs": d.Milliseconds(),
		"strategy":    strategy,
	})
}

func (h *SummarizeHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (SummarizeRequest, bool) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Episode.ID == "" {
		writeError(w, http.StatusBadRequest, "podcast.id is required")
		return req, false
	}
	if req.Options.Format == "" {
		req.Options.Format = model.FormatParagraph
	}
	if req.Options.Length == "" {
		req.Options.Length = model.LengthMedium
	}
	if !req.Options.Format.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported summary format")
		return req, false
	}
	if !req.Options.Length.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported summary length")
		return req, false
	}
	return req, true
}

func (h *SummarizeHandler) acquire(episodeID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inflight[episodeID]; busy {
		return false
	}
	h.inflight[episodeID] = struct{}{}
	return true
}

func (h *SummarizeHandler) release(episodeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, episodeID)
}

// recordUsage persists one aggregated usage row for the run.
func (h *SummarizeHandler) recordUsage(ctx context.Context, ep model.Episode, resp summarizer.Response) {
	if h.usage == nil {
		return
	}
	rec := &store.UsageRecord{
		Provider:   "gemini",
		Requests:   1,
		InputChars: int64(len(ep.Description)),
	}
	if resp.Success && resp.Result != nil {
		rec.OutputChars = int64(len(resp.Result.Summary))
	} else {
		rec.Failures = 1
	}
	if err := h.usage.RecordUsage(ctx, rec); err != nil {
		slog.Warn("failed to record usage", "episode", ep.ID, "error", err)
	}
}
