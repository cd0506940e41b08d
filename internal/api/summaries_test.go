package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podsumgo/pkg/model"
)

func seedRecord(t *testing.T, ms *memoryStore, episodeID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, ms.SaveSummary(context.Background(), &model.SummaryRecord{
		ID:             "id-" + episodeID,
		EpisodeID:      episodeID,
		Content:        "Summary for " + episodeID,
		Format:         model.FormatParagraph,
		Length:         model.LengthMedium,
		CharacterCount: len("Summary for " + episodeID),
		CreatedAt:      createdAt,
		Episode:        model.Episode{ID: episodeID, Title: "Episode " + episodeID},
	}))
}

func TestHandleListNewestFirst(t *testing.T) {
	ms := newMemoryStore()
	now := time.Now().UTC()
	seedRecord(t, ms, "old", now.Add(-time.Hour))
	seedRecord(t, ms, "new", now)
	h := NewSummariesHandler(ms)

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/summaries", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var recs []*model.SummaryRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "new", recs[0].EpisodeID)
	assert.Equal(t, "old", recs[1].EpisodeID)
}

func TestHandleListEmpty(t *testing.T) {
	h := NewSummariesHandler(newMemoryStore())

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/summaries", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestHandleGetMissing(t *testing.T) {
	h := NewSummariesHandler(newMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/summaries/ghost", nil)
	req.SetPathValue("id", "ghost")
	w := httptest.NewRecorder()
	h.HandleGet(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreate(t *testing.T) {
	ms := newMemoryStore()
	h := NewSummariesHandler(ms)

	body := `{"episodeId":"ep1","content":"Imported summary.","format":"bullet-points","length":"short","podcast":{"id":"ep1"}}`
	w := httptest.NewRecorder()
	h.HandleCreate(w, httptest.NewRequest(http.MethodPost, "/api/summaries", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)

	var rec model.SummaryRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, len("Imported summary."), rec.CharacterCount)
	assert.False(t, rec.CreatedAt.IsZero())

	stored, err := ms.GetSummary(context.Background(), "ep1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestHandleCreateValidation(t *testing.T) {
	h := NewSummariesHandler(newMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{"missing content", `{"episodeId":"ep1","format":"paragraph","length":"short"}`},
		{"missing episode id", `{"content":"x","format":"paragraph","length":"short"}`},
		{"bad format", `{"episodeId":"ep1","content":"x","format":"haiku","length":"short"}`},
		{"malformed json", `{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleCreate(w, httptest.NewRequest(http.MethodPost, "/api/summaries", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandlePatch(t *testing.T) {
	ms := newMemoryStore()
	seedRecord(t, ms, "ep1", time.Now().UTC())
	h := NewSummariesHandler(ms)

	body := `{"content":"Edited.","length":"long"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/summaries/ep1", strings.NewReader(body))
	req.SetPathValue("id", "ep1")
	w := httptest.NewRecorder()
	h.HandlePatch(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	stored, err := ms.GetSummary(context.Background(), "ep1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Edited.", stored.Content)
	assert.Equal(t, len("Edited."), stored.CharacterCount)
	assert.Equal(t, model.LengthLong, stored.Length)
	// Untouched fields survive the patch.
	assert.Equal(t, model.FormatParagraph, stored.Format)
}

func TestHandlePatchMissing(t *testing.T) {
	h := NewSummariesHandler(newMemoryStore())

	req := httptest.NewRequest(http.MethodPatch, "/api/summaries/ghost", strings.NewReader(`{"content":"x"}`))
	req.SetPathValue("id", "ghost")
	w := httptest.NewRecorder()
	h.HandlePatch(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDelete(t *testing.T) {
	ms := newMemoryStore()
	seedRecord(t, ms, "ep1", time.Now().UTC())
	h := NewSummariesHandler(ms)

	req := httptest.NewRequest(http.MethodDelete, "/api/summaries/ep1", nil)
	req.SetPathValue("id", "ep1")
	w := httptest.NewRecorder()
	h.HandleDelete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Deleting again reports not found instead of failing silently.
	req = httptest.NewRequest(http.MethodDelete, "/api/summaries/ep1", nil)
	req.SetPathValue("id", "ep1")
	w = httptest.NewRecorder()
	h.HandleDelete(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
