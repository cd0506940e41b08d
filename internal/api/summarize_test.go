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
	"podsumgo/pkg/summarizer"
)

func summarizeBody(t *testing.T, ep model.Episode, opts model.Options) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(SummarizeRequest{Episode: ep, Options: opts})
	require.NoError(t, err)
	return strings.NewReader(string(data))
}

func successResponse() summarizer.Response {
	return summarizer.Response{
		Success: true,
		Result: &model.Result{
			Summary:    "A generated summary of the episode.",
			Source:     model.SourceDescription,
			Confidence: model.ConfidenceHigh,
		},
	}
}

func TestHandleSummarizeSavesRecord(t *testing.T) {
	ms := newMemoryStore()
	h := NewSummarizeHandler(&mockPipeline{response: successResponse()}, ms, ms, nil)

	ep := model.Episode{ID: "ep1", Title: "The Episode", Description: "desc"}
	req := httptest.NewRequest(http.MethodPost, "/api/summarize",
		summarizeBody(t, ep, model.Options{Format: model.FormatParagraph, Length: model.LengthMedium}))
	w := httptest.NewRecorder()
	h.HandleSummarize(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SummarizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Record)
	assert.NotEmpty(t, resp.Record.ID)
	assert.Equal(t, "ep1", resp.Record.EpisodeID)
	assert.Equal(t, len("A generated summary of the episode."), resp.Record.CharacterCount)

	stored, err := ms.GetSummary(context.Background(), "ep1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "The Episode", stored.Episode.Title)

	usage, err := ms.GetUsage(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, int64(1), usage[0].Requests)
	assert.Zero(t, usage[0].Failures)
}

func TestHandleSummarizeDefaultsOptions(t *testing.T) {
	ms := newMemoryStore()
	h := NewSummarizeHandler(&mockPipeline{response: successResponse()}, ms, ms, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/summarize",
		summarizeBody(t, model.Episode{ID: "ep1"}, model.Options{}))
	w := httptest.NewRecorder()
	h.HandleSummarize(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	stored, err := ms.GetSummary(context.Background(), "ep1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.FormatParagraph, stored.Format)
	assert.Equal(t, model.LengthMedium, stored.Length)
}

func TestHandleSummarizeRejectsBadOptions(t *testing.T) {
	ms := newMemoryStore()
	h := NewSummarizeHandler(&mockPipeline{response: successResponse()}, ms, ms, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/summarize",
		summarizeBody(t, model.Episode{ID: "ep1"}, model.Options{Format: "haiku", Length: model.LengthShort}))
	w := httptest.NewRecorder()
	h.HandleSummarize(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSummarizeRequiresEpisodeID(t *testing.T) {
	ms := newMemoryStore()
	h := NewSummarizeHandler(&mockPipeline{response: successResponse()}, ms, ms, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/summarize",
		summarizeBody(t, model.Episode{}, model.Options{}))
	w := httptest.NewRecorder()
	h.HandleSummarize(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSummarizeConflictWhileInFlight(t *testing.T) {
	mp := &mockPipeline{response: successResponse(), block: make(chan struct{})}
	ms := newMemoryStore()
	h := NewSummarizeHandler(mp, ms, ms, nil)

	ep := model.Episode{ID: "ep1"}
	opts := model.Options{Format: model.FormatParagraph, Length: model.LengthMedium}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() {
		w := httptest.NewRecorder()
		h.HandleSummarize(w, httptest.NewRequest(http.MethodPost, "/api/summarize", summarizeBody(t, ep, opts)))
		firstDone <- w
	}()

	// Wait until the first run is inside the pipeline.
	require.Eventually(t, func() bool {
		mp.mu.Lock()
		defer mp.mu.Unlock()
		return mp.calls == 1
	}, time.Second, 5*time.Millisecond)

	w2 := httptest.NewRecorder()
	h.HandleSummarize(w2, httptest.NewRequest(http.MethodPost, "/api/summarize", summarizeBody(t, ep, opts)))
	assert.Equal(t, http.StatusConflict, w2.Code)

	close(mp.block)
	first := <-firstDone
	assert.Equal(t, http.StatusOK, first.Code)

	// A fresh request after completion is allowed again.
	w3 := httptest.NewRecorder()
	h.HandleSummarize(w3, httptest.NewRequest(http.MethodPost, "/api/summarize", summarizeBody(t, ep, opts)))
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestHandleSummarizePipelineFailure(t *testing.T) {
	mp := &mockPipeline{response: summarizer.Response{
		Success:  false,
		Error:    "Failed to generate summary from both audio and description",
		CanRetry: true,
	}}
	ms := newMemoryStore()
	h := NewSummarizeHandler(mp, ms, ms, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/summarize",
		summarizeBody(t, model.Episode{ID: "ep1"}, model.Options{Format: model.FormatParagraph, Length: model.LengthShort}))
	w := httptest.NewRecorder()
	h.HandleSummarize(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SummarizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.True(t, resp.CanRetry)
	assert.Nil(t, resp.Record)

	usage, err := ms.GetUsage(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, int64(1), usage[0].Failures)
}

func TestHandleEstimate(t *testing.T) {
	ms := newMemoryStore()
	h := NewSummarizeHandler(&mockPipeline{}, ms, ms, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/summarize/estimate",
		summarizeBody(t, model.Episode{ID: "ep1", Description: "short"}, model.Options{}))
	w := httptest.NewRecorder()
	h.HandleEstimate(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(5000), resp["estimatedMs"])
	assert.Equal(t, string(model.SourceDescription), resp["strategy"])
}
