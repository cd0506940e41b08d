package summarizer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podsumgo/pkg/cache"
	"podsumgo/pkg/db"
	"podsumgo/pkg/llm"
	"podsumgo/pkg/model"
	"podsumgo/pkg/request"
	"podsumgo/pkg/tracker"
	"podsumgo/pkg/webpage"
)

type fakeProvider struct {
	textResponse  string
	textErr       error
	audioResponse string
	audioErr      error

	textCalls  int
	audioCalls int
	lastPrompt string
	lastAudio  []byte
	lastMIME   string
}

func (f *fakeProvider) GenerateText(ctx context.Context, intent, prompt string) (string, error) {
	f.textCalls++
	f.lastPrompt = prompt
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textResponse, nil
}

func (f *fakeProvider) GenerateAudioText(ctx context.Context, intent, prompt string, audio []byte, mimeType string) (string, error) {
	f.audioCalls++
	f.lastAudio = audio
	f.lastMIME = mimeType
	if f.audioErr != nil {
		return "", f.audioErr
	}
	return f.audioResponse, nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeProvider) HasProfile(intent string) bool         { return false }

func newTestService(t *testing.T, p *fakeProvider, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	svr := httptest.NewServer(handler)
	t.Cleanup(svr.Close)

	d, err := db.Init(filepath.Join(t.TempDir(), "summarizer_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	rc := request.New(cache.NewSQLiteCache(d, time.Hour), tracker.New(), request.Options{
		Retries:   1,
		Timeout:   5 * time.Second,
		BaseDelay: 10 * time.Millisecond,
		MaxDelay:  time.Second,
	})
	return New(p, webpage.NewFetcher(rc), rc, 1<<20), svr
}

// richDescription scores well above the direct-description threshold.
func richDescription() string {
	return strings.Repeat("We discuss the architecture of the system and the lessons learned while scaling it. ", 12)
}

// timestampedDescription is long but dominated by a timestamp table of
// contents, which routes it to the audio-first ladder.
func timestampedDescription() string {
	return strings.Repeat("The panel walks through incident response practices and the tooling choices behind them. ", 7) +
		"0:00 Intro\n12:30 Alerting\n24:45 Postmortems\n39:10 Closing"
}

// borderlineDescription lands exactly on the assessor's audio cutoff:
// trusted enough to skip audio, not trusted enough for the direct path.
func borderlineDescription() string {
	return strings.Repeat("The panel compares storage engines and outlines the tradeoffs behind each design decision. ", 7)
}

func longSummary() string {
	return strings.Repeat("The conversation centers on designing systems that degrade gracefully. ", 2)
}

func collectProgress(events *[]model.Progress) ProgressFunc {
	return func(p model.Progress) { *events = append(*events, p) }
}

func TestSummarizeHighQualityDescription(t *testing.T) {
	p := &fakeProvider{textResponse: longSummary()}
	s, _ := newTestService(t, p, nil)

	var events []model.Progress
	resp := s.Summarize(context.Background(), model.Episode{
		ID:          "ep1",
		Title:       "Scaling Stories",
		Description: richDescription(),
	}, model.Options{Format: model.FormatParagraph, Length: model.LengthMedium}, collectProgress(&events))

	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.SourceDescription, resp.Result.Source)
	assert.Equal(t, model.ConfidenceHigh, resp.Result.Confidence)
	assert.False(t, resp.FallbackUsed)
	assert.Equal(t, 1, p.textCalls)
	assert.Zero(t, p.audioCalls)

	// Progress is monotonic and ends at complete/100.
	last := -1
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Percent, last)
		last = ev.Percent
	}
	assert.Equal(t, model.StageComplete, events[len(events)-1].Stage)
	assert.Equal(t, 100, events[len(events)-1].Percent)
}

func TestSummarizePromptCarriesMetadata(t *testing.T) {
	p := &fakeProvider{textResponse: longSummary()}
	s, _ := newTestService(t, p, nil)

	resp := s.Summarize(context.Background(), model.Episode{
		ID:          "ep1",
		Title:       "Scaling Stories",
		Host:        "Dana Vu",
		Category:    "Technology",
		Duration:    "15 min",
		Description: richDescription(),
	}, model.Options{Format: model.FormatBulletPoints, Length: model.LengthShort}, nil)

	require.True(t, resp.Success)
	assert.Contains(t, p.lastPrompt, `"Scaling Stories"`)
	assert.Contains(t, p.lastPrompt, "Dana Vu")
	assert.Contains(t, p.lastPrompt, "approximately 300 characters")
	assert.Contains(t, p.lastPrompt, "hierarchical bullet-point")
}

func TestSummarizeAudioFailureFallsBackToDescription(t *testing.T) {
	p := &fakeProvider{
		audioErr:     errors.New("model unavailable"),
		textResponse: longSummary(),
	}
	s, svr := newTestService(t, p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))

	resp := s.Summarize(context.Background(), model.Episode{
		ID:          "ep2",
		Title:       "Incident Review",
		Description: timestampedDescription(),
		AudioURL:    svr.URL + "/audio.mp3",
	}, model.Options{Format: model.FormatParagraph, Length: model.LengthMedium}, nil)

	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.SourceFallback, resp.Result.Source)
	assert.True(t, resp.FallbackUsed)
	assert.Equal(t, 1, p.audioCalls)
	assert.Equal(t, 1, p.textCalls)
}

func TestSummarizeBorderlineDescriptionSkipsAudio(t *testing.T) {
	p := &fakeProvider{
		audioResponse: "unused",
		textResponse:  longSummary(),
	}
	s, svr := newTestService(t, p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))

	var events []model.Progress
	resp := s.Summarize(context.Background(), model.Episode{
		ID:          "ep5",
		Title:       "Storage Engines",
		Description: borderlineDescription(),
		AudioURL:    svr.URL + "/audio.mp3",
	}, model.Options{Format: model.FormatParagraph, Length: model.LengthMedium}, collectProgress(&events))

	// Score 70 sits between the audio cutoff and the direct threshold:
	// the run goes through the fallback ladder but must not touch audio
	// even though an audio URL is available.
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.SourceFallback, resp.Result.Source)
	assert.True(t, resp.FallbackUsed)
	assert.Zero(t, p.audioCalls)
	assert.Equal(t, 1, p.textCalls)
	for _, ev := range events {
		assert.NotEqual(t, model.StageTranscribing, ev.Stage)
	}
}

func TestSummarizeAllPathsFail(t *testing.T) {
	p := &fakeProvider{
		audioErr: errors.New("model unavailable"),
		textErr:  errors.New("model unavailable"),
	}
	s, svr := newTestService(t, p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))

	var events []model.Progress
	resp := s.Summarize(context.Background(), model.Episode{
		ID:          "ep3",
		Description: timestampedDescription(),
		AudioURL:    svr.URL + "/audio.mp3",
	}, model.Options{Format: model.FormatParagraph, Length: model.LengthMedium}, collectProgress(&events))

	assert.False(t, resp.Success)
	assert.True(t, resp.CanRetry)
	assert.NotEmpty(t, resp.Error)

	last := events[len(events)-1]
	assert.Equal(t, model.StageError, last.Stage)
	assert.Zero(t, last.Percent)
}

func TestSummarizeMinimalMetadataFallback(t *testing.T) {
	p := &fakeProvider{textResponse: "A short conversation about databases and where they fall over."}
	s, _ := newTestService(t, p, nil)

	resp := s.Summarize(context.Background(), model.Episode{
		ID:          "ep4",
		Title:       "Quick Chat",
		Host:        "Sam Ortiz",
		Duration:    "12 min",
		Description: "Quick chat about databases.",
	}, model.Options{Format: model.FormatParagraph, Length: model.LengthShort}, nil)

	// The description is too thin for any confidence, so the run ends on
	// the metadata-only preview.
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, model.SourceFallback, resp.Result.Source)
	assert.Equal(t, model.ConfidenceLow, resp.Result.Confidence)
	assert.True(t, resp.FallbackUsed)
	assert.Equal(t, 2, p.textCalls)
	assert.Contains(t, p.lastPrompt, "Sam Ortiz")
	assert.Contains(t, p.lastPrompt, "no usable description")
}

func TestTranscribeAndSummarize(t *testing.T) {
	p := &fakeProvider{audioResponse: "  Summary from audio.  "}
	s, svr := newTestService(t, p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))

	res, err := s.TranscribeAndSummarize(context.Background(), svr.URL+"/audio.mp3", model.Options{
		Format: model.FormatKeyTakeaways,
		Length: model.LengthLong,
	})
	require.NoError(t, err)
	assert.Equal(t, "Summary from audio.", res.Summary)
	assert.Equal(t, model.SourceAudio, res.Source)
	assert.Equal(t, model.ConfidenceHigh, res.Confidence)
	assert.Equal(t, []byte("fake-mp3-bytes"), p.lastAudio)
	assert.Equal(t, "audio/mpeg", p.lastMIME)
}

func TestTranscribeAudioTooLarge(t *testing.T) {
	p := &fakeProvider{audioResponse: "unused"}
	s, svr := newTestService(t, p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	s.maxAudioBytes = 1024

	_, err := s.TranscribeAndSummarize(context.Background(), svr.URL+"/big.mp3", model.Options{
		Format: model.FormatParagraph,
		Length: model.LengthMedium,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAudioTooLarge)
	assert.Zero(t, p.audioCalls)
}

func TestTranscribeAudioFetchError(t *testing.T) {
	p := &fakeProvider{}
	s, svr := newTestService(t, p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := s.TranscribeAndSummarize(context.Background(), svr.URL+"/audio.mp3", model.Options{
		Format: model.FormatParagraph,
		Length: model.LengthMedium,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAudioFetch)
}

func TestTextConfidence(t *testing.T) {
	long := strings.Repeat("a", 600)
	mid := strings.Repeat("a", 250)

	tests := []struct {
		name     string
		content  string
		summary  string
		expected model.Confidence
	}{
		{"rich content long summary", long, strings.Repeat("s", 120), model.ConfidenceHigh},
		{"rich content short summary", long, "tiny", model.ConfidenceLow},
		{"medium content", mid, strings.Repeat("s", 60), model.ConfidenceMedium},
		{"thin content", "short", strings.Repeat("s", 200), model.ConfidenceLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, textConfidence(tc.content, tc.summary))
		})
	}
}

func TestEstimateProcessingTime(t *testing.T) {
	p := &fakeProvider{}
	s, _ := newTestService(t, p, nil)

	// High-quality description, no links: direct description path.
	d, src := s.EstimateProcessingTime(model.Episode{Description: richDescription()})
	assert.Equal(t, estimateDescription, d)
	assert.Equal(t, model.SourceDescription, src)

	// High-quality description with an article link.
	d, src = s.EstimateProcessingTime(model.Episode{
		Description: richDescription() + " Full notes: https://example.com/notes",
	})
	assert.Equal(t, estimateURL, d)
	assert.Equal(t, model.SourceDescription, src)

	// Long but untrusted description: fallback ladder.
	d, src = s.EstimateProcessingTime(model.Episode{Description: timestampedDescription()})
	assert.Equal(t, estimateFallback, d)
	assert.Equal(t, model.SourceFallback, src)

	// Near-empty description: full audio processing.
	d, src = s.EstimateProcessingTime(model.Episode{Description: "Quick chat."})
	assert.Equal(t, estimateAudio, d)
	assert.Equal(t, model.SourceAudio, src)
}

func TestBuildTextPromptMarksContentBlock(t *testing.T) {
	content := strings.Repeat("A very long transcript line that should be cut down in the history log. ", 10)
	prompt := buildTextPrompt(content, model.Options{
		Format: model.FormatParagraph,
		Length: model.LengthMedium,
	}, promptMeta{Title: "Markers"})

	start := strings.Index(prompt, "<start of content>")
	end := strings.Index(prompt, "<end of content>")
	require.Greater(t, start, 0)
	require.Greater(t, end, start)
	assert.Contains(t, prompt[start:end], content)

	// The markers are what the history log keys on when shortening prompts
	truncated := llm.TruncateBlock(prompt, 40)
	assert.Less(t, len(truncated), len(prompt))
	assert.Contains(t, truncated, "Please provide only the summary")
}

func TestBuildTextPromptDefaults(t *testing.T) {
	prompt := buildTextPrompt("Some content.", model.Options{
		Format: model.FormatExecutiveSummary,
		Length: model.LengthLong,
	}, promptMeta{})

	assert.Contains(t, prompt, `"Unknown Episode"`)
	assert.Contains(t, prompt, "Unknown Host")
	assert.Contains(t, prompt, "approximately 1000 characters")
	assert.Contains(t, prompt, "strategic implications")
}
