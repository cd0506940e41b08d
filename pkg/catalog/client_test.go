package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podsumgo/pkg/cache"
	"podsumgo/pkg/config"
	"podsumgo/pkg/db"
	"podsumgo/pkg/request"
	"podsumgo/pkg/tracker"
)

func newTestCatalog(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	svr := httptest.NewServer(handler)
	t.Cleanup(svr.Close)

	d, err := db.Init(filepath.Join(t.TempDir(), "catalog_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	rc := request.New(cache.NewSQLiteCache(d, time.Hour), tracker.New(), request.Options{
		Retries:   1,
		Timeout:   5 * time.Second,
		BaseDelay: 10 * time.Millisecond,
		MaxDelay:  time.Second,
	})

	c := NewClient(config.CatalogConfig{
		BaseURL:  svr.URL,
		Key:      "test-key",
		Language: "English",
		SafeMode: true,
	}, rc)
	return c, svr
}

func TestSearchEpisodes(t *testing.T) {
	var gotPath, gotKey string
	var gotQuery map[string][]string
	c, _ := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-ListenAPI-Key")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 1, "total": 42, "next_offset": 10,
			"results": [{
				"id": "ep1",
				"title_original": "The Episode",
				"description_original": "<p>Rich description</p>",
				"audio": "https://cdn.example/ep1.mp3",
				"audio_length_sec": 1800,
				"pub_date_ms": 1700000000000,
				"podcast": {"publisher_original": "The Network"}
			}]
		}`))
	}))

	res, err := c.SearchEpisodes(context.Background(), SearchParams{Query: "golang", LenMin: 10, LenMax: 60})
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, []string{"episode"}, gotQuery["type"])
	assert.Equal(t, []string{"golang"}, gotQuery["q"])
	assert.Equal(t, []string{"10"}, gotQuery["len_min"])
	assert.Equal(t, []string{"English"}, gotQuery["language"])
	assert.Equal(t, []string{"1"}, gotQuery["safe_mode"])

	assert.Equal(t, 42, res.Total)
	assert.Equal(t, 10, res.NextOffset)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "The Episode", res.Results[0].Title)
	assert.Equal(t, "Rich description", res.Results[0].Description)
	assert.Equal(t, "The Network", res.Results[0].Host)
	assert.Equal(t, "30 min", res.Results[0].Duration)
}

func TestGetEpisode(t *testing.T) {
	c, _ := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/episodes/ep42", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "ep42", "title_original": "Found"}`))
	}))

	ep, err := c.GetEpisode(context.Background(), "ep42")
	require.NoError(t, err)
	assert.Equal(t, "ep42", ep.ID)
	assert.Equal(t, "Found", ep.Title)
}

func TestGetEpisodeStatusErrors(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{401, ErrInvalidKey},
		{404, ErrNotFound},
	}
	for _, tt := range tests {
		c, _ := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := c.GetEpisode(context.Background(), "x")
		assert.ErrorIs(t, err, tt.wantErr, "status %d", tt.status)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.CatalogConfig{}, nil)
	assert.False(t, c.Configured())

	_, err := c.SearchEpisodes(context.Background(), SearchParams{Query: "q"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGetBestPodcastsAndGenres(t *testing.T) {
	c, _ := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/best_podcasts":
			assert.Equal(t, "7", r.URL.Query().Get("genre_id"))
			_, _ = w.Write([]byte(`{
				"podcasts": [{"id": "p1", "title": "Best Show", "publisher": "Pub", "total_episodes": 120}],
				"has_next": true, "page_number": 1, "total": 300
			}`))
		case "/genres":
			_, _ = w.Write([]byte(`{"genres": [{"id": 7, "name": "Technology"}]}`))
		default:
			w.WriteHeader(404)
		}
	}))
	ctx := context.Background()

	best, err := c.GetBestPodcasts(ctx, BestPodcastsParams{GenreID: 7})
	require.NoError(t, err)
	require.Len(t, best.Podcasts, 1)
	assert.Equal(t, "Best Show", best.Podcasts[0].Title)
	assert.Equal(t, "120 episodes", best.Podcasts[0].Duration)
	assert.Equal(t, "Recent", best.Podcasts[0].Date)
	assert.True(t, best.HasNext)

	genres, err := c.GetGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "Technology", genres[0].Name)
}
