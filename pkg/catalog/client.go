package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"podsumgo/pkg/config"
	"podsumgo/pkg/model"
	"podsumgo/pkg/request"
)

// Client talks to the ListenNotes API.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	safeMode bool
	rc       *request.Client
}

// NewClient creates a catalog client from config.
func NewClient(cfg config.CatalogConfig, rc *request.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://listen-api.listennotes.com/api/v2"
	}
	return &Client{
		baseURL:  base,
		apiKey:   cfg.Key,
		language: cfg.Language,
		safeMode: cfg.SafeMode,
		rc:       rc,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SearchParams narrows an episode search.
type SearchParams struct {
	Query           string
	Offset          int
	LenMin          int
	LenMax          int
	GenreIDs        string
	PublishedAfter  int64
	PublishedBefore int64
}

// SearchResult is a page of transformed episodes.
type SearchResult struct {
	Count      int             `json:"count"`
	Total      int             `json:"total"`
	NextOffset int             `json:"nextOffset"`
	Results    []model.Episode `json:"results"`
}

// SearchEpisodes searches for episodes matching the query.
func (c *Client) SearchEpisodes(ctx context.Context, p SearchParams) (*SearchResult, error) {
	q := url.Values{}
	q.Set("type", "episode")
	q.Set("q", p.Query)
	q.Set("offset", strconv.Itoa(p.Offset))
	if p.LenMin > 0 {
		q.Set("len_min", strconv.Itoa(p.LenMin))
	}
	if p.LenMax > 0 {
		q.Set("len_max", strconv.Itoa(p.LenMax))
	}
	if p.GenreIDs != "" {
		q.Set("genre_ids", p.GenreIDs)
	}
	if p.PublishedAfter > 0 {
		q.Set("published_after", strconv.FormatInt(p.PublishedAfter, 10))
	}
	if p.PublishedBefore > 0 {
		q.Set("published_before", strconv.FormatInt(p.PublishedBefore, 10))
	}
	if c.language != "" {
		q.Set("language", c.language)
	}
	if c.safeMode {
		q.Set("safe_mode", "1")
	}

	var raw searchResponse
	if err := c.get(ctx, "/search", q, true, &raw); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Count:      raw.Count,
		Total:      raw.Total,
		NextOffset: raw.NextOffset,
		Results:    make([]model.Episode, 0, len(raw.Results)),
	}
	for i := range raw.Results {
		result.Results = append(result.Results, transformEpisode(&raw.Results[i]))
	}
	return result, nil
}

// GetEpisode fetches a single episode by id.
func (c *Client) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	if id == "" {
		return nil, fmt.Errorf("episode id required")
	}
	var raw rawEpisode
	if err := c.get(ctx, "/episodes/"+url.PathEscape(id), nil, true, &raw); err != nil {
		return nil, err
	}
	ep := transformEpisode(&raw)
	return &ep, nil
}

// BestPodcastsParams selects a curated podcast page.
type BestPodcastsParams struct {
	GenreID int
	Page    int
	Region  string
}

// GetBestPodcasts fetches the curated podcast list.
func (c *Client) GetBestPodcasts(ctx context.Context, p BestPodcastsParams) (*BestPodcasts, error) {
	q := url.Values{}
	if p.GenreID > 0 {
		q.Set("genre_id", strconv.Itoa(p.GenreID))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Region != "" {
		q.Set("region", p.Region)
	}

	var raw rawBestPodcasts
	if err := c.get(ctx, "/best_podcasts", q, true, &raw); err != nil {
		return nil, err
	}
	return transformBestPodcasts(&raw), nil
}

// GetGenres fetches the genre taxonomy.
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	var raw struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genres", nil, true, &raw); err != nil {
		return nil, err
	}
	return raw.Genres, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, cacheable bool, target any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	cacheKey := ""
	if cacheable {
		sum := sha256.Sum256([]byte(u))
		cacheKey = "listennotes:" + hex.EncodeToString(sum[:8])
	}

	headers := map[string]string{
		"X-ListenAPI-Key": c.apiKey,
		"Content-Type":    "application/json",
	}

	body, err := c.rc.GetWithHeaders(ctx, u, headers, cacheKey)
	if err != nil {
		return mapStatusError(err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode listennotes response: %w", err)
	}
	return nil
}

// mapStatusError translates HTTP statuses into the messages surfaced to users.
func mapStatusError(err error) error {
	switch {
	case request.IsStatus(err, 429):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case request.IsStatus(err, 401):
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	case request.IsStatus(err, 404):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
}
