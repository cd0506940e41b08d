package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"podsumgo/pkg/model"
)

const fallbackImageURL = "https://images.unsplash.com/photo-1478737270239-2f02b77fc618?w=400"

// rawEpisode mirrors the ListenNotes episode payload.
type rawEpisode struct {
	ID                  string `json:"id"`
	TitleOriginal       string `json:"title_original"`
	Title               string `json:"title"`
	DescriptionOriginal string `json:"description_original"`
	Description         string `json:"description"`
	Thumbnail           string `json:"thumbnail"`
	Image               string `json:"image"`
	PubDateMS           int64  `json:"pub_date_ms"`
	AudioLengthSec      int    `json:"audio_length_sec"`
	Audio               string      `json:"audio"`
	Podcast             *rawPodcast `json:"podcast"`
	GenreIDs            []int       `json:"genre_ids"`
}

type rawPodcast struct {
	ID                string `json:"id"`
	TitleOriginal     string `json:"title_original"`
	Title             string `json:"title"`
	PublisherOriginal string `json:"publisher_original"`
	Publisher         string `json:"publisher"`
	Image             string `json:"image"`
	Thumbnail         string `json:"thumbnail"`
}

type searchResponse struct {
	Count      int          `json:"count"`
	Total      int          `json:"total"`
	Results    []rawEpisode `json:"results"`
	NextOffset int          `json:"next_offset"`
}

type rawBestPodcasts struct {
	Podcasts []struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		Publisher     string `json:"publisher"`
		Image         string `json:"image"`
		Thumbnail     string `json:"thumbnail"`
		Description   string `json:"description"`
		TotalEpisodes int    `json:"total_episodes"`
		Explicit      bool   `json:"explicit_content"`
	} `json:"podcasts"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
	PageNumber  int  `json:"page_number"`
	Total       int  `json:"total"`
}

// BestPodcasts is the transformed curated list page.
type BestPodcasts struct {
	Podcasts    []model.Episode `json:"podcasts"`
	HasNext     bool            `json:"hasNext"`
	HasPrevious bool            `json:"hasPrevious"`
	PageNumber  int             `json:"pageNumber"`
	Total       int             `json:"total"`
}

// Genre is one entry of the genre taxonomy.
type Genre struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id,omitempty"`
}

// transformEpisode maps a raw ListenNotes episode onto the API shape.
func transformEpisode(ep *rawEpisode) model.Episode {
	title := firstNonEmpty(ep.TitleOriginal, ep.Title, "Untitled Episode")
	desc := CleanDescription(firstNonEmpty(ep.DescriptionOriginal, ep.Description, "No description available"))

	image := firstNonEmpty(ep.Image, ep.Thumbnail)
	host := "Unknown Host"
	if ep.Podcast != nil {
		image = firstNonEmpty(image, ep.Podcast.Image, ep.Podcast.Thumbnail)
		host = firstNonEmpty(ep.Podcast.PublisherOriginal, ep.Podcast.Publisher, host)
	}
	if image == "" {
		image = fallbackImageURL
	}

	return model.Episode{
		ID:          ep.ID,
		Title:       title,
		Description: desc,
		ImageURL:    image,
		AudioURL:    ep.Audio,
		Host:        host,
		Date:        formatDate(ep.PubDateMS),
		Duration:    FormatDuration(ep.AudioLengthSec),
		Category:    "Technology",
	}
}

func transformBestPodcasts(raw *rawBestPodcasts) *BestPodcasts {
	out := &BestPodcasts{
		Podcasts:    make([]model.Episode, 0, len(raw.Podcasts)),
		HasNext:     raw.HasNext,
		HasPrevious: raw.HasPrevious,
		PageNumber:  raw.PageNumber,
		Total:       raw.Total,
	}
	for _, p := range raw.Podcasts {
		out.Podcasts = append(out.Podcasts, model.Episode{
			ID:          p.ID,
			Title:       firstNonEmpty(p.Title, "Untitled Podcast"),
			Description: CleanDescription(firstNonEmpty(p.Description, "No description available")),
			ImageURL:    firstNonEmpty(p.Image, p.Thumbnail, fallbackImageURL),
			Host:        firstNonEmpty(p.Publisher, "Unknown Host"),
			Date:        "Recent",
			Duration:    fmt.Sprintf("%d episodes", p.TotalEpisodes),
			Category:    "Technology",
		})
	}
	return out
}

// CleanDescription strips HTML markup and entities from a description.
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}

	// goquery handles malformed markup and entity decoding in one pass
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err == nil {
		desc = doc.Text()
	}
	desc = strings.ReplaceAll(desc, " ", " ")
	return strings.TrimSpace(desc)
}

// FormatDuration renders seconds as "1h 23m" or "45 min".
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%d min", minutes)
}

func formatDate(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("January 2, 2006")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ScoreEpisodeQuality ranks search hits by how well they summarize.
// Richer descriptions and mid-length audio rank higher.
func ScoreEpisodeQuality(ep *rawEpisode) int {
	descLength := len(firstNonEmpty(ep.DescriptionOriginal, ep.Description))
	titleLength := len(firstNonEmpty(ep.TitleOriginal, ep.Title))
	hasPublisher := ep.Podcast != nil && firstNonEmpty(ep.Podcast.PublisherOriginal, ep.Podcast.Publisher) != ""
	audioLength := ep.AudioLengthSec

	score := 0

	// Description length scoring (most important for summarization)
	switch {
	case descLength >= 2000:
		score += 50
	case descLength >= 1000:
		score += 35
	case descLength >= 500:
		score += 20
	case descLength >= 300:
		score += 10
	}

	// Title quality scoring
	switch {
	case titleLength >= 30:
		score += 10
	case titleLength >= 15:
		score += 5
	}

	// Publisher info adds credibility
	if hasPublisher {
		score += 10
	}

	// Audio length (prefer substantial content, but not too long)
	switch {
	case audioLength >= 1800 && audioLength <= 3600:
		score += 15
	case audioLength >= 900 && audioLength < 1800:
		score += 10
	case audioLength >= 600:
		score += 5
	}

	return score
}
