package quality

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"podsumgo/pkg/model"
)

// Scoring constants. Tuned against real catalog descriptions, adjust with care.
const (
	veryRichScore = 85
	richScore     = 70
	moderateScore = 55
	limitedScore  = 40
	sparseScore   = 15

	lowQualityPenaltyPer  = 15
	lowQualityPenaltyCap  = 50
	highQualityBonusPer   = 8
	highQualityBonusCap   = 25
	timestampPenaltyPer   = 20
	timestampPenaltyCap   = 60
	promotionalURLPenalty = 15
	contentURLBonus       = 8

	// Expected description size relative to audio duration, chars per second
	minCharsPerSecond = 1.2
	maxCharsPerSecond = 4.0

	// Below this score the description alone is not trusted for summarization
	AudioThreshold = 70
)

// lowQualityIndicators are promotional/boilerplate phrases that pollute
// episode descriptions.
var lowQualityIndicators = []string{
	"in this episode i go through",
	"in this video, i talk about",
	"in this video, i explore",
	"in this podcast, i discuss",
	"read the full article here:",
	"show notes available at",
	"subscribe to our podcast",
	"visit our website",
	"follow us on",
	"want to be a guest",
	"want to be a sponsor",
	"support this podcast",
	"patreon.com",
	"donate to",
	"buy us a coffee",
	"don't forget to subscribe",
	"like and subscribe",
	"hit the bell",
	"episode #",
	"ep. ",
	"episode ",
	"@",
	"twitter.com",
	"instagram.com",
	"facebook.com",
	"linkedin.com",
	"youtube.com",
	"spotify.com/podcast",
	"apple.com/podcast",
	"powered by",
	"brought to you by",
	"this episode is sponsored",
	"our sponsor",
	"ad-free",
	"premium subscribers",
	"© copyright",
	"all rights reserved",
	"transcript available",
	"full transcript",
}

// highQualityIndicators are conversational/analytical phrases that signal
// actual episode prose.
var highQualityIndicators = []string{
	"we discuss",
	"we talk about",
	"we explore",
	"i spoke with",
	"conversation with",
	"interview with",
	"guest explains",
	"guest shares",
	"we dive into",
	"breaking down",
	"walking through",
	"shared insights",
	"personal experience",
	"behind the scenes",
	"lessons learned",
	"what i learned",
	"key takeaway",
	"main point",
	"interesting perspective",
	"fascinating story",
	"real-world example",
	"case study",
	"practical advice",
	"actionable tips",
	"step by step",
	"how to approach",
	"challenge faced",
	"solution discussed",
	"debate about",
	"different viewpoints",
	"expert opinion",
	"industry insights",
	"personal story",
	"anecdote about",
	"experience with",
}

var (
	// Matches timestamp-list entries like "0:00 Intro" or "10:20 The Tests"
	timestampRe = regexp.MustCompile(`\d+:\d+\s+[A-Za-z\s]+`)
	urlRe       = regexp.MustCompile(`https?://\S+`)
	// Matches the catalog's display durations: "1h 23m", "45 min", "2h"
	displayDurationRe = regexp.MustCompile(`^(?:(\d+)\s*h(?:ours?)?)?\s*(?:(\d+)\s*m(?:in(?:ute)?s?)?)?$`)
)

// promotionalURLMarkers classify a URL as promotional rather than content.
var promotionalURLMarkers = []string{"patreon", "subscribe", "donate", "sponsor"}

// Assess derives a quality score for an episode description.
// Deterministic, no I/O. durationHint may be empty.
func Assess(description, durationHint string) model.Assessment {
	length := len(description)
	wordCount := len(strings.Fields(description))
	lower := strings.ToLower(description)

	var score int
	var reasons []string

	// Base score on length and word count
	switch {
	case length >= 800 && wordCount >= 100:
		score = veryRichScore
		reasons = append(reasons, "Very rich description content")
	case length >= 500 && wordCount >= 60:
		score = richScore
		reasons = append(reasons, "Rich description content")
	case length >= 300 && wordCount >= 40:
		score = moderateScore
		reasons = append(reasons, "Moderate description quality")
	case length >= 200 && wordCount >= 25:
		score = limitedScore
		reasons = append(reasons, "Limited description content")
	default:
		score = sparseScore
		reasons = append(reasons, "Description too short or sparse")
	}

	lowMatches := countIndicators(lower, lowQualityIndicators)
	highMatches := countIndicators(lower, highQualityIndicators)

	if lowMatches > 0 {
		score -= capped(lowMatches*lowQualityPenaltyPer, lowQualityPenaltyCap)
		reasons = append(reasons, fmt.Sprintf("Description contains %d low-quality indicators", lowMatches))
	}

	if highMatches > 0 {
		score += capped(highMatches*highQualityBonusPer, highQualityBonusCap)
		reasons = append(reasons, fmt.Sprintf("Description contains %d high-quality indicators", highMatches))
	}

	// Timestamp lists signal a table of contents, not prose
	timestamps := timestampRe.FindAllString(description, -1)
	if len(timestamps) > 0 {
		score -= capped(len(timestamps)*timestampPenaltyPer, timestampPenaltyCap)
		reasons = append(reasons, fmt.Sprintf("Description contains %d timestamps, likely table of contents", len(timestamps)))
	}

	urls := urlRe.FindAllString(description, -1)
	promotional := 0
	for _, u := range urls {
		if isPromotionalURL(u) {
			promotional++
		}
	}
	if len(urls) > 0 {
		if promotional > 0 {
			score -= promotionalURLPenalty
			reasons = append(reasons, "Description contains promotional URLs")
		} else {
			score += contentURLBonus
			reasons = append(reasons, "Description contains content URLs")
		}
	}

	// Compare description size against what the audio length suggests
	if audioSeconds := ParseDurationSeconds(durationHint); audioSeconds > 0 {
		expectedMin := float64(audioSeconds) * minCharsPerSecond
		expectedMax := float64(audioSeconds) * maxCharsPerSecond
		ratio := float64(length) / expectedMin

		switch {
		case ratio < 0.5:
			score -= 60
			reasons = append(reasons, fmt.Sprintf("Text length (%d chars) much shorter than expected for %s audio", length, durationHint))
		case ratio < 0.8:
			score -= 30
			reasons = append(reasons, fmt.Sprintf("Text length somewhat short for %s audio", durationHint))
		case float64(length) > expectedMax:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Very detailed description for %s audio", durationHint))
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return model.Assessment{
		Score:          score,
		ShouldUseAudio: score < AudioThreshold,
		Reason:         pickReason(reasons, len(timestamps), lowMatches, highMatches, len(urls), score),
	}
}

// pickReason surfaces exactly one reason by fixed priority: dominant
// timestamp lists, then low-quality markers, then high-quality markers
// (only when the score held up), then URLs, then the base length reason.
func pickReason(reasons []string, timestamps, lowMatches, highMatches, urls, score int) string {
	find := func(substr ...string) string {
		for _, r := range reasons {
			for _, s := range substr {
				if strings.Contains(r, s) {
					return r
				}
			}
		}
		return ""
	}

	var reason string
	switch {
	case timestamps > 2:
		reason = find("timestamps")
	case lowMatches > 0:
		reason = find("low-quality indicators")
	case highMatches > 0 && score >= richScore:
		reason = find("high-quality indicators")
	case urls > 0:
		reason = find("promotional URLs", "content URLs")
	}

	if reason == "" && len(reasons) > 0 {
		reason = reasons[0]
	}
	if reason == "" {
		reason = "Quality assessment complete"
	}
	return reason
}

// ParseDurationSeconds parses H:MM:SS, MM:SS, raw seconds, and the
// display forms the catalog produces ("1h 23m", "45 min").
// Returns 0 for anything it cannot parse.
func ParseDurationSeconds(hint string) int {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return 0
	}

	if m := displayDurationRe.FindStringSubmatch(strings.ToLower(hint)); m != nil && (m[1] != "" || m[2] != "") {
		secs := 0
		if m[1] != "" {
			h, _ := strconv.Atoi(m[1])
			secs += h * 3600
		}
		if m[2] != "" {
			min, _ := strconv.Atoi(m[2])
			secs += min * 60
		}
		return secs
	}

	parts := strings.Split(hint, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	case 2:
		return nums[0]*60 + nums[1]
	case 1:
		return nums[0]
	default:
		return 0
	}
}

// ContentURLs returns the non-promotional URLs found in a description.
// The orchestrator uses these as web-page summarization candidates.
func ContentURLs(description string) []string {
	var out []string
	for _, u := range urlRe.FindAllString(description, -1) {
		if !isPromotionalURL(u) && !isPlatformURL(u) {
			out = append(out, strings.TrimRight(u, ").,"))
		}
	}
	return out
}

func isPromotionalURL(u string) bool {
	lu := strings.ToLower(u)
	for _, m := range promotionalURLMarkers {
		if strings.Contains(lu, m) {
			return true
		}
	}
	return false
}

// isPlatformURL filters podcast-platform links that never carry article text.
func isPlatformURL(u string) bool {
	lu := strings.ToLower(u)
	return strings.Contains(lu, "spotify.com/podcast") || strings.Contains(lu, "apple.com/podcast")
}

func countIndicators(lower string, indicators []string) int {
	n := 0
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			n++
		}
	}
	return n
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
