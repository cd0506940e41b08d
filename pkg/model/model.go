package model

import (
	"encoding/json"
	"time"
)

// Episode represents a single podcast installment as returned by the catalog.
// Episodes are inputs to the summarization pipeline and are never mutated.
type Episode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	AudioURL    string `json:"audioUrl,omitempty"` // direct audio URL, may be empty
	Host        string `json:"host"`
	Date        string `json:"date"`
	Duration    string `json:"duration,omitempty"` // display form, e.g. "1h 23m"
	Category    string `json:"category"`
}

// Format selects the style of a generated summary.
type Format string

const (
	FormatBulletPoints     Format = "bullet-points"
	FormatParagraph        Format = "paragraph"
	FormatKeyTakeaways     Format = "key-takeaways"
	FormatExecutiveSummary Format = "executive-summary"
)

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatBulletPoints, FormatParagraph, FormatKeyTakeaways, FormatExecutiveSummary:
		return true
	}
	return false
}

// Length selects the target size of a generated summary.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Valid reports whether l is one of the supported lengths.
func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// TargetChars returns the target character count for a summary of length l.
func (l Length) TargetChars() int {
	switch l {
	case LengthShort:
		return 300
	case LengthLong:
		return 1000
	default:
		return 600
	}
}

// Tolerance returns the acceptable deviation from TargetChars.
func (l Length) Tolerance() int {
	switch l {
	case LengthShort:
		return 50
	case LengthLong:
		return 150
	default:
		return 100
	}
}

// Options configures a single summarization request.
type Options struct {
	Format Format `json:"format"`
	Length Length `json:"length"`
}

// Source identifies which content fed the final summary.
type Source string

const (
	SourceDescription Source = "description"
	SourceAudio       Source = "audio"
	SourceURL         Source = "url"
	SourceFallback    Source = "fallback"
)

// Confidence is a coarse quality label derived from input/output lengths only.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Assessment is the verdict of the content quality assessor. It is derived,
// never persisted, and recomputed on every summarization request.
type Assessment struct {
	Score          int    `json:"score"` // 0-100
	ShouldUseAudio bool   `json:"shouldUseAudio"`
	Reason         string `json:"reason"`
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	Summary        string        `json:"summary"`
	Source         Source        `json:"source"`
	ProcessingTime time.Duration `json:"processingTimeMs"`
	Confidence     Confidence    `json:"confidence"`
}

// MarshalJSON reports the processing time in milliseconds, which is what
// API consumers expect from the processingTimeMs field.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Summary        string     `json:"summary"`
		Source         Source     `json:"source"`
		ProcessingTime int64      `json:"processingTimeMs"`
		Confidence     Confidence `json:"confidence"`
	}
	return json.Marshal(wire{r.Summary, r.Source, r.ProcessingTime.Milliseconds(), r.Confidence})
}

// Stage names a phase of the summarization pipeline.
type Stage string

const (
	StageAnalyzing    Stage = "analyzing"
	StageProcessing   Stage = "processing"
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// Progress is an ephemeral pipeline event. Emitted, never stored.
type Progress struct {
	Stage         Stage         `json:"stage"`
	Message       string        `json:"message"`
	Percent       int           `json:"progress"` // 0-100, monotonic per run
	EstimatedTime time.Duration `json:"estimatedTimeMs,omitempty"`
}

// MarshalJSON reports the time estimate in milliseconds.
func (p Progress) MarshalJSON() ([]byte, error) {
	type wire struct {
		Stage         Stage  `json:"stage"`
		Message       string `json:"message"`
		Percent       int    `json:"progress"`
		EstimatedTime int64  `json:"estimatedTimeMs,omitempty"`
	}
	return json.Marshal(wire{p.Stage, p.Message, p.Percent, p.EstimatedTime.Milliseconds()})
}

// SummaryRecord is the persisted form of a summary. At most one current
// record exists per episode id; regeneration overwrites it wholesale.
type SummaryRecord struct {
	ID             string    `json:"id"`
	EpisodeID      string    `json:"episodeId"`
	Content        string    `json:"content"`
	Format         Format    `json:"format"`
	Length         Length    `json:"length"`
	CharacterCount int       `json:"characterCount"`
	CreatedAt      time.Time `json:"createdAt"`
	Episode        Episode   `json:"podcast"`
}
