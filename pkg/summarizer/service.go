// Package summarizer runs the multi-stage summarization pipeline: content
// quality assessment, source selection, and fallback between article,
// description, and audio strategies.
package summarizer

import (
	"context"
	"log/slog"
	"time"

	"podsumgo/pkg/llm"
	"podsumgo/pkg/model"
	"podsumgo/pkg/quality"
	"podsumgo/pkg/request"
	"podsumgo/pkg/webpage"
)

// Intent labels passed to the provider so model profiles can route text
// and audio calls to different models.
const (
	intentSummarize = "summarize"
	intentAudio     = "audio"
)

// Score floor for trusting a description outright instead of entering
// the audio-first fallback ladder. Deliberately above the assessor's own
// audio cutoff; the gap sends borderline descriptions through fallback.
const directDescriptionScore = 75

// Inline processing-time estimates, from observed latency of each path.
const (
	estimateURL         = 8 * time.Second
	estimateDescription = 5 * time.Second
	estimateFallback    = 40 * time.Second
	estimateAudio       = 50 * time.Second
)

// Descriptions at or below this length are considered inconsequential and
// eligible for the metadata-only last resort.
const minimalDescriptionChars = 200

// ProgressFunc receives pipeline progress events. May be nil.
type ProgressFunc func(model.Progress)

// Response is the terminal outcome of one pipeline run.
type Response struct {
	Success      bool          `json:"success"`
	Result       *model.Result `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	CanRetry     bool          `json:"canRetry,omitempty"`
	FallbackUsed bool          `json:"fallbackUsed,omitempty"`
}

// Service orchestrates the summarization pipeline. It is stateless;
// concurrent runs for different episodes do not interfere.
type Service struct {
	provider      llm.Provider
	fetcher       *webpage.Fetcher
	rc            *request.Client
	maxAudioBytes int64
}

func New(provider llm.Provider, fetcher *webpage.Fetcher, rc *request.Client, maxAudioBytes int64) *Service {
	return &Service{
		provider:      provider,
		fetcher:       fetcher,
		rc:            rc,
		maxAudioBytes: maxAudioBytes,
	}
}

// Summarize runs the full pipeline for one episode. Sub-steps run
// strictly sequentially because each is a fallback for the previous.
// Cancellation stops the run silently: no error event, no error message.
func (s *Service) Summarize(ctx context.Context, ep model.Episode, opts model.Options, onProgress ProgressFunc) Response {
	emit(onProgress, model.StageAnalyzing, "Analyzing content quality...", 10, 0)

	assessment := quality.Assess(ep.Description, ep.Duration)
	slog.Info("content quality assessed",
		"episode", ep.ID,
		"title", ep.Title,
		"score", assessment.Score,
		"useAudio", assessment.ShouldUseAudio,
		"reason", assessment.Reason)

	if !assessment.ShouldUseAudio && assessment.Score >= directDescriptionScore {
		return s.summarizeDirect(ctx, ep, opts, onProgress)
	}
	return s.summarizeWithFallback(ctx, ep, opts, assessment, onProgress)
}

// summarizeDirect handles high-quality descriptions: a linked article
// when one exists, otherwise the description itself.
func (s *Service) summarizeDirect(ctx context.Context, ep model.Episode, opts model.Options, onProgress ProgressFunc) Response {
	if urls := quality.ContentURLs(ep.Description); len(urls) > 0 {
		emit(onProgress, model.StageProcessing, "Fetching additional content from article URL...", 20, 0)

		if content, ok := s.fetcher.Fetch(ctx, urls[0]); ok {
			res, err := s.SummarizeText(ctx, content, opts, promptMeta{Title: ep.Title})
			if err == nil {
				res.Source = model.SourceURL
				emit(onProgress, model.StageComplete, "Summary generated from article content", 100, 0)
				return Response{Success: true, Result: &res}
			}
			if ctx.Err() != nil {
				return canceled()
			}
			slog.Warn("article summarization failed, using description", "episode", ep.ID, "error", err)
		}
	}

	emit(onProgress, model.StageProcessing, "Processing episode description...", 50, estimateDescription)
	emit(onProgress, model.StageSummarizing, "Generating summary from description...", 60, 0)

	res, err := s.SummarizeText(ctx, ep.Description, opts, metaFromEpisode(ep))
	if err != nil {
		if ctx.Err() != nil {
			return canceled()
		}
		slog.Error("description summarization failed", "episode", ep.ID, "error", err)
		return s.fail(onProgress, "Failed to process episode description")
	}

	emit(onProgress, model.StageComplete, "Summary generated successfully!", 100, 0)
	return Response{Success: true, Result: &res}
}

// summarizeWithFallback is the audio-first ladder for everything the
// assessor did not trust: audio, then article, then description, then a
// metadata-only preview for near-empty descriptions. Audio only runs
// when the assessor asked for it; a borderline description with a score
// just under the direct cutoff skips straight to the text path.
func (s *Service) summarizeWithFallback(ctx context.Context, ep model.Episode, opts model.Options, assessment model.Assessment, onProgress ProgressFunc) Response {
	urls := quality.ContentURLs(ep.Description)

	if assessment.ShouldUseAudio && ep.AudioURL != "" {
		emit(onProgress, model.StageTranscribing, "Processing audio content for better quality...", 30, 35*time.Second)

		res, err := s.TranscribeAndSummarize(ctx, ep.AudioURL, opts)
		if err == nil {
			emit(onProgress, model.StageComplete, "Summary generated from audio transcription", 100, 0)
			return Response{Success: true, Result: &res}
		}
		if ctx.Err() != nil {
			return canceled()
		}
		slog.Warn("audio summarization failed", "episode", ep.ID, "error", err)

		if len(urls) > 0 {
			emit(onProgress, model.StageProcessing, "Audio processing failed. Trying URL content...", 40, 0)

			if content, ok := s.fetcher.Fetch(ctx, urls[0]); ok {
				urlRes, urlErr := s.SummarizeText(ctx, content, opts, promptMeta{Title: ep.Title})
				if urlErr == nil {
					urlRes.Source = model.SourceURL
					emit(onProgress, model.StageComplete, "Summary generated from URL content", 100, 0)
					return Response{Success: true, Result: &urlRes}
				}
				if ctx.Err() != nil {
					return canceled()
				}
				slog.Warn("url content summarization failed", "episode", ep.ID, "error", urlErr)
			}
		}
	}

	emit(onProgress, model.StageProcessing, "Processing available description...", 60, 0)

	res, err := s.SummarizeText(ctx, ep.Description, opts, promptMeta{Title: ep.Title})
	if err == nil && res.Confidence != model.ConfidenceLow {
		res.Source = model.SourceFallback
		emit(onProgress, model.StageComplete, "Summary generated from description", 100, 0)
		return Response{Success: true, Result: &res, FallbackUsed: true}
	}
	if ctx.Err() != nil {
		return canceled()
	}
	if err != nil {
		slog.Warn("description fallback failed", "episode", ep.ID, "error", err)
	} else {
		slog.Info("description fallback rejected, confidence too low", "episode", ep.ID)
	}

	if len(ep.Description) <= minimalDescriptionChars {
		emit(onProgress, model.StageSummarizing, "Generating preview from episode metadata...", 80, 0)

		minRes, minErr := s.summarizeMinimal(ctx, opts, metaFromEpisode(ep))
		if minErr == nil {
			emit(onProgress, model.StageComplete, "Preview generated from episode metadata", 100, 0)
			return Response{Success: true, Result: &minRes, FallbackUsed: true}
		}
		if ctx.Err() != nil {
			return canceled()
		}
		slog.Warn("metadata fallback failed", "episode", ep.ID, "error", minErr)
	}

	return s.fail(onProgress, "Failed to generate summary from both audio and description")
}

// EstimateProcessingTime predicts how long a run will take and which
// strategy it will use. Pure; no network calls.
func (s *Service) EstimateProcessingTime(ep model.Episode) (time.Duration, model.Source) {
	assessment := quality.Assess(ep.Description, ep.Duration)

	if !assessment.ShouldUseAudio && assessment.Score >= directDescriptionScore {
		if len(quality.ContentURLs(ep.Description)) > 0 {
			return estimateURL, model.SourceDescription
		}
		return estimateDescription, model.SourceDescription
	}
	if len(ep.Description) > minimalDescriptionChars {
		return estimateFallback, model.SourceFallback
	}
	return estimateAudio, model.SourceAudio
}

// fail emits the terminal error event. Failures are never permanent from
// the pipeline's point of view; retry is always the caller's call.
func (s *Service) fail(onProgress ProgressFunc, msg string) Response {
	emit(onProgress, model.StageError, msg, 0, 0)
	return Response{Success: false, Error: msg, CanRetry: true}
}

// canceled ends the run without an error event. A cancelled request is
// not a failure and must not surface a user-visible message.
func canceled() Response {
	return Response{Success: false}
}

func emit(onProgress ProgressFunc, stage model.Stage, msg string, percent int, estimate time.Duration) {
	if onProgress == nil {
		return
	}
	onProgress(model.Progress{
		Stage:         stage,
		Message:       msg,
		Percent:       percent,
		EstimatedTime: estimate,
	})
}
