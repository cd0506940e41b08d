package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podsumgo/pkg/model"
)

// Confidence floors, measured in characters of input content and
// generated summary respectively.
const (
	highConfidenceContent = 500
	highConfidenceSummary = 100
	medConfidenceContent  = 200
	medConfidenceSummary  = 50
)

// SummarizeText generates a summary from textual content. The result is
// tagged source=description; callers on other paths retag it.
func (s *Service) SummarizeText(ctx context.Context, content string, opts model.Options, meta promptMeta) (model.Result, error) {
	start := time.Now()

	prompt := buildTextPrompt(content, opts, meta)
	text, err := s.provider.GenerateText(ctx, intentSummarize, prompt)
	if err != nil {
		return model.Result{}, fmt.Errorf("failed to generate summary from text content: %w", err)
	}

	summary := strings.TrimSpace(text)
	return model.Result{
		Summary:        summary,
		Source:         model.SourceDescription,
		ProcessingTime: time.Since(start),
		Confidence:     textConfidence(content, summary),
	}, nil
}

// summarizeMinimal generates a metadata-only preview when no content
// source survived. Confidence is always low; the model saw nothing.
func (s *Service) summarizeMinimal(ctx context.Context, opts model.Options, meta promptMeta) (model.Result, error) {
	start := time.Now()

	prompt := buildMinimalPrompt(opts, meta)
	text, err := s.provider.GenerateText(ctx, intentSummarize, prompt)
	if err != nil {
		return model.Result{}, fmt.Errorf("failed to generate summary from metadata: %w", err)
	}

	return model.Result{
		Summary:        strings.TrimSpace(text),
		Source:         model.SourceFallback,
		ProcessingTime: time.Since(start),
		Confidence:     model.ConfidenceLow,
	}, nil
}

// textConfidence grades a summary purely by input and output lengths.
func textConfidence(content, summary string) model.Confidence {
	switch {
	case len(content) >= highConfidenceContent && len(summary) >= highConfidenceSummary:
		return model.ConfidenceHigh
	case len(content) >= medConfidenceContent && len(summary) >= medConfidenceSummary:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
