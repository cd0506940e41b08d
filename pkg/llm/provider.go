package llm

import (
	"context"
)

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateText sends a prompt and returns the text response.
	GenerateText(ctx context.Context, intent, prompt string) (string, error)

	// GenerateAudioText sends a prompt plus raw audio bytes and returns the
	// text response. Used for transcription-and-summarize in one call.
	GenerateAudioText(ctx context.Context, intent, prompt string, audio []byte, mimeType string) (string, error)

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error

	// HasProfile checks if the provider has a specific profile configured.
	HasProfile(intent string) bool
}
