package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"podsumgo/pkg/config"
	"podsumgo/pkg/llm"
	"podsumgo/pkg/tracker"
)

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	apiKey      string
	modelName   string
	profiles    map[string]string // Map intent -> modelName
	tracker     *tracker.Tracker
	logPath     string

	mu sync.RWMutex
}

// NewClient creates a new Gemini client.
func NewClient(cfg config.LLMConfig, logPath string, t *tracker.Tracker) (*Client, error) {
	c := &Client{tracker: t, logPath: logPath}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure updates the client with new settings.
func (c *Client) Configure(cfg config.LLMConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apiKey = cfg.Key
	c.modelName = cfg.Model
	c.profiles = cfg.Profiles

	if c.modelName == "" {
		c.modelName = "gemini-2.5-flash"
	}

	if c.apiKey == "" {
		// Can't initialize without key.
		c.genaiClient = nil
		return nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: c.apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	c.genaiClient = client

	// Validate Model Availability
	if err := c.validateModel(context.Background()); err != nil {
		slog.Warn("Gemini model validation failed (proceeding anyway)", "error", err)
		// We do NOT return error here, to allow startup even if API is flaky/rate-limited.
		// If the key/model is truly invalid, actual generation calls will fail later.
	}

	return nil
}

// Close cleans up resources.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genaiClient = nil
}

// HasProfile checks if the provider has a specific profile configured.
func (c *Client) HasProfile(intent string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.profiles[intent]
	return ok && m != ""
}

// GenerateText sends a prompt and returns the text response.
func (c *Client) GenerateText(ctx context.Context, intent, prompt string) (string, error) {
	c.mu.RLock()
	client := c.genaiClient
	c.mu.RUnlock()

	if client == nil {
		return "", llm.Errorf(llm.KindNotConfigured, "gemini client not configured")
	}

	modelName, cfg := c.resolveModel(intent)

	resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", c.fail(intent, prompt, fmt.Errorf("generate text error: %w", err))
	}

	text, err := getResponseText(resp)
	if err != nil {
		return "", c.fail(intent, prompt, err)
	}

	c.succeed(intent, prompt, text)
	return text, nil
}

// GenerateAudioText sends a prompt with inline audio and returns the text response.
func (c *Client) GenerateAudioText(ctx context.Context, intent, prompt string, audio []byte, mimeType string) (string, error) {
	c.mu.RLock()
	client := c.genaiClient
	c.mu.RUnlock()

	if client == nil {
		return "", llm.Errorf(llm.KindNotConfigured, "gemini client not configured")
	}
	if len(audio) == 0 {
		return "", llm.Errorf(llm.KindGeneric, "empty audio payload")
	}
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}

	modelName, cfg := c.resolveModel(intent)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(audio, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return "", c.fail(intent, prompt, fmt.Errorf("generate audio text error: %w", err))
	}

	text, err := getResponseText(resp)
	if err != nil {
		return "", c.fail(intent, prompt, err)
	}

	c.succeed(intent, prompt, text)
	return text, nil
}

// HealthCheck verifies that the provider is configured and the model resolves.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	client := c.genaiClient
	name := c.modelName
	c.mu.RUnlock()

	if client == nil {
		return llm.Errorf(llm.KindNotConfigured, "gemini client not configured")
	}

	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}
	if _, err := client.Models.Get(ctx, name, nil); err != nil {
		return llm.Classify(fmt.Errorf("gemini health check: %w", err))
	}
	return nil
}

func (c *Client) succeed(intent, prompt, text string) {
	c.logPrompt(intent, prompt, text)
	if c.tracker != nil {
		c.tracker.TrackAPISuccess("gemini")
		c.tracker.TrackChars("gemini", len(prompt), len(text))
	}
}

func (c *Client) fail(intent, prompt string, err error) error {
	c.logPrompt(intent, prompt, fmt.Sprintf("ERROR: %v", err))
	if c.tracker != nil {
		c.tracker.TrackAPIFailure("gemini")
	}
	return llm.Classify(err)
}

func (c *Client) logPrompt(intent, prompt, response string) {
	if c.logPath == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return
	}

	f, err := os.OpenFile(c.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	wrappedResponse := llm.WordWrap(response, 80)
	truncatedPrompt := llm.TruncateBlock(prompt, 80)
	entry := fmt.Sprintf("[%s] PROMPT: %s\nPROMPT_TEXT:\n%s\n\nRESPONSE:\n%s\n%s\n",
		timestamp, intent, truncatedPrompt, wrappedResponse, strings.Repeat("-", 80))

	_, _ = f.WriteString(entry)
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", llm.Errorf(llm.KindSafety, "no candidates returned")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", llm.Errorf(llm.KindSafety, "candidate has no content (finish reason: %s)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", llm.Errorf(llm.KindGeneric, "empty response text")
	}
	return sb.String(), nil
}

// validateModel checks if the configured model is available for the API key.
func (c *Client) validateModel(ctx context.Context) error {
	// Ensure model name has 'models/' prefix
	name := c.modelName
	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}

	// Try to get the specific model (1 API call)
	_, err := c.genaiClient.Models.Get(ctx, name, nil)
	if err == nil {
		slog.Debug("Gemini model validation success", "model", c.modelName)
		return nil
	}

	slog.Warn("Gemini model validation failed, fetching available models...", "model", c.modelName, "error", err)

	// Fetch available models for recovery
	iter, listErr := c.genaiClient.Models.List(ctx, nil)
	if listErr != nil {
		slog.Warn("Failed to list models for recovery", "error", listErr)
		return nil // Proceed anyway
	}

	var availableModels []string
	for {
		resp, nextErr := iter.Next(ctx)
		if nextErr == iterator.Done {
			break
		}
		if nextErr != nil {
			break
		}
		if strings.Contains(strings.ToLower(resp.Name), "gemini") {
			availableModels = append(availableModels, resp.Name)
		}
	}

	slog.Error("Configured model not found", "configured", c.modelName)
	slog.Error("Available 'gemini' models for this key:")
	for _, m := range availableModels {
		slog.Error("- " + m)
	}

	return nil // Proceed anyway (lazy validation on generation)
}
