package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider is a Google Gemini provider.
type GeminiProvider struct {
	Model  string
	apiKey string
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider. The client is created lazily
// so an unset key does not fail construction.
func NewGeminiProvider(model, apiKeyEnv string) *GeminiProvider {
	return &GeminiProvider{
		Model:  model,
		apiKey: os.Getenv(apiKeyEnv),
	}
}

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.apiKey != ""
}

// Generate sends a prompt to Gemini and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	if g.client == nil {
		client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
		if err != nil {
			return "", fmt.Errorf("creating Gemini client: %w", err)
		}
		g.client = client
	}

	model := g.client.GenerativeModel(g.Model)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying client, if one was created.
func (g *GeminiProvider) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
