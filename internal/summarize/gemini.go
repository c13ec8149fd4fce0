package summarize

import (
	"context"
	"fmt"
	"net/http"

	genai "google.golang.org/genai"
)

// geminiClient is a thin wrapper around the official genai client.
type geminiClient struct {
	cli   *genai.Client
	model string
}

// newGeminiClient creates a client. An empty baseURL selects the public
// Gemini API.
func newGeminiClient(ctx context.Context, apiKey, model, baseURL string, hc *http.Client) (*geminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  hc,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiClient{cli: cli, model: model}, nil
}

func (g *geminiClient) Name() string { return "gemini:" + g.model }

func (g *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
