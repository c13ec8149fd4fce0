package summarize

import (
	"context"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 1024
)

// anthropicClient calls the Anthropic Messages API.
type anthropicClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

func newAnthropicClient(apiKey, model, baseURL string, hc *http.Client) *anthropicClient {
	return &anthropicClient{
		http:    orDefaultClient(hc),
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *anthropicClient) Name() string { return "anthropic:" + c.model }

type anthropicReq struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResp struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := anthropicReq{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}
	var out anthropicResp
	err := postJSON(ctx, c.http, c.baseURL+"/messages", map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}, req, &out)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errEmptyResponse
	}
	return b.String(), nil
}
