package summarize

import (
	"context"
	"net/http"
	"strings"
)

// ollamaClient calls a local Ollama server's chat endpoint.
type ollamaClient struct {
	http     *http.Client
	model    string
	endpoint string
}

func newOllamaClient(model, endpoint string, hc *http.Client) *ollamaClient {
	return &ollamaClient{
		http:     orDefaultClient(hc),
		model:    strings.TrimPrefix(model, "ollama/"),
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

func (c *ollamaClient) Name() string { return "ollama:" + c.model }

type ollamaChatReq struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResp struct {
	Message chatMessage `json:"message"`
}

func (c *ollamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatReq{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	var out ollamaChatResp
	if err := postJSON(ctx, c.http, c.endpoint+"/api/chat", nil, req, &out); err != nil {
		return "", err
	}
	if out.Message.Content == "" {
		return "", errEmptyResponse
	}
	return out.Message.Content, nil
}
