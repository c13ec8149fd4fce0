package summarize

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const openAIBaseURL = "https://api.openai.com/v1"

var errEmptyResponse = errors.New("empty response")

// openAIClient calls the OpenAI Chat Completions API.
type openAIClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

func newOpenAIClient(apiKey, model, baseURL string, hc *http.Client) *openAIClient {
	return &openAIClient{
		http:    orDefaultClient(hc),
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *openAIClient) Name() string { return "openai:" + c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type openAIChatResp struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openAIChatReq{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	var out openAIChatResp
	err := postJSON(ctx, c.http, c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, req, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
