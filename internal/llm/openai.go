package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// OpenAIClient talks to an OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *resty.Client
	model  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a chat completion client. BaseURL defaults to the
// public OpenAI API.
func NewOpenAIClient(opts Options) *OpenAIClient {
	base := opts.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		client: resty.New().
			SetBaseURL(strings.TrimRight(base, "/")).
			SetTimeout(opts.Timeout).
			SetAuthToken(opts.APIKey).
			SetHeader("Content-Type", "application/json"),
		model: opts.Model,
	}
}

// Rewrite sends one user message with the rewrite prompt and asks the service
// to constrain the answer to a JSON object.
func (c *OpenAIClient) Rewrite(ctx context.Context, title, description string) (Rewrite, error) {
	req := chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: buildPrompt(title, description)}},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	var out chatResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	zerolog.Ctx(ctx).Debug().
		Str("backend", string(BackendOpenAI)).
		Str("model", c.model).
		Dur("latency", time.Since(start)).
		Err(err).
		Msg("llm request")
	if err != nil {
		return Rewrite{}, fmt.Errorf("openai request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return Rewrite{}, fmt.Errorf("openai request failed: status=%d body=%s", resp.StatusCode(), truncate(resp.String(), 512))
	}
	if len(out.Choices) == 0 {
		return Rewrite{}, fmt.Errorf("%w: no choices in response", ErrMalformedOutput)
	}
	return parseRewrite(out.Choices[0].Message.Content)
}
