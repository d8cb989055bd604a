package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultYandexURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// YandexClient talks to the YandexGPT foundation models completion endpoint.
type YandexClient struct {
	client      *resty.Client
	url         string
	modelURI    string
	temperature float64
	maxTokens   int
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type yandexRequest struct {
	ModelURI          string `json:"modelUri"`
	CompletionOptions struct {
		Stream      bool    `json:"stream"`
		Temperature float64 `json:"temperature"`
		MaxTokens   string  `json:"maxTokens"`
	} `json:"completionOptions"`
	Messages []yandexMessage `json:"messages"`
}

type yandexResponse struct {
	Result struct {
		Alternatives []struct {
			Message yandexMessage `json:"message"`
			Status  string        `json:"status"`
		} `json:"alternatives"`
	} `json:"result"`
}

// NewYandexClient creates a completion client. The model URI is composed as
// gpt://<folder>/<model>.
func NewYandexClient(opts Options) *YandexClient {
	url := opts.BaseURL
	if url == "" {
		url = defaultYandexURL
	}
	model := opts.Model
	if model == "" {
		model = "yandexgpt-lite"
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &YandexClient{
		client: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("Authorization", "Api-Key "+opts.APIKey).
			SetHeader("x-folder-id", opts.FolderID).
			SetHeader("Content-Type", "application/json"),
		url:         url,
		modelURI:    fmt.Sprintf("gpt://%s/%s", opts.FolderID, model),
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Rewrite sends a system and a user message, non-streaming. The answer text
// at result.alternatives[0].message.text is itself a JSON object.
func (c *YandexClient) Rewrite(ctx context.Context, title, description string) (Rewrite, error) {
	var req yandexRequest
	req.ModelURI = c.modelURI
	req.CompletionOptions.Stream = false
	req.CompletionOptions.Temperature = c.temperature
	req.CompletionOptions.MaxTokens = strconv.Itoa(c.maxTokens)
	req.Messages = []yandexMessage{
		{Role: "system", Text: systemPrompt},
		{Role: "user", Text: buildPrompt(title, description)},
	}

	var out yandexResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(c.url)
	zerolog.Ctx(ctx).Debug().
		Str("backend", string(BackendYandex)).
		Str("model_uri", c.modelURI).
		Dur("latency", time.Since(start)).
		Err(err).
		Msg("llm request")
	if err != nil {
		return Rewrite{}, fmt.Errorf("yandex request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return Rewrite{}, fmt.Errorf("yandex request failed: status=%d body=%s", resp.StatusCode(), truncate(resp.String(), 512))
	}
	if len(out.Result.Alternatives) == 0 {
		return Rewrite{}, fmt.Errorf("%w: no alternatives in response", ErrMalformedOutput)
	}
	return parseRewrite(out.Result.Alternatives[0].Message.Text)
}
