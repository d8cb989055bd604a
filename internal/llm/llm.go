package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Backend tags a rewrite service implementation.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendYandex Backend = "yandex"
)

var (
	// ErrMissingCredential means the backend cannot be built from the
	// current configuration. It is fatal, never retried.
	ErrMissingCredential = errors.New("llm: missing credential")
	// ErrMalformedOutput means the model did not answer with a JSON object
	// holding non-empty title and description.
	ErrMalformedOutput = errors.New("llm: malformed model output")
	ErrUnknownBackend  = errors.New("llm: unknown backend")
)

// Rewrite is the rewritten title/description pair.
type Rewrite struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Rewriter paraphrases a news title and description.
type Rewriter interface {
	Rewrite(ctx context.Context, title, description string) (Rewrite, error)
}

// Options configure a Rewriter built by New.
type Options struct {
	Backend     Backend
	APIKey      string
	Model       string
	BaseURL     string
	FolderID    string // yandex only
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// New builds the Rewriter selected by opts.Backend.
func New(opts Options) (Rewriter, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: api key for %s backend", ErrMissingCredential, opts.Backend)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	switch opts.Backend {
	case BackendOpenAI:
		return NewOpenAIClient(opts), nil
	case BackendYandex:
		if opts.FolderID == "" {
			return nil, fmt.Errorf("%w: folder id for yandex backend", ErrMissingCredential)
		}
		return NewYandexClient(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// parseRewrite decodes the model text into a Rewrite. Some models wrap the
// object in a markdown code fence; that is stripped first.
func parseRewrite(text string) (Rewrite, error) {
	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")
		clean = strings.TrimSpace(clean)
	}

	var out struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return Rewrite{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if out.Title == nil || strings.TrimSpace(*out.Title) == "" {
		return Rewrite{}, fmt.Errorf("%w: missing title", ErrMalformedOutput)
	}
	if out.Description == nil || strings.TrimSpace(*out.Description) == "" {
		return Rewrite{}, fmt.Errorf("%w: missing description", ErrMalformedOutput)
	}
	return Rewrite{
		Title:       strings.TrimSpace(*out.Title),
		Description: strings.TrimSpace(*out.Description),
	}, nil
}

// truncate shortens response bodies quoted in errors.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
