// Package relay forwards a single prompt to an OpenAI-compatible
// chat-completions endpoint and returns the assistant's text.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

const completionsPath = "/chat/completions"

type Options struct {
	// URL is the full chat-completions endpoint, e.g. http://localhost:11434/v1/chat/completions.
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
	// HTTPClient is optional; tests swap in their own transport.
	HTTPClient *http.Client
}

// Relay is safe for concurrent use. It holds no per-request state.
type Relay struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *log.Logger
}

func New(opts Options, logger *log.Logger) (*Relay, error) {
	base, err := BaseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("model name is required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = base
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{}
	}

	return &Relay{
		client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		timeout: opts.Timeout,
		logger:  logger,
	}, nil
}

func (r *Relay) Model() string { return r.model }

func (r *Relay) Timeout() time.Duration { return r.timeout }

// Complete sends prompt as a single user message and returns
// choices[0].message.content. A response with no choices yields "" and no
// error. Every error returned is a *Failure.
func (r *Relay) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("sending chat completion", "model", r.model, "prompt_len", len(prompt))
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: false,
	})
	if err != nil {
		return "", classify(err, r.timeout)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// BaseURL turns a full chat-completions URL into the base go-openai expects.
// A URL without the completions suffix is taken as the base already.
func BaseURL(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse upstream url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("upstream url %q must be an absolute http(s) url", endpoint)
	}
	base := strings.TrimRight(u.String(), "/")
	return strings.TrimSuffix(base, completionsPath), nil
}
