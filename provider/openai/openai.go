// Package openai adapts the OpenAI Chat Completions API to the
// provider.Provider interface. Each query is a single-shot, non-streaming
// completion; the consensus engine has no use for partial output.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/vmanoilov/zenrube/provider"
)

// Options configure the OpenAI provider adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI Chat Completions API behind provider.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI provider using the official client, which reads its
// API key from the environment.
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return "openai" }

// Query implements provider.Provider using a non-streaming chat completion.
func (p *Provider) Query(ctx context.Context, prompt string, opts *provider.QueryOptions) (*provider.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	model := p.opts.Model
	temperature := p.opts.Temperature
	maxTokens := p.opts.MaxCompletionTokens
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		if opts.Temperature != 0 {
			temperature = opts.Temperature
		}
		if opts.MaxTokens != 0 {
			maxTokens = opts.MaxTokens
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:               model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	return &provider.Result{
		Text: resp.Choices[0].Message.Content,
		Metadata: map[string]any{
			"model":             resp.Model,
			"finish_reason":     resp.Choices[0].FinishReason,
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
		},
	}, nil
}
