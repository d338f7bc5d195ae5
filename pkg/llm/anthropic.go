package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-haiku-4-5"

type AnthropicClient struct {
	client      *anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

func NewAnthropicClient(opts Options) *AnthropicClient {
	opts = opts.withDefaults()

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(opts.Timeout),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(reqOpts...)
	return &AnthropicClient{
		client:      &client,
		model:       anthropic.Model(model),
		maxTokens:   int64(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &OracleError{Provider: c.Name(), Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", &OracleError{Provider: c.Name(), Err: errors.New("no text content in response")}
	}

	return strings.TrimSpace(sb.String()), nil
}
