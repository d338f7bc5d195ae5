package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIClient struct {
	client      *openai.Client
	model       openai.ChatModel
	maxTokens   int64
	temperature float64
}

func NewOpenAIClient(opts Options) *OpenAIClient {
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
		model = defaultOpenAIModel
	}

	client := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		client:      &client,
		model:       openai.ChatModel(model),
		maxTokens:   int64(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", &OracleError{Provider: c.Name(), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &OracleError{Provider: c.Name(), Err: errors.New("no choices in response")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
