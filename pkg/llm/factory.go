package llm

import "fmt"

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

func New(provider string, opts Options) (Generator, error) {
	switch provider {
	case ProviderOpenAI, "":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIClient(opts), nil
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
