package llm

import (
	"context"
	"fmt"
	"time"
)

// Generator sends a single user prompt to a text-generation model and
// returns its raw text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 10240
	}
	if o.Temperature < 0 {
		o.Temperature = 0.7
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

// OracleError reports a failed generation call: transport, auth, quota or
// an empty completion.
type OracleError struct {
	Provider string
	Err      error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
