package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// LLM selects and tunes the text-generation backend.
type LLM struct {
	Provider        string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	MaxTokens       int
	Temperature     float64
	CallTimeout     time.Duration
}

// News configures where articles come from.
type News struct {
	Source      string
	APIKey      string
	APIURL      string
	Language    string
	FixturePath string
}

// Pipeline holds the briefing pipeline limits.
type Pipeline struct {
	DefaultMaxArticles int
	MaxArticlesLimit   int
	ExtractWorkers     int
	Timeout            time.Duration
	FetchFullText      bool
	EnrichWorkers      int
	FullTextTimeout    time.Duration
	FullTextCacheTTL   time.Duration
	ExcerptChars       int
}

type HTTP struct {
	BindAddr    string
	FrontendURL string
}

type Worker struct {
	Topics     []string
	MaxRetries int
	PopTimeout time.Duration
}

type Config struct {
	LLM         LLM
	News        News
	Pipeline    Pipeline
	DatabaseURL string
	RedisURL    string
	HTTP        HTTP
	Worker      Worker
}

const (
	SourceNewsAPI = "newsapi"
	SourceFixture = "fixture"
	SourceStore   = "store"
)

var defaults = map[string]any{
	"LLM_PROVIDER":      "openai",
	"OPENAI_MODEL":      "gpt-4o-mini",
	"ANTHROPIC_MODEL":   "claude-haiku-4-5",
	"LLM_MAX_TOKENS":    10240,
	"LLM_TEMPERATURE":   0.7,
	"LLM_CALL_TIMEOUT":  60 * time.Second,
	"NEWS_SOURCE":       SourceNewsAPI,
	"NEWS_API_URL":      "https://newsapi.org/v2/everything",
	"NEWS_LANGUAGE":     "zh",
	"NEWS_FIXTURE_PATH": "mock/mock_newsapi.json",

	"DEFAULT_MAX_ARTICLES":   5,
	"MAX_ARTICLES_LIMIT":     20,
	"EXTRACT_WORKERS":        4,
	"BRIEFING_TIMEOUT":       5 * time.Minute,
	"FETCH_FULL_TEXT":        false,
	"ENRICH_WORKERS":         4,
	"FULLTEXT_TIMEOUT":       10 * time.Second,
	"FULLTEXT_CACHE_TTL":     48 * time.Hour,
	"FULLTEXT_EXCERPT_CHARS": 1500,

	"API_BIND_ADDR":      ":8080",
	"WORKER_MAX_RETRIES": 3,
	"WORKER_POP_TIMEOUT": 5 * time.Second,
}

// NewViper returns a viper instance that reads every key from the
// environment, falling back to the built-in defaults. Callers may bind
// flags onto it before passing it to LoadFrom.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Load builds a Config from environment variables.
func Load() (*Config, error) {
	return LoadFrom(NewViper())
}

// LoadFrom builds a Config from v. Values that do not parse are errors,
// not silent defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	r := &reader{v: v}
	c := &Config{
		LLM: LLM{
			Provider:        strings.ToLower(r.string("LLM_PROVIDER")),
			OpenAIAPIKey:    r.string("OPENAI_API_KEY"),
			OpenAIBaseURL:   r.string("OPENAI_BASE_URL"),
			OpenAIModel:     r.string("OPENAI_MODEL"),
			AnthropicAPIKey: r.string("ANTHROPIC_API_KEY"),
			AnthropicModel:  r.string("ANTHROPIC_MODEL"),
			MaxTokens:       r.int("LLM_MAX_TOKENS"),
			Temperature:     r.float("LLM_TEMPERATURE"),
			CallTimeout:     r.duration("LLM_CALL_TIMEOUT"),
		},
		News: News{
			Source:      strings.ToLower(r.string("NEWS_SOURCE")),
			APIKey:      r.string("NEWS_API_KEY"),
			APIURL:      r.string("NEWS_API_URL"),
			Language:    r.string("NEWS_LANGUAGE"),
			FixturePath: r.string("NEWS_FIXTURE_PATH"),
		},
		Pipeline: Pipeline{
			DefaultMaxArticles: r.int("DEFAULT_MAX_ARTICLES"),
			MaxArticlesLimit:   r.int("MAX_ARTICLES_LIMIT"),
			ExtractWorkers:     r.int("EXTRACT_WORKERS"),
			Timeout:            r.duration("BRIEFING_TIMEOUT"),
			FetchFullText:      r.bool("FETCH_FULL_TEXT"),
			EnrichWorkers:      r.int("ENRICH_WORKERS"),
			FullTextTimeout:    r.duration("FULLTEXT_TIMEOUT"),
			FullTextCacheTTL:   r.duration("FULLTEXT_CACHE_TTL"),
			ExcerptChars:       r.int("FULLTEXT_EXCERPT_CHARS"),
		},
		DatabaseURL: r.string("DATABASE_URL"),
		RedisURL:    r.string("REDIS_URL"),
		HTTP: HTTP{
			BindAddr:    r.string("API_BIND_ADDR"),
			FrontendURL: r.string("FRONTEND_URL"),
		},
		Worker: Worker{
			Topics:     splitAndTrim(r.string("BRIEFING_TOPICS")),
			MaxRetries: r.int("WORKER_MAX_RETRIES"),
			PopTimeout: r.duration("WORKER_POP_TIMEOUT"),
		},
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", c.LLM.Provider)
	}

	switch c.News.Source {
	case SourceNewsAPI, SourceFixture, SourceStore:
	default:
		return nil, fmt.Errorf("NEWS_SOURCE must be newsapi, fixture or store, got %q", c.News.Source)
	}

	if c.LLM.MaxTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	if c.Pipeline.MaxArticlesLimit <= 0 {
		return nil, fmt.Errorf("MAX_ARTICLES_LIMIT must be positive")
	}
	if c.Pipeline.DefaultMaxArticles <= 0 {
		return nil, fmt.Errorf("DEFAULT_MAX_ARTICLES must be positive")
	}
	if c.Pipeline.DefaultMaxArticles > c.Pipeline.MaxArticlesLimit {
		return nil, fmt.Errorf("DEFAULT_MAX_ARTICLES cannot exceed MAX_ARTICLES_LIMIT")
	}
	if c.Pipeline.ExtractWorkers <= 0 {
		return nil, fmt.Errorf("EXTRACT_WORKERS must be positive")
	}
	if c.Pipeline.EnrichWorkers <= 0 {
		return nil, fmt.Errorf("ENRICH_WORKERS must be positive")
	}
	if c.Pipeline.ExcerptChars < 0 {
		return nil, fmt.Errorf("FULLTEXT_EXCERPT_CHARS cannot be negative")
	}
	if c.Worker.MaxRetries < 0 {
		return nil, fmt.Errorf("WORKER_MAX_RETRIES cannot be negative")
	}

	return c, nil
}

// LLMAPIKey returns the key of the configured provider.
func (c *Config) LLMAPIKey() string {
	if c.LLM.Provider == "anthropic" {
		return c.LLM.AnthropicAPIKey
	}
	return c.LLM.OpenAIAPIKey
}

func (c *Config) LLMModel() string {
	if c.LLM.Provider == "anthropic" {
		return c.LLM.AnthropicModel
	}
	return c.LLM.OpenAIModel
}

type reader struct {
	v    *viper.Viper
	errs []error
}

func (r *reader) string(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) invalid(key, kind string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: invalid %s %q: %w", key, kind, r.v.GetString(key), err))
}

func (r *reader) int(key string) int {
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.invalid(key, "integer", err)
	}
	return n
}

func (r *reader) float(key string) float64 {
	f, err := cast.ToFloat64E(r.v.Get(key))
	if err != nil {
		r.invalid(key, "number", err)
	}
	return f
}

func (r *reader) bool(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	if err != nil {
		r.invalid(key, "boolean", err)
	}
	return b
}

func (r *reader) duration(key string) time.Duration {
	d, err := cast.ToDurationE(r.v.Get(key))
	if err != nil {
		r.invalid(key, "duration", err)
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
