package app

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"pulsebrief/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{"LLM_PROVIDER", "NEWS_SOURCE", "NEWS_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "FETCH_FULL_TEXT"} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewSource(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewSource(cfg, Deps{})
	require.Error(t, err)

	cfg.News.APIKey = "news-key"
	src, err := NewSource(cfg, Deps{})
	require.NoError(t, err)
	require.Equal(t, "NewsAPI", src.Name())

	cfg.News.Source = config.SourceFixture
	src, err = NewSource(cfg, Deps{})
	require.NoError(t, err)
	require.Equal(t, "Fixture", src.Name())

	cfg.News.Source = config.SourceStore
	_, err = NewSource(cfg, Deps{})
	require.Error(t, err)
}

func TestNewGenerator(t *testing.T) {
	cfg := testConfig(t)
	cfg.News.Source = config.SourceFixture
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewGenerator(cfg, Deps{}, logger)
	require.Error(t, err)

	cfg.LLM.OpenAIAPIKey = "sk-test"
	cfg.Pipeline.FetchFullText = true
	g, err := NewGenerator(cfg, Deps{}, logger)
	require.NoError(t, err)
	require.NotNil(t, g)
}
