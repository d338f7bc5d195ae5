package news

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FixtureSource serves articles from a newsapi-shaped JSON file.
type FixtureSource struct {
	path string
}

func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: path}
}

func (s *FixtureSource) Name() string {
	return "Fixture"
}

func (s *FixtureSource) Fetch(ctx context.Context, topic string, limit int) ([]Article, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("fixture read: %w", err)
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("fixture decode %s: %w", s.path, err)
	}

	return convertArticles(parsed.Articles, limit), nil
}
