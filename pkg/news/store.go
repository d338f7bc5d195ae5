package news

import (
	"context"
	"fmt"
)

type StoredArticleSearcher interface {
	SearchByTopic(ctx context.Context, topic string, limit int) ([]Article, error)
}

// StoreSource reads articles previously saved by the fetcher.
type StoreSource struct {
	store StoredArticleSearcher
}

func NewStoreSource(store StoredArticleSearcher) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Name() string {
	return "Store"
}

func (s *StoreSource) Fetch(ctx context.Context, topic string, limit int) ([]Article, error) {
	articles, err := s.store.SearchByTopic(ctx, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("store search: %w", err)
	}
	return articles, nil
}
