package briefing

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"pulsebrief/pkg/news"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeOracle struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeOracle) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeOracle) promptsContaining(sub string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.prompts {
		if strings.Contains(p, sub) {
			out = append(out, p)
		}
	}
	return out
}

func isAggregationPrompt(prompt string) bool {
	return strings.Contains(prompt, "# 正面意见：")
}

type fakeSource struct {
	articles []news.Article
	err      error
	calls    int
	gotTopic string
	gotLimit int
}

func (f *fakeSource) Fetch(ctx context.Context, topic string, limit int) ([]news.Article, error) {
	f.calls++
	f.gotTopic = topic
	f.gotLimit = limit
	return f.articles, f.err
}

type fakeEnricher struct {
	calls int
}

func (f *fakeEnricher) Enrich(ctx context.Context, requestID string, articles []news.Article) []news.Article {
	f.calls++
	out := make([]news.Article, len(articles))
	for i, a := range articles {
		a.FullText = "正文：" + a.Title
		out[i] = a
	}
	return out
}
