package news

import "context"

// Article is a raw news record. Every field is optional; an empty string
// means the upstream did not provide it.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	FullText    string `json:"full_text,omitempty"`
}

type NewsClient interface {
	Fetch(ctx context.Context, topic string, limit int) ([]Article, error)
	Name() string
}

// newsAPIArticle is the newsapi.org article shape, shared by the HTTP
// client and fixture files.
type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

func (a newsAPIArticle) toArticle() Article {
	return Article{
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		URL:         a.URL,
		Source:      a.Source.Name,
	}
}

func convertArticles(raw []newsAPIArticle, limit int) []Article {
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	articles := make([]Article, 0, len(raw))
	for _, item := range raw {
		articles = append(articles, item.toArticle())
	}
	return articles
}
