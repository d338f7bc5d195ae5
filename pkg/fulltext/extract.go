package fulltext

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minReadableRunes is the shortest readability result accepted before
// falling back to paragraph scraping.
const minReadableRunes = 40

// ExtractText reduces an HTML page to its main text.
func ExtractText(html, pageURL string) string {
	return Extract(html, pageURL).Text
}

// Extract runs go-readability first; short or failed results fall back to
// <p> text, then to the page description meta tags.
func Extract(html, pageURL string) Page {
	if strings.TrimSpace(html) == "" {
		return Page{}
	}

	var page Page
	if article, err := readability.FromReader(strings.NewReader(html), parseURL(pageURL)); err == nil {
		page.Title = strings.TrimSpace(article.Title)
		text := normalizeSpace(article.TextContent)
		if len([]rune(text)) >= minReadableRunes {
			page.Text = text
			return page
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return page
	}
	if page.Title == "" {
		page.Title = normalizeSpace(doc.Find("title").First().Text())
	}
	page.Text = fallbackText(doc)
	return page
}

func fallbackText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer, header").Remove()

	var paragraphs []string
	doc.Find("article p, main p, p").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	paragraphs = uniqueInOrder(paragraphs)
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n")
	}

	for _, sel := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if text := normalizeSpace(content); text != "" {
				return text
			}
		}
	}
	return ""
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}

func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func uniqueInOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
