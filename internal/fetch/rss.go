package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/afrpush/afrpush/internal/model"
)

// RSSFetcher reads articles from a feed instead of scraping the homepage.
// Feeds carry title, summary, and timestamps but rarely full text, so
// Content is whatever the feed provides.
type RSSFetcher struct {
	feedURL   string
	userAgent string
	timeout   time.Duration
	parser    *gofeed.Parser
}

// NewRSSFetcher creates an RSS/Atom feed fetcher.
func NewRSSFetcher(feedURL, userAgent string, timeout time.Duration) *RSSFetcher {
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &RSSFetcher{
		feedURL:   feedURL,
		userAgent: userAgent,
		timeout:   timeout,
		parser:    parser,
	}
}

// FetchRecent returns up to limit feed items as articles, newest first.
func (f *RSSFetcher) FetchRecent(limit int) ([]model.Article, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", f.feedURL, err)
	}

	seen := make(map[string]struct{})
	var articles []model.Article
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		if _, dup := seen[item.Link]; dup {
			continue
		}
		seen[item.Link] = struct{}{}
		articles = append(articles, feedItemToArticle(item))
	}

	if limit < 0 {
		limit = 0
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func feedItemToArticle(item *gofeed.Item) model.Article {
	var publishedAt, updatedAt *string
	if item.PublishedParsed != nil {
		ts := item.PublishedParsed.UTC().Format(time.RFC3339)
		publishedAt = &ts
	}
	if item.UpdatedParsed != nil {
		ts := item.UpdatedParsed.UTC().Format(time.RFC3339)
		updatedAt = &ts
	}

	summary := cleanText(item.Description)
	if summary == "" {
		summary = "(No summary extracted)"
	}
	content := cleanText(item.Content)
	if len(content) > contentMaxChars {
		content = content[:contentMaxChars]
	}

	articleID := ExtractArticleID(item.Link)
	return model.Article{
		ArticleID:   articleID,
		RecordKey:   RecordKey(articleID, publishedAt, updatedAt),
		URL:         item.Link,
		Title:       cleanText(item.Title),
		Summary:     summary,
		Content:     content,
		PublishedAt: publishedAt,
		UpdatedAt:   updatedAt,
	}
}
