// Package fetch pulls recent articles from the news site. Fetch errors for
// individual article pages are swallowed: callers only ever see a
// possibly-shorter list than requested.
package fetch

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/afrpush/afrpush/internal/model"
)

// Fetcher produces normalized articles, newest first, deduplicated by URL.
type Fetcher interface {
	FetchRecent(limit int) ([]model.Article, error)
}

var (
	articlePathRe = regexp.MustCompile(`(?i)-\d{8}-p[0-9a-z]+$`)
	articleIDRe   = regexp.MustCompile(`(?i)-(p[0-9a-z]+)$`)
	hrefRe        = regexp.MustCompile(`(?i)href=["']([^"'#? ]*-\d{8}-p[0-9a-z]+/?)["']`)
)

const (
	bodyMinLen      = 80
	bodyMinLenRelax = 40
	contentMaxChars = 3500
)

// HomepageFetcher scrapes the site homepage for article links and extracts
// metadata and body text from each article page.
type HomepageFetcher struct {
	homepageURL string
	pathPrefix  string
	userAgent   string
	client      *http.Client
}

// NewHomepageFetcher creates a homepage fetcher. pathPrefix, when set,
// restricts articles to one site section (e.g. "/markets").
func NewHomepageFetcher(homepageURL, pathPrefix, userAgent string, timeout time.Duration) *HomepageFetcher {
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	return &HomepageFetcher{
		homepageURL: homepageURL,
		pathPrefix:  strings.TrimRight(pathPrefix, "/"),
		userAgent:   userAgent,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchRecent returns up to limit articles from the homepage, newest first.
func (f *HomepageFetcher) FetchRecent(limit int) ([]model.Article, error) {
	html, err := f.getText(f.homepageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching homepage: %w", err)
	}

	urls := f.ExtractArticleURLs(html)

	// Over-scan: some pages fail to yield a usable article.
	scanLimit := limit * 4
	if scanLimit < 20 {
		scanLimit = 20
	}
	if scanLimit > len(urls) {
		scanLimit = len(urls)
	}

	var articles []model.Article
	for _, u := range urls[:scanLimit] {
		article, err := f.fetchArticle(u)
		if err != nil {
			log.Printf("Skipping %s: %v", u, err)
			continue
		}
		if article == nil {
			continue
		}
		articles = append(articles, *article)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return sortKey(articles[i]) > sortKey(articles[j])
	})

	if limit < 0 {
		limit = 0
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func sortKey(a model.Article) string {
	if a.UpdatedAt != nil {
		return *a.UpdatedAt
	}
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return ""
}

func (f *HomepageFetcher) getText(rawURL string) (string, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ExtractArticleURLs pulls article links out of homepage HTML, normalized to
// scheme+host+path and deduplicated, preserving page order.
func (f *HomepageFetcher) ExtractArticleURLs(html string) []string {
	base, _ := url.Parse(f.homepageURL)

	seen := make(map[string]struct{})
	var out []string
	for _, match := range hrefRe.FindAllStringSubmatch(html, -1) {
		ref, err := url.Parse(match[1])
		if err != nil {
			continue
		}
		absolute := ref
		if base != nil {
			absolute = base.ResolveReference(ref)
		}

		cleanPath := strings.TrimRight(absolute.Path, "/")
		if !articlePathRe.MatchString(cleanPath) {
			continue
		}
		if f.pathPrefix != "" && !strings.HasPrefix(cleanPath, f.pathPrefix) {
			continue
		}

		clean := (&url.URL{Scheme: absolute.Scheme, Host: absolute.Host, Path: cleanPath}).String()
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func (f *HomepageFetcher) fetchArticle(articleURL string) (*model.Article, error) {
	html, err := f.getText(articleURL)
	if err != nil {
		return nil, err
	}
	return parseArticle(html, articleURL)
}

// parseArticle extracts a normalized article from page HTML. A nil article
// with nil error means the page had no usable title.
func parseArticle(html, articleURL string) (*model.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	ld := extractLDJSON(doc)

	title := metaContent(doc, "property", "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	summary := metaContent(doc, "name", "description")
	if summary == "" {
		summary = metaContent(doc, "property", "og:description")
	}

	publishedAt := NormalizeTime(metaContent(doc, "property", "article:published_time"))
	updatedAt := NormalizeTime(metaContent(doc, "property", "article:modified_time"))

	if title == "" {
		title = ldString(ld, "headline")
	}
	if summary == "" {
		summary = ldString(ld, "description")
	}
	if publishedAt == nil {
		publishedAt = NormalizeTime(ldString(ld, "datePublished"))
	}
	if updatedAt == nil {
		updatedAt = NormalizeTime(ldString(ld, "dateModified"))
	}

	if title == "" {
		return nil, nil
	}
	if summary == "" {
		summary = "(No summary extracted)"
	}

	content := extractContent(doc, ld, html, articleURL)

	articleID := ExtractArticleID(articleURL)
	return &model.Article{
		ArticleID:   articleID,
		RecordKey:   RecordKey(articleID, publishedAt, updatedAt),
		URL:         articleURL,
		Title:       strings.TrimSpace(title),
		Summary:     strings.TrimSpace(summary),
		Content:     content,
		PublishedAt: publishedAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// extractContent tries structured sources first, then DOM paragraphs, then
// readability as the last resort.
func extractContent(doc *goquery.Document, ld map[string]any, html, articleURL string) string {
	chunks := ldArticleBodies(ld)
	if len(chunks) == 0 {
		chunks = domParagraphs(doc, bodyMinLen)
	}
	if len(chunks) == 0 {
		chunks = domParagraphs(doc, bodyMinLenRelax)
	}
	if len(chunks) == 0 {
		parsedURL, _ := url.Parse(articleURL)
		if parsed, err := readability.FromReader(strings.NewReader(html), parsedURL); err == nil {
			if text := strings.TrimSpace(parsed.TextContent); len(text) > 100 {
				chunks = []string{text}
			}
		}
	}
	return mergeChunks(chunks, contentMaxChars)
}

// ExtractArticleID returns the trailing p-token of an article path, or a
// sha1 prefix of the URL when the path carries no token.
func ExtractArticleID(articleURL string) string {
	parsed, err := url.Parse(articleURL)
	if err == nil {
		path := strings.TrimRight(parsed.Path, "/")
		if m := articleIDRe.FindStringSubmatch(path); m != nil {
			return strings.ToLower(m[1])
		}
	}
	return fmt.Sprintf("%x", sha1.Sum([]byte(articleURL)))[:16]
}

// RecordKey builds the composite idempotency key for one logical delivery
// unit: article id plus the latest known timestamp.
func RecordKey(articleID string, publishedAt, updatedAt *string) string {
	ts := "na"
	if updatedAt != nil {
		ts = *updatedAt
	} else if publishedAt != nil {
		ts = *publishedAt
	}
	return articleID + ":" + ts
}

func metaContent(doc *goquery.Document, attrKey, attrValue string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attrKey); ok && v == attrValue {
			content, _ = s.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(content)
}

// NormalizeTime parses an ISO-8601 timestamp and re-renders it in UTC.
// Unparseable values become nil.
func NormalizeTime(value string) *string {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", text)
		if err != nil {
			return nil
		}
		parsed = parsed.UTC()
	}
	normalized := parsed.UTC().Format(time.RFC3339)
	return &normalized
}

func extractLDJSON(doc *goquery.Document) map[string]any {
	articleTypes := map[string]struct{}{
		"newsarticle": {}, "article": {}, "reportagearticle": {},
		"analysisnewsarticle": {}, "liveblogposting": {}, "blogposting": {},
	}

	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		for _, candidate := range ldCandidates(payload) {
			obj, ok := candidate.(map[string]any)
			if !ok {
				continue
			}
			typeName := strings.ToLower(fmt.Sprint(obj["@type"]))
			if _, match := articleTypes[typeName]; match {
				found = obj
				return false
			}
		}
		return true
	})
	if found == nil {
		return map[string]any{}
	}
	return found
}

func ldCandidates(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			return graph
		}
		return []any{v}
	}
	return nil
}

func ldString(ld map[string]any, key string) string {
	if s, ok := ld[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func ldArticleBodies(ld map[string]any) []string {
	var chunks []string
	if body := cleanText(ldString(ld, "articleBody")); body != "" {
		chunks = append(chunks, body)
	}

	if updates, ok := ld["liveBlogUpdate"].([]any); ok {
		for _, item := range updates {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			body := cleanText(ldString(obj, "articleBody"))
			if len(body) >= bodyMinLenRelax {
				chunks = append(chunks, body)
			}
		}
	}
	return chunks
}

func domParagraphs(doc *goquery.Document, minLen int) []string {
	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	var chunks []string
	root.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if len(text) >= minLen {
			chunks = append(chunks, text)
		}
	})
	return chunks
}

// mergeChunks joins unique chunks up to the character budget.
func mergeChunks(chunks []string, maxChars int) string {
	const sep = "\n\n"
	seen := make(map[string]struct{})
	var kept []string
	total := 0

	for _, chunk := range chunks {
		item := cleanText(chunk)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}

		extra := len(item)
		if len(kept) > 0 {
			extra += len(sep)
		}
		if total+extra > maxChars {
			break
		}
		kept = append(kept, item)
		total += extra
	}
	return strings.Join(kept, sep)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
