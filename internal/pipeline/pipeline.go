// Package pipeline sequences one delivery run: fetch, persist, translate,
// format, route, persist outcome.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/afrpush/afrpush/internal/fetch"
	"github.com/afrpush/afrpush/internal/message"
	"github.com/afrpush/afrpush/internal/metrics"
	"github.com/afrpush/afrpush/internal/model"
	"github.com/afrpush/afrpush/internal/preview"
	"github.com/afrpush/afrpush/internal/send"
	"github.com/afrpush/afrpush/internal/store"
	"github.com/afrpush/afrpush/internal/translate"
)

// Options configures one pipeline instance.
type Options struct {
	Target       string
	MaxArticles  int
	SourceLang   string
	TargetLang   string
	ContentLimit int
	PreviewDir   string // empty disables preview rendering
}

// Pipeline orchestrates a single-threaded delivery run. Only one RunOnce
// may be in flight at a time; the scheduler guarantees non-overlap.
type Pipeline struct {
	opts       Options
	fetcher    fetch.Fetcher
	translator translate.Translator
	router     *send.Router
	db         *store.DB
	metrics    *metrics.Metrics
}

type readyArticle struct {
	article           model.Article
	translatedTitle   string
	translatedSummary string
}

// New creates a pipeline. metrics may be nil.
func New(opts Options, fetcher fetch.Fetcher, translator translate.Translator, router *send.Router, db *store.DB, m *metrics.Metrics) *Pipeline {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 5
	}
	if opts.ContentLimit <= 0 {
		opts.ContentLimit = message.DefaultContentLimit
	}
	return &Pipeline{
		opts:       opts,
		fetcher:    fetcher,
		translator: translator,
		router:     router,
		db:         db,
		metrics:    m,
	}
}

// singleMode reports whether the run delivers one full article instead of
// a title digest.
func (p *Pipeline) singleMode() bool {
	return p.opts.MaxArticles == 1
}

// RunOnce executes one full delivery run and returns its stats. Fetch
// failure is the only fatal error; everything after fetch degrades to
// per-article or per-batch failed status.
func (p *Pipeline) RunOnce(ctx context.Context) (model.PipelineStats, error) {
	articles, err := p.fetcher.FetchRecent(p.opts.MaxArticles)
	if err != nil {
		p.metrics.ObserveRun(false, 0, 0, 0, 0)
		return model.PipelineStats{}, fmt.Errorf("fetching articles: %w", err)
	}

	stats := model.PipelineStats{Fetched: len(articles)}
	var ready []readyArticle

	for _, article := range articles {
		// Raw content lands first so a failed translation or delivery can
		// be retried from durable state later.
		if err := p.db.UpsertEvent(article, article.Title, article.Summary); err != nil {
			log.Printf("Skipping %s: persisting raw article: %v", article.URL, err)
			stats.Failed++
			continue
		}

		translatedTitle, translatedSummary, err := p.translateArticle(ctx, article)
		if err != nil {
			log.Printf("Translation failed for %s: %v", article.URL, err)
			if markErr := p.db.MarkFailed(article.RecordKey, err.Error()); markErr != nil {
				log.Printf("Recording failure for %s: %v", article.RecordKey, markErr)
			}
			stats.Failed++
			continue
		}

		if err := p.db.UpsertEvent(article, translatedTitle, translatedSummary); err != nil {
			log.Printf("Skipping %s: persisting translation: %v", article.URL, err)
			stats.Failed++
			continue
		}
		ready = append(ready, readyArticle{
			article:           article,
			translatedTitle:   translatedTitle,
			translatedSummary: translatedSummary,
		})
	}

	if len(ready) == 0 {
		log.Printf("Run complete: fetched=%d sent=0 failed=%d skipped=%d (nothing to send)",
			stats.Fetched, stats.Failed, stats.Skipped)
		p.metrics.ObserveRun(true, stats.Fetched, 0, stats.Failed, stats.Skipped)
		return stats, nil
	}

	msg := p.formatMessage(ready)
	log.Printf("Sending batch message: items=%d chars=%d", len(ready), len([]rune(msg)))

	p.sendPreview(ready)

	routed := p.router.Send(p.opts.Target, msg)
	p.recordAttempts(ready, routed)

	if routed.Final.Success {
		for _, r := range ready {
			if err := p.db.MarkSent(r.article.RecordKey, routed.Final.Channel); err != nil {
				log.Printf("Marking %s sent: %v", r.article.RecordKey, err)
			}
		}
		stats.Sent += len(ready)
	} else {
		errMsg := routed.Final.ErrorMessage
		if errMsg == "" {
			errMsg = "unknown send failure"
		}
		for _, r := range ready {
			if err := p.db.MarkFailed(r.article.RecordKey, errMsg); err != nil {
				log.Printf("Marking %s failed: %v", r.article.RecordKey, err)
			}
		}
		stats.Failed += len(ready)
		log.Printf("Batch delivery failed: count=%d error=%s", len(ready), errMsg)
	}

	p.metrics.ObserveRun(true, stats.Fetched, stats.Sent, stats.Failed, stats.Skipped)
	return stats, nil
}

// translateArticle resolves the translated title and summary for one
// article. In single-article mode a previously sent translation for the
// same headline is reused without calling the translator.
func (p *Pipeline) translateArticle(ctx context.Context, article model.Article) (string, string, error) {
	if p.singleMode() {
		cached, err := p.db.SentTranslationByTitle(article.Title)
		if err != nil {
			return "", "", fmt.Errorf("cache lookup: %w", err)
		}
		if cached != nil {
			log.Printf("Reusing sent translation for title %q", article.Title)
			return cached.Title, cached.Summary, nil
		}
	}

	translatedTitle, err := p.translator.Translate(ctx, article.Title, p.opts.SourceLang, p.opts.TargetLang)
	if err != nil {
		return "", "", fmt.Errorf("translating title: %w", err)
	}

	// Digest mode shows titles only, so the raw summary is stored as-is.
	if !p.singleMode() {
		return translatedTitle, article.Summary, nil
	}

	body := article.Content
	if body == "" {
		body = article.Summary
	}
	translatedBody, err := p.translator.Translate(ctx, body, p.opts.SourceLang, p.opts.TargetLang)
	if err != nil {
		return "", "", fmt.Errorf("translating content: %w", err)
	}
	return translatedTitle, translatedBody, nil
}

func (p *Pipeline) formatMessage(ready []readyArticle) string {
	if p.singleMode() && len(ready) == 1 {
		return message.FormatSingleArticle(ready[0].translatedTitle, ready[0].translatedSummary, p.opts.ContentLimit)
	}
	titles := make([]string, len(ready))
	for i, r := range ready {
		titles[i] = r.translatedTitle
	}
	return message.FormatDigest(titles)
}

// sendPreview renders and routes a summary-card image ahead of the text
// message. Best-effort: failures are logged and never block the text send.
func (p *Pipeline) sendPreview(ready []readyArticle) {
	if p.opts.PreviewDir == "" {
		return
	}

	titles := make([]string, len(ready))
	for i, r := range ready {
		titles[i] = r.translatedTitle
	}
	path, err := preview.Render(p.opts.PreviewDir, "AFR 财经速递", titles)
	if err != nil {
		log.Printf("Preview render failed: %v", err)
		return
	}

	routed := p.router.SendImage(p.opts.Target, path)
	p.recordAttempts(ready, routed)
	if routed.Final.Success {
		log.Printf("Preview image sent via %s", routed.Final.Channel)
	} else {
		log.Printf("Preview image delivery failed: %s", routed.Final.ErrorMessage)
	}
}

// recordAttempts fans the router's attempt log out to every ready
// article. Logging failures never abort delivery bookkeeping.
func (p *Pipeline) recordAttempts(ready []readyArticle, routed send.Routed) {
	for _, attempt := range routed.Attempts {
		p.metrics.ObserveDelivery(attempt.Channel, attempt.Success)
	}
	for _, r := range ready {
		for _, attempt := range routed.Attempts {
			if err := p.db.RecordDeliveryAttempt(r.article.RecordKey, p.opts.Target, attempt); err != nil {
				log.Printf("Recording delivery attempt for %s: %v", r.article.RecordKey, err)
			}
		}
	}
}
