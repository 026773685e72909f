// Package server exposes a read-only JSON view of the delivery store.
// It never mutates state: the pipeline owns all writes.
package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afrpush/afrpush/internal/store"
)

const deliveryHistoryLimit = 10

// Server serves the query API and the metrics endpoint.
type Server struct {
	db     *store.DB
	apiKey string
	engine *gin.Engine
}

// Options configures the HTTP server.
type Options struct {
	APIKey      string // required for /api routes when non-empty
	CORSOrigins []string
	Registry    *prometheus.Registry // nil disables /metrics
	ReleaseMode bool
}

// New creates the server and registers its routes.
func New(db *store.DB, opts Options) *Server {
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{db: db, apiKey: opts.APIKey, engine: engine}

	engine.GET("/health", s.handleHealth)
	if opts.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	api.Use(corsMiddleware(opts.CORSOrigins), s.requireAPIKey)
	api.GET("/articles", s.handleListArticles)
	api.GET("/articles/:recordKey", s.handleGetArticle)

	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	log.Printf("Query API listening on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requireAPIKey(c *gin.Context) {
	if s.apiKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-API-Key") != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
		return
	}
	c.Next()
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "X-API-Key, Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleListArticles(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", store.StatusPending, store.StatusSent, store.StatusFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	events, err := s.db.ListEvents(query.Limit, status)
	if err != nil {
		log.Printf("Listing events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	items := make([]articleResponse, 0, len(events))
	for i := range events {
		items = append(items, toArticleResponse(&events[i]))
	}
	c.JSON(http.StatusOK, gin.H{"articles": items, "count": len(items)})
}

func (s *Server) handleGetArticle(c *gin.Context) {
	recordKey := c.Param("recordKey")

	event, err := s.db.GetEvent(recordKey)
	if err != nil {
		log.Printf("Getting event %s: %v", recordKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	deliveries, err := s.db.DeliveriesForEvent(recordKey, deliveryHistoryLimit)
	if err != nil {
		log.Printf("Listing deliveries for %s: %v", recordKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	attempts := make([]deliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		attempts = append(attempts, toDeliveryResponse(&deliveries[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"article":    toArticleResponse(event),
		"deliveries": attempts,
	})
}

type articleResponse struct {
	RecordKey         string  `json:"record_key"`
	ArticleID         string  `json:"article_id"`
	URL               string  `json:"url"`
	Title             string  `json:"title"`
	Summary           string  `json:"summary"`
	TranslatedTitle   string  `json:"translated_title"`
	TranslatedSummary string  `json:"translated_summary"`
	Status            string  `json:"status"`
	SentChannel       *string `json:"sent_channel"`
	LastError         *string `json:"last_error"`
	PublishedAt       *string `json:"published_at"`
	UpdatedAt         *string `json:"updated_at"`
	CreatedAt         string  `json:"created_at"`
	LastAttemptAt     *string `json:"last_attempt_at"`
	SentAt            *string `json:"sent_at"`
}

func toArticleResponse(e *store.Event) articleResponse {
	return articleResponse{
		RecordKey:         e.RecordKey,
		ArticleID:         e.ArticleID,
		URL:               e.URL,
		Title:             e.Title,
		Summary:           e.Summary,
		TranslatedTitle:   e.TranslatedTitle,
		TranslatedSummary: e.TranslatedSummary,
		Status:            e.Status,
		SentChannel:       e.SentChannel,
		LastError:         e.LastError,
		PublishedAt:       e.PublishedAt,
		UpdatedAt:         e.UpdatedAt,
		CreatedAt:         e.CreatedAt,
		LastAttemptAt:     e.LastAttemptAt,
		SentAt:            e.SentAt,
	}
}

type deliveryResponse struct {
	Channel         string  `json:"channel"`
	Target          string  `json:"target"`
	Success         bool    `json:"success"`
	ErrorMessage    *string `json:"error_message"`
	ResponseExcerpt *string `json:"response_excerpt"`
	CreatedAt       string  `json:"created_at"`
}

func toDeliveryResponse(d *store.Delivery) deliveryResponse {
	return deliveryResponse{
		Channel:         d.Channel,
		Target:          d.Target,
		Success:         d.Success,
		ErrorMessage:    d.ErrorMessage,
		ResponseExcerpt: d.ResponseExcerpt,
		CreatedAt:       d.CreatedAt,
	}
}
