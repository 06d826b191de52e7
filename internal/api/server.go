// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/observability"
	"github.com/IshaanNene/StashGoat/internal/pipeline"
	"github.com/IshaanNene/StashGoat/internal/types"
)

// Server is the HTTP front-end over a pipeline.
type Server struct {
	router   *gin.Engine
	pipeline *pipeline.Pipeline
	metrics  *observability.Metrics
	port     int
}

// NewServer builds the router and wires the routes.
func NewServer(p *pipeline.Pipeline, metrics *observability.Metrics, cfg *config.APIConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		pipeline: p,
		metrics:  metrics,
		port:     cfg.Port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metrics))

	api := s.router.Group("/api/v1")
	{
		api.POST("/articles", s.ingestArticle)
		api.GET("/articles", s.listArticles)
		api.GET("/articles/:id", s.getArticle)
		api.DELETE("/articles/:id", s.deleteArticle)
		api.GET("/stats", s.getStats)
	}
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stashgoat",
	})
}

type ingestRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	URL     string `json:"url"      binding:"required"`
}

func (s *Server) ingestArticle(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.pipeline.Ingest(c.Request.Context(), req.OwnerID, req.URL)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"article": res.Article,
		"created": res.Created,
	})
}

func (s *Server) listArticles(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	page := 0
	if pageStr := c.Query("page"); pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a non-negative integer"})
			return
		}
		page = n
	}

	articles, hasMore, err := s.pipeline.List(c.Request.Context(), ownerID, c.Query("category"), page)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	if articles == nil {
		articles = []types.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"page":     page,
		"count":    len(articles),
		"has_more": hasMore,
	})
}

func (s *Server) getArticle(c *gin.Context) {
	article, body, err := s.pipeline.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article": article,
		"body":    body,
	})
}

func (s *Server) deleteArticle(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	if err := s.pipeline.Delete(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipeline.Stats())
}

// statusForError maps the failure taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, types.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
