package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nitesh/news_rewriter/internal/service"
	"github.com/nitesh/news_rewriter/pkg/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// NewsService is the part of service.Service the handler needs.
type NewsService interface {
	Ingest(ctx context.Context) (*service.IngestReport, error)
	List(ctx context.Context, category string, limit int) ([]models.NewsItem, error)
	Health(ctx context.Context) error
}

type Handler struct {
	svc NewsService
}

func NewHandler(svc NewsService) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.Use(RequestLogger(), Recovery(), CORS())
	r.GET("/healthz", h.Health)
	r.Any("/", h.Dispatch)
}

// Dispatch routes on the HTTP method. Anything that is neither OPTIONS nor
// POST is served as a read.
func (h *Handler) Dispatch(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		h.Preflight(c)
	case http.MethodPost:
		h.Ingest(c)
	default:
		h.List(c)
	}
}

// Preflight: OPTIONS /
func (h *Handler) Preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Header("Access-Control-Max-Age", "86400")
	c.Status(http.StatusOK)
}

// Ingest: POST /
// Pulls every configured feed and stores the rewritten items.
func (h *Handler) Ingest(c *gin.Context) {
	report, err := h.svc.Ingest(c.Request.Context())
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("ingest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed: " + err.Error()})
		return
	}
	c.PureJSON(http.StatusOK, gin.H{
		"message": report.Message(),
		"results": report.Results,
	})
}

type listQuery struct {
	Category string `form:"category"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
}

// List: GET /?category=Спорт&limit=20
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	items, err := h.svc.List(c.Request.Context(), q.Category, q.Limit)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.PureJSON(http.StatusOK, items)
}

// Health: GET /healthz
func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
