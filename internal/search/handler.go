package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediatracker/internal/catalog"
	"mediatracker/pkg/models"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/search", h.search)
	rg.GET("/search", h.search)
	rg.POST("/search/best", h.best)
	rg.GET("/search/best", h.best)
	rg.GET("/details", h.details)
}

// bindQuery accepts a JSON body on POST and ?q=&type= on GET.
func bindQuery(c *gin.Context) (Query, bool) {
	var q Query
	if c.Request.Method == http.MethodGet {
		q.Text = c.Query("q")
		if q.Text == "" {
			q.Text = c.Query("query")
		}
		q.Type = c.Query("type")
		return q, true
	}
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return q, false
	}
	return q, true
}

func (h *Handler) search(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	results, err := h.Engine.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	if results == nil {
		results = []models.Candidate{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) best(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	result, err := h.Engine.Best(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (h *Handler) details(c *gin.Context) {
	raw, err := h.Engine.Details(c.Request.Context(), DetailsQuery{
		ID:     c.Query("id"),
		Type:   c.Query("type"),
		Source: c.Query("source"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raw)
}

func writeError(c *gin.Context, err error) {
	var status *catalog.StatusError
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, catalog.ErrUnsupportedDetails):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &status) && status.StatusCode == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, catalog.ErrMissingCredential):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
	}
}
