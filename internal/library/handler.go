package library

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mediatracker/internal/events"
	"mediatracker/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *events.Hub
}

func NewHandler(repo *Repo, hub *events.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterRoutes expects rg to be behind the auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/library", h.list)
	rg.POST("/library", h.add)
	rg.GET("/library/:id", h.getOne)
	rg.PATCH("/library/:id", h.setStatus)
	rg.DELETE("/library/:id", h.remove)
}

func (h *Handler) add(c *gin.Context) {
	var cand models.Candidate
	if err := c.ShouldBindJSON(&cand); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rec, created, err := h.Repo.Save(c.Request.Context(), cand)
	if errors.Is(err, ErrInvalidCandidate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error().Str("component", "library").Err(err).Msg("save record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	status, evType := http.StatusOK, events.TypeRecordUpdated
	if created {
		status, evType = http.StatusCreated, events.TypeRecordAdded
	}
	h.publish(evType, rec)
	c.JSON(status, rec)
}

func (h *Handler) list(c *gin.Context) {
	var f ListFilter
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t, ok := models.ParseMediaType(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type filter"})
			return
		}
		f.MediaType = t
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		f.Status = NormalizeStatus(raw)
		if f.Status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}
	f.Limit = parseInt(c.Query("limit"), 20)
	f.Offset = parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), f)
	if err != nil {
		log.Error().Str("component", "library").Err(err).Msg("list records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
		"items":  items,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	rec, err := h.Repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rec, err := h.Repo.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.publish(events.TypeRecordUpdated, rec)
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) remove(c *gin.Context) {
	rec, err := h.Repo.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	h.publish(events.TypeRecordRemoved, rec)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) publish(typ string, rec models.TrackedRecord) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(typ, rec)
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
