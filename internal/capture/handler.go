package capture

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mediatracker/internal/events"
)

type Handler struct {
	Pipeline *Pipeline
	Hub      *events.Hub
}

func NewHandler(p *Pipeline, hub *events.Hub) *Handler {
	return &Handler{Pipeline: p, Hub: hub}
}

// RegisterRoutes expects rg to be behind the auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/capture", h.capture)
	rg.POST("/capture/identify", h.identify)
}

type imageReq struct {
	Image string `json:"image"`
}

func bindImage(c *gin.Context) (Image, bool) {
	var req imageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return Image{}, false
	}
	img, err := ParseImage(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return Image{}, false
	}
	return img, true
}

func (h *Handler) identify(c *gin.Context) {
	img, ok := bindImage(c)
	if !ok {
		return
	}
	id, err := h.Pipeline.Identify(c.Request.Context(), img)
	switch {
	case errors.Is(err, ErrUnidentified):
		c.JSON(http.StatusOK, gin.H{"identified": false, "message": err.Error()})
	case err != nil:
		writeFailure(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{
			"identified":     true,
			"title":          id.Title,
			"alternateTitle": nullable(id.AlternateTitle),
			"type":           id.Type,
			"confidence":     id.Confidence,
		})
	}
}

func (h *Handler) capture(c *gin.Context) {
	img, ok := bindImage(c)
	if !ok {
		return
	}

	res, err := h.Pipeline.Capture(c.Request.Context(), img)
	switch {
	case errors.Is(err, ErrUnidentified):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusOK, gin.H{
			"success":    false,
			"error":      fmt.Sprintf("Could not find %q in any catalog", res.Identification.Title),
			"identified": gin.H{"title": res.Identification.Title, "type": res.Identification.Type},
		})
		return
	case err != nil:
		writeFailure(c, err)
		return
	}

	if h.Hub != nil {
		typ := events.TypeRecordUpdated
		if res.Created {
			typ = events.TypeRecordAdded
		}
		h.Hub.Publish(typ, res.Record)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"title":    res.Candidate.Title,
		"type":     res.Candidate.MediaType,
		"platform": nullable(string(res.Candidate.Platform)),
		"recordId": res.Record.ID,
	})
}

func writeFailure(c *gin.Context, err error) {
	if errors.Is(err, ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
		return
	}
	log.Error().Str("component", "capture").Err(err).Msg("capture failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "something went wrong"})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
