package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
	"github.com/couchcryptid/storm-sounding-service/internal/sounding"
)

// Prober moves the probe of the active sounding.
type Prober interface {
	SetLocation(p domain.Point) error
	SetTime(t time.Time) error
}

// SnapshotSource returns the latest canonical output.
type SnapshotSource interface {
	Current() sounding.CanonicalOutput
}

// Handler serves the probe API.
type Handler struct {
	probe    Prober
	snapshot SnapshotSource
}

// NewHandler creates a Handler.
func NewHandler(probe Prober, snapshot SnapshotSource) *Handler {
	return &Handler{probe: probe, snapshot: snapshot}
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Alt float64  `json:"alt"`
}

type timeRequest struct {
	Time *time.Time `json:"time"`
}

// GetSounding handles GET /v1/sounding.
func (h *Handler) GetSounding(c *gin.Context) {
	out := h.snapshot.Current()
	if out.TimeAxis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sounding loaded"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// PutLocation handles PUT /v1/sounding/location.
func (h *Handler) PutLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}
	if req.Lat == nil || req.Lon == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}
	h.respond(c, h.probe.SetLocation(domain.Point{Lat: *req.Lat, Lon: *req.Lon, Alt: req.Alt}))
}

// PutTime handles PUT /v1/sounding/time.
func (h *Handler) PutTime(c *gin.Context) {
	var req timeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body (time must be RFC3339): %v", err)})
		return
	}
	if req.Time == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time is required"})
		return
	}
	h.respond(c, h.probe.SetTime(req.Time.UTC()))
}

func (h *Handler) respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
