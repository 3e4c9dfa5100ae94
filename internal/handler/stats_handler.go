package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/pkg/response"
)

type statsService interface {
	Snapshot(ctx context.Context) (*dto.CampusStats, error)
}

// StatsHandler exposes public impact figures.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler builds a stats handler.
func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Get godoc
// @Summary Campus impact statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
