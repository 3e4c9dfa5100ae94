package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
	"github.com/noah-isme/campus-meals-api/pkg/response"
)

type donationService interface {
	SweepExpiredToDonations(ctx context.Context) (dto.SweepResult, error)
	ReserveForNgo(ctx context.Context, donationID string, req dto.ReserveDonationRequest) (*models.FoodDonationDetail, error)
	MarkCollected(ctx context.Context, donationID string) (*models.FoodDonationDetail, error)
	List(ctx context.Context, filter models.DonationFilter) ([]models.FoodDonationDetail, error)
	Export(ctx context.Context, format dto.ExportFormat, filter models.DonationFilter) (*dto.ExportFile, error)
}

// DonationHandler exposes the NGO donation pipeline.
type DonationHandler struct {
	service donationService
}

// NewDonationHandler builds a donation handler.
func NewDonationHandler(service donationService) *DonationHandler {
	return &DonationHandler{service: service}
}

func donationFilter(c *gin.Context) models.DonationFilter {
	filter := models.DonationFilter{Status: models.DonationStatus(c.Query("status"))}
	if c.Query("mine") == "true" {
		if claims := claimsFromContext(c); claims != nil {
			filter.CreatedBy = claims.UserID
		}
	}
	return filter
}

// List godoc
// @Summary List donations
// @Tags Donations
// @Produce json
// @Security BearerAuth
// @Param status query string false "available, reserved_for_ngo or collected"
// @Param mine query bool false "Only donations from the caller's items"
// @Success 200 {object} response.Envelope
// @Router /donations [get]
func (h *DonationHandler) List(c *gin.Context) {
	donations, err := h.service.List(c.Request.Context(), donationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, nil)
}

// Export godoc
// @Summary Download the donation report
// @Tags Donations
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Donation status filter"
// @Success 200 {file} file
// @Router /donations/export [get]
func (h *DonationHandler) Export(c *gin.Context) {
	format := dto.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	file, err := h.service.Export(c.Request.Context(), format, donationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Sweep godoc
// @Summary Move expired stock into donations
// @Tags Donations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /donations/sweep [post]
func (h *DonationHandler) Sweep(c *gin.Context) {
	result, err := h.service.SweepExpiredToDonations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reserve godoc
// @Summary Reserve a donation for an NGO
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Donation ID"
// @Param payload body dto.ReserveDonationRequest true "NGO contact"
// @Success 200 {object} response.Envelope
// @Router /donations/{id}/reserve [put]
func (h *DonationHandler) Reserve(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrDonationNotFound)
	if !ok {
		return
	}
	var req dto.ReserveDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid NGO payload"))
		return
	}
	donation, err := h.service.ReserveForNgo(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Collect godoc
// @Summary Mark a reserved donation as collected
// @Tags Donations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Router /donations/{id}/collect [put]
func (h *DonationHandler) Collect(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrDonationNotFound)
	if !ok {
		return
	}
	donation, err := h.service.MarkCollected(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}
