package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
	"github.com/noah-isme/campus-meals-api/pkg/response"
)

type claimService interface {
	CreateClaim(ctx context.Context, userID string, req dto.CreateClaimRequest) (*models.FoodClaim, error)
	VerifyClaim(ctx context.Context, code string) (*dto.VerifyClaimResponse, error)
	CompleteClaim(ctx context.Context, claimID string) (*models.FoodClaimDetail, error)
	CancelClaim(ctx context.Context, userID, claimID string) (*models.FoodClaim, error)
	ListForUser(ctx context.Context, userID string) ([]models.FoodClaimDetail, error)
	ListActive(ctx context.Context) ([]models.FoodClaimDetail, error)
}

// ClaimHandler exposes the claim lifecycle.
type ClaimHandler struct {
	service claimService
}

// NewClaimHandler builds a claim handler.
func NewClaimHandler(service claimService) *ClaimHandler {
	return &ClaimHandler{service: service}
}

// Create godoc
// @Summary Reserve a food item
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateClaimRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /food-claims [post]
func (h *ClaimHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid claim payload"))
		return
	}
	claim, err := h.service.CreateClaim(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}

// Mine godoc
// @Summary List the caller's claims
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /food-claims/mine [get]
func (h *ClaimHandler) Mine(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	items, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Active godoc
// @Summary List reservations awaiting pickup
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /food-claims/active [get]
func (h *ClaimHandler) Active(c *gin.Context) {
	items, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Verify godoc
// @Summary Verify a claim code at the counter
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.VerifyClaimRequest true "Claim code"
// @Success 200 {object} response.Envelope
// @Router /food-claims/verify [post]
func (h *ClaimHandler) Verify(c *gin.Context) {
	var req dto.VerifyClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "claimCode is required"))
		return
	}
	result, err := h.service.VerifyClaim(c.Request.Context(), req.ClaimCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Complete godoc
// @Summary Record pickup of a reserved claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /food-claims/{id}/complete [post]
func (h *ClaimHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrClaimNotFound)
	if !ok {
		return
	}
	detail, err := h.service.CompleteClaim(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Cancel godoc
// @Summary Cancel the caller's reservation
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Router /food-claims/{id}/cancel [post]
func (h *ClaimHandler) Cancel(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	id, ok := pathID(c, appErrors.ErrClaimNotFound)
	if !ok {
		return
	}
	claim, err := h.service.CancelClaim(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}
