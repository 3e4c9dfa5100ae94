package dto

import "github.com/noah-isme/campus-meals-api/internal/models"

// CreateClaimRequest defines the payload for reserving a food item.
type CreateClaimRequest struct {
	FoodItemID string `json:"foodItemId" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"omitempty,gte=1,lte=50"`
}

// VerifyClaimRequest carries a redemption code read out by a student.
type VerifyClaimRequest struct {
	ClaimCode string `json:"claimCode" validate:"required,max=32"`
}

// VerifyReason classifies an unsuccessful verification.
type VerifyReason string

const (
	VerifyReasonNotFound     VerifyReason = "not_found"
	VerifyReasonExpired      VerifyReason = "expired"
	VerifyReasonInvalidState VerifyReason = "invalid_state"
)

// VerifyClaimResponse reports a verification outcome. Unsuccessful outcomes
// are data, not errors.
type VerifyClaimResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Reason  VerifyReason            `json:"reason,omitempty"`
	Claim   *models.FoodClaimDetail `json:"claim,omitempty"`
}
