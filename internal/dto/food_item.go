package dto

import (
	"time"

	"github.com/noah-isme/campus-meals-api/internal/models"
)

// CreateFoodItemRequest defines the payload for posting surplus food.
type CreateFoodItemRequest struct {
	Name              string    `json:"name" validate:"required,max=200"`
	Description       *string   `json:"description" validate:"omitempty,max=2000"`
	CanteenName       string    `json:"canteenName" validate:"required,max=200"`
	CanteenLocation   *string   `json:"canteenLocation" validate:"omitempty,max=200"`
	ImageURL          *string   `json:"imageUrl" validate:"omitempty,url"`
	QuantityAvailable int       `json:"quantityAvailable" validate:"gte=1"`
	AvailableUntil    time.Time `json:"availableUntil" validate:"required"`
}

// UpdateFoodItemRequest carries poster edits; absent fields are left untouched.
type UpdateFoodItemRequest struct {
	Name              *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description       *string    `json:"description" validate:"omitempty,max=2000"`
	CanteenName       *string    `json:"canteenName" validate:"omitempty,min=1,max=200"`
	CanteenLocation   *string    `json:"canteenLocation" validate:"omitempty,max=200"`
	ImageURL          *string    `json:"imageUrl" validate:"omitempty,url"`
	QuantityAvailable *int       `json:"quantityAvailable" validate:"omitempty,gte=0"`
	AvailableUntil    *time.Time `json:"availableUntil"`
}

// Changes projects the descriptive fields of the request.
func (r UpdateFoodItemRequest) Changes() models.FoodItemChanges {
	return models.FoodItemChanges{
		Name:            r.Name,
		Description:     r.Description,
		CanteenName:     r.CanteenName,
		CanteenLocation: r.CanteenLocation,
		ImageURL:        r.ImageURL,
		AvailableUntil:  r.AvailableUntil,
	}
}

// FoodItemResponse is the listing view of an item.
type FoodItemResponse struct {
	models.FoodItemListing
	ActualAvailable int `json:"actualAvailable"`
}

// NewFoodItemResponse derives the client view from a listing row.
func NewFoodItemResponse(l models.FoodItemListing) FoodItemResponse {
	return FoodItemResponse{FoodItemListing: l, ActualAvailable: l.ActualAvailable()}
}

// RefreshResult reports the effect of an expiry refresh.
type RefreshResult struct {
	Deactivated int64 `json:"deactivated"`
	Reactivated int64 `json:"reactivated"`
}
