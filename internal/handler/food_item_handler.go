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

type foodItemService interface {
	ListActive(ctx context.Context) ([]dto.FoodItemResponse, error)
	ListMine(ctx context.Context, claims *models.JWTClaims) ([]dto.FoodItemResponse, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateFoodItemRequest) (*models.FoodItem, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateFoodItemRequest) (*models.FoodItem, error)
	Archive(ctx context.Context, claims *models.JWTClaims, id string) error
}

// FoodItemHandler exposes surplus food listings.
type FoodItemHandler struct {
	service foodItemService
}

// NewFoodItemHandler builds a food item handler.
func NewFoodItemHandler(service foodItemService) *FoodItemHandler {
	return &FoodItemHandler{service: service}
}

// List godoc
// @Summary List claimable food items
// @Tags FoodItems
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /food-items [get]
func (h *FoodItemHandler) List(c *gin.Context) {
	items, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListMine godoc
// @Summary List items posted by the caller
// @Tags FoodItems
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /food-items/mine [get]
func (h *FoodItemHandler) ListMine(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Post surplus food
// @Tags FoodItems
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateFoodItemRequest true "Food item payload"
// @Success 201 {object} response.Envelope
// @Router /food-items [post]
func (h *FoodItemHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid food item payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a posted item
// @Tags FoodItems
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Food item ID"
// @Param payload body dto.UpdateFoodItemRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /food-items/{id} [put]
func (h *FoodItemHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	id, ok := pathID(c, appErrors.ErrItemNotFound)
	if !ok {
		return
	}
	var req dto.UpdateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid food item payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), claims, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Archive godoc
// @Summary Archive a posted item
// @Tags FoodItems
// @Security BearerAuth
// @Param id path string true "Food item ID"
// @Success 204
// @Router /food-items/{id} [delete]
func (h *FoodItemHandler) Archive(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	id, ok := pathID(c, appErrors.ErrItemNotFound)
	if !ok {
		return
	}
	if err := h.service.Archive(c.Request.Context(), claims, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
