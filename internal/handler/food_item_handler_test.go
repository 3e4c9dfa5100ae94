package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

type foodItemServiceMock struct {
	created    dto.CreateFoodItemRequest
	archiveErr error
}

func (m *foodItemServiceMock) ListActive(context.Context) ([]dto.FoodItemResponse, error) {
	listing := models.FoodItemListing{FoodItem: models.FoodItem{ID: "i-1", QuantityAvailable: 3}, ReservedQuantity: 1}
	return []dto.FoodItemResponse{dto.NewFoodItemResponse(listing)}, nil
}

func (m *foodItemServiceMock) ListMine(context.Context, *models.JWTClaims) ([]dto.FoodItemResponse, error) {
	return []dto.FoodItemResponse{}, nil
}

func (m *foodItemServiceMock) Create(_ context.Context, claims *models.JWTClaims, req dto.CreateFoodItemRequest) (*models.FoodItem, error) {
	m.created = req
	return &models.FoodItem{ID: "i-2", Name: req.Name, CreatedBy: claims.UserID}, nil
}

func (m *foodItemServiceMock) Update(_ context.Context, _ *models.JWTClaims, id string, _ dto.UpdateFoodItemRequest) (*models.FoodItem, error) {
	return &models.FoodItem{ID: id}, nil
}

func (m *foodItemServiceMock) Archive(context.Context, *models.JWTClaims, string) error {
	return m.archiveErr
}

func TestFoodItemHandlerListIncludesActualAvailable(t *testing.T) {
	h := NewFoodItemHandler(&foodItemServiceMock{})
	c, w := newTestContext(http.MethodGet, "/food-items", nil, nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"actualAvailable":2`)
}

func TestFoodItemHandlerCreate(t *testing.T) {
	svc := &foodItemServiceMock{}
	h := NewFoodItemHandler(svc)
	req := dto.CreateFoodItemRequest{Name: "Bakso", CanteenName: "Kantin", QuantityAvailable: 5, AvailableUntil: time.Now().Add(time.Hour)}

	c, w := newTestContext(http.MethodPost, "/food-items", req, admin())
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Bakso", svc.created.Name)
}

func TestFoodItemHandlerArchive(t *testing.T) {
	h := NewFoodItemHandler(&foodItemServiceMock{})
	c, w := newTestContext(http.MethodDelete, "/food-items/"+testItemID, nil, admin())
	c.Params = gin.Params{{Key: "id", Value: testItemID}}
	h.Archive(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)

	h = NewFoodItemHandler(&foodItemServiceMock{archiveErr: appErrors.Clone(appErrors.ErrForbidden, "only the poster can modify this item")})
	c, w = newTestContext(http.MethodDelete, "/food-items/"+testItemID, nil, admin())
	c.Params = gin.Params{{Key: "id", Value: testItemID}}
	h.Archive(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFoodItemHandlerRejectsMalformedIDs(t *testing.T) {
	h := NewFoodItemHandler(&foodItemServiceMock{})

	c, w := newTestContext(http.MethodPut, "/food-items/i-1", dto.UpdateFoodItemRequest{}, admin())
	c.Params = gin.Params{{Key: "id", Value: "i-1"}}
	h.Update(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", decode(t, w).Error.Code)

	c, w = newTestContext(http.MethodDelete, "/food-items/i-1", nil, admin())
	c.Params = gin.Params{{Key: "id", Value: "i-1"}}
	h.Archive(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
