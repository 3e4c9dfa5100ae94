package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

const foodItemResource = "food_item"

type foodItemStore interface {
	FindByID(ctx context.Context, id string) (*models.FoodItem, error)
	Create(ctx context.Context, item *models.FoodItem) error
	UpdateDetails(ctx context.Context, id string, changes models.FoodItemChanges, now time.Time) error
}

type foodItemLedger interface {
	ListActive(ctx context.Context) ([]models.FoodItemListing, error)
	ListByCreator(ctx context.Context, creatorID string) ([]models.FoodItemListing, error)
	Restock(ctx context.Context, itemID string, quantity int) error
	Archive(ctx context.Context, itemID string) error
	RefreshExpiryStatus(ctx context.Context) (dto.RefreshResult, error)
}

// FoodItemService handles poster-facing item management. Quantity, activity
// and archive state are changed only through the ledger.
type FoodItemService struct {
	items     foodItemStore
	ledger    foodItemLedger
	tx        transactor
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewFoodItemService constructs the service.
func NewFoodItemService(items foodItemStore, ledger foodItemLedger, tx transactor, audit auditLogger, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *FoodItemService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FoodItemService{
		items:     items,
		ledger:    ledger,
		tx:        tx,
		audit:     audit,
		validator: validate,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// ListActive returns claimable items.
func (s *FoodItemService) ListActive(ctx context.Context) ([]dto.FoodItemResponse, error) {
	items, err := s.ledger.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return toFoodItemResponses(items), nil
}

// ListMine returns the poster's own items.
func (s *FoodItemService) ListMine(ctx context.Context, claims *models.JWTClaims) ([]dto.FoodItemResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.ledger.ListByCreator(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return toFoodItemResponses(items), nil
}

func toFoodItemResponses(items []models.FoodItemListing) []dto.FoodItemResponse {
	out := make([]dto.FoodItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewFoodItemResponse(item))
	}
	return out
}

// Create posts a new item owned by the caller.
func (s *FoodItemService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateFoodItemRequest) (*models.FoodItem, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid food item payload")
	}
	now := s.now().UTC()
	if !req.AvailableUntil.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "availableUntil must be in the future")
	}

	item := &models.FoodItem{
		Name:              req.Name,
		Description:       req.Description,
		CanteenName:       req.CanteenName,
		CanteenLocation:   req.CanteenLocation,
		ImageURL:          req.ImageURL,
		QuantityAvailable: req.QuantityAvailable,
		AvailableUntil:    req.AvailableUntil.UTC(),
		IsActive:          true,
		CreatedBy:         claims.UserID,
		CreatedAt:         now,
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.items.Create(ctx, item); err != nil {
		return nil, appErrors.Storage(err, "failed to create food item")
	}
	s.recordAudit(ctx, claims, models.AuditActionFoodItemCreate, item.ID, req)
	return item, nil
}

// Update edits an item owned by the caller.
func (s *FoodItemService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateFoodItemRequest) (*models.FoodItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid food item payload")
	}
	if _, err := s.owned(ctx, claims, id); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.items.UpdateDetails(ctx, id, req.Changes(), s.now().UTC()); err != nil {
			return appErrors.Storage(err, "failed to update food item")
		}
		if req.QuantityAvailable != nil {
			return s.ledger.Restock(ctx, id, *req.QuantityAvailable)
		}
		if req.AvailableUntil != nil {
			_, err := s.ledger.RefreshExpiryStatus(ctx)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, claims, models.AuditActionFoodItemUpdate, id, req)

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load food item")
	}
	if item == nil {
		return nil, appErrors.ErrItemNotFound
	}
	return item, nil
}

// Archive removes an item from the claim pool without deleting its history.
func (s *FoodItemService) Archive(ctx context.Context, claims *models.JWTClaims, id string) error {
	if _, err := s.owned(ctx, claims, id); err != nil {
		return err
	}
	if err := s.ledger.Archive(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, claims, models.AuditActionFoodItemArchive, id, nil)
	return nil
}

func (s *FoodItemService) owned(ctx context.Context, claims *models.JWTClaims, id string) (*models.FoodItem, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load food item")
	}
	if item == nil {
		return nil, appErrors.ErrItemNotFound
	}
	if item.CreatedBy != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the poster can modify this item")
	}
	if item.Archived() {
		return nil, appErrors.Clone(appErrors.ErrItemInactive, "archived items cannot be modified")
	}
	return item, nil
}

func (s *FoodItemService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, id string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	userID := claims.UserID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   foodItemResource,
		ResourceID: &id,
		NewValues:  body,
	}); err != nil {
		s.logger.Warn("failed to record food item audit log", zap.String("food_item_id", id), zap.Error(err))
	}
}
