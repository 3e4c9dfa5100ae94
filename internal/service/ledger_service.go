package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

type ledgerStore interface {
	FindByID(ctx context.Context, id string) (*models.FoodItem, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.FoodItem, error)
	Decrement(ctx context.Context, id string, amount int, now time.Time) (bool, error)
	SetQuantity(ctx context.Context, id string, quantity int, now time.Time) error
	Archive(ctx context.Context, id string, now time.Time) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	ReactivateExtended(ctx context.Context, now time.Time) (int64, error)
	ListActive(ctx context.Context, now time.Time) ([]models.FoodItemListing, error)
	ListByCreator(ctx context.Context, creatorID string, now time.Time) ([]models.FoodItemListing, error)
}

// LedgerService is the only writer of item quantity, activity and archive state.
type LedgerService struct {
	items   ledgerStore
	tx      transactor
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewLedgerService constructs the inventory ledger.
func NewLedgerService(items ledgerStore, tx transactor, timeout time.Duration, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		items:   items,
		tx:      tx,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// DecrementQuantity consumes amount units from the item. It joins the
// caller's transaction when ctx carries one.
func (s *LedgerService) DecrementQuantity(ctx context.Context, itemID string, amount int) error {
	if amount < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "amount must be at least 1")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := checkDecrementable(item, amount, now); err != nil {
			return err
		}
		ok, err := s.items.Decrement(ctx, itemID, amount, now)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.ErrInsufficientQuantity
		}
		return nil
	})
	return appErrors.Storage(err, "failed to decrement item quantity")
}

// ConsumeReserved takes units held by a live reservation. Unlike
// DecrementQuantity it ignores the item deadline and archive state; only
// stock is checked.
func (s *LedgerService) ConsumeReserved(ctx context.Context, itemID string, amount int) error {
	if amount < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "amount must be at least 1")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return appErrors.ErrItemNotFound
		}
		if amount > item.QuantityAvailable {
			return appErrors.ErrInsufficientQuantity
		}
		ok, err := s.items.Decrement(ctx, itemID, amount, s.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.ErrInsufficientQuantity
		}
		return nil
	})
	return appErrors.Storage(err, "failed to consume reserved quantity")
}

func checkDecrementable(item *models.FoodItem, amount int, now time.Time) error {
	switch {
	case item == nil:
		return appErrors.ErrItemNotFound
	case item.Archived():
		return appErrors.ErrItemInactive
	case item.Expired(now):
		return appErrors.ErrItemExpired
	case !item.IsActive:
		return appErrors.ErrItemInactive
	case amount > item.QuantityAvailable:
		return appErrors.ErrInsufficientQuantity
	}
	return nil
}

// RefreshExpiryStatus deactivates items past their deadline and reactivates
// extended ones. Running it twice yields the same state as running it once.
func (s *LedgerService) RefreshExpiryStatus(ctx context.Context) (dto.RefreshResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var result dto.RefreshResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now().UTC()
		deactivated, err := s.items.DeactivateExpired(ctx, now)
		if err != nil {
			return err
		}
		reactivated, err := s.items.ReactivateExtended(ctx, now)
		if err != nil {
			return err
		}
		result = dto.RefreshResult{Deactivated: deactivated, Reactivated: reactivated}
		return nil
	})
	if err != nil {
		return dto.RefreshResult{}, appErrors.Storage(err, "failed to refresh item expiry")
	}
	if result.Deactivated > 0 || result.Reactivated > 0 {
		s.logger.Debug("item expiry refreshed", zap.Int64("deactivated", result.Deactivated), zap.Int64("reactivated", result.Reactivated))
	}
	return result, nil
}

// ListActive returns claimable items after refreshing expiry status.
func (s *LedgerService) ListActive(ctx context.Context) ([]models.FoodItemListing, error) {
	if _, err := s.RefreshExpiryStatus(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.items.ListActive(ctx, s.now().UTC())
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list food items")
	}
	return items, nil
}

// ListByCreator returns a poster's non-archived items after refreshing expiry status.
func (s *LedgerService) ListByCreator(ctx context.Context, creatorID string) ([]models.FoodItemListing, error) {
	if _, err := s.RefreshExpiryStatus(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.items.ListByCreator(ctx, creatorID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list food items")
	}
	return items, nil
}

// Restock overwrites the posted quantity of a non-archived item.
func (s *LedgerService) Restock(ctx context.Context, itemID string, quantity int) error {
	if quantity < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "quantity must not be negative")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return appErrors.ErrItemNotFound
		}
		if item.Archived() {
			return appErrors.ErrItemInactive
		}
		return s.items.SetQuantity(ctx, itemID, quantity, s.now().UTC())
	})
	if err != nil {
		return appErrors.Storage(err, "failed to restock item")
	}
	_, err = s.RefreshExpiryStatus(ctx)
	return err
}

// Archive soft-deletes an item. Claim history keeps its referential target.
func (s *LedgerService) Archive(ctx context.Context, itemID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.items.FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return appErrors.ErrItemNotFound
		}
		return s.items.Archive(ctx, itemID, s.now().UTC())
	})
	return appErrors.Storage(err, "failed to archive item")
}
