package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/internal/repository"
	"github.com/noah-isme/campus-meals-api/pkg/database"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

type claimItemReader interface {
	FindByIDForUpdate(ctx context.Context, id string) (*models.FoodItem, error)
}

type claimStore interface {
	SumReserved(ctx context.Context, foodItemID string) (int, error)
	HasOutstanding(ctx context.Context, userID, foodItemID string) (bool, error)
	Insert(ctx context.Context, claim *models.FoodClaim) error
	FindByIDForUpdate(ctx context.Context, id string) (*models.FoodClaim, error)
	FindDetailByID(ctx context.Context, id string) (*models.FoodClaimDetail, error)
	FindDetailByCode(ctx context.Context, code string) (*models.FoodClaimDetail, error)
	Transition(ctx context.Context, id string, status models.ClaimStatus, at time.Time) (bool, error)
	ExpireStale(ctx context.Context, scope repository.ClaimScope, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.FoodClaimDetail, error)
	ListReserved(ctx context.Context, now time.Time) ([]models.FoodClaimDetail, error)
}

type inventoryLedger interface {
	ConsumeReserved(ctx context.Context, itemID string, amount int) error
}

type claimNotifier interface {
	ClaimReserved(ctx context.Context, item *models.FoodItem, claim *models.FoodClaim)
	ClaimCompleted(ctx context.Context, detail *models.FoodClaimDetail)
}

type claimMetrics interface {
	RecordClaimOutcome(outcome string)
}

// ClaimConfig tunes reservation behaviour.
type ClaimConfig struct {
	ReservationTTL   time.Duration
	CodeMaxAttempts  int
	OperationTimeout time.Duration
}

// ClaimService enforces the claim state machine and per-user uniqueness.
type ClaimService struct {
	items     claimItemReader
	claims    claimStore
	ledger    inventoryLedger
	tx        transactor
	notifier  claimNotifier
	metrics   claimMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ClaimConfig
	now       func() time.Time
	newCode   func() (string, error)
}

// NewClaimService wires the claim lifecycle manager.
func NewClaimService(
	items claimItemReader,
	claims claimStore,
	ledger inventoryLedger,
	tx transactor,
	notifier claimNotifier,
	metrics claimMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ClaimConfig,
) *ClaimService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = 20 * time.Minute
	}
	if cfg.CodeMaxAttempts <= 0 {
		cfg.CodeMaxAttempts = 5
	}
	return &ClaimService{
		items:     items,
		claims:    claims,
		ledger:    ledger,
		tx:        tx,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newCode:   generateClaimCode,
	}
}

// CreateClaim reserves units of an item for userID and issues a claim code.
func (s *ClaimService) CreateClaim(ctx context.Context, userID string, req dto.CreateClaimRequest) (*models.FoodClaim, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	for attempt := 1; attempt <= s.cfg.CodeMaxAttempts; attempt++ {
		claim, item, err := s.reserve(ctx, userID, req.FoodItemID, quantity)
		switch {
		case err == nil:
			s.record("reserved")
			s.logger.Info("claim reserved",
				zap.String("claim_id", claim.ID),
				zap.String("food_item_id", claim.FoodItemID),
				zap.String("user_id", userID),
				zap.Int("quantity", quantity))
			if s.notifier != nil {
				s.notifier.ClaimReserved(ctx, item, claim)
			}
			return claim, nil
		case database.IsUniqueViolation(err, repository.ConstraintClaimCodeUnique):
			s.logger.Debug("claim code collision, retrying", zap.Int("attempt", attempt))
			continue
		case database.IsUniqueViolation(err, repository.ConstraintClaimOutstanding):
			s.record(appErrors.ErrAlreadyClaimed.Code)
			return nil, appErrors.ErrAlreadyClaimed
		default:
			err = appErrors.Storage(err, "failed to create claim")
			s.record(appErrors.FromError(err).Code)
			return nil, err
		}
	}
	s.record(appErrors.ErrInternal.Code)
	return nil, appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique claim code")
}

func (s *ClaimService) reserve(ctx context.Context, userID, itemID string, quantity int) (*models.FoodClaim, *models.FoodItem, error) {
	var (
		claim *models.FoodClaim
		item  *models.FoodItem
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.items.FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		switch {
		case item == nil:
			return appErrors.ErrItemNotFound
		case !item.IsActive || item.Archived():
			return appErrors.ErrItemInactive
		case item.Expired(now):
			return appErrors.ErrItemExpired
		}

		if _, err := s.claims.ExpireStale(ctx, repository.ClaimScope{FoodItemID: itemID}, now); err != nil {
			return err
		}
		reserved, err := s.claims.SumReserved(ctx, itemID)
		if err != nil {
			return err
		}
		if quantity > item.QuantityAvailable-reserved {
			return appErrors.ErrInsufficientQuantity
		}
		outstanding, err := s.claims.HasOutstanding(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if outstanding {
			return appErrors.ErrAlreadyClaimed
		}

		code, err := s.newCode()
		if err != nil {
			return err
		}
		claim = &models.FoodClaim{
			UserID:          userID,
			FoodItemID:      itemID,
			QuantityClaimed: quantity,
			ClaimCode:       code,
			Status:          models.ClaimStatusReserved,
			ExpiresAt:       now.Add(s.cfg.ReservationTTL),
			CreatedAt:       now,
		}
		return s.claims.Insert(ctx, claim)
	})
	if err != nil {
		return nil, nil, err
	}
	return claim, item, nil
}

// VerifyClaim checks a redemption code. Unknown, expired and already used
// codes are reported in the response; only storage failures are errors.
func (s *ClaimService) VerifyClaim(ctx context.Context, code string) (*dto.VerifyClaimResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !claimCodePattern.MatchString(code) {
		return &dto.VerifyClaimResponse{Message: "Invalid claim code", Reason: dto.VerifyReasonNotFound}, nil
	}

	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	detail, err := s.claims.FindDetailByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load claim")
	}
	if detail == nil {
		return &dto.VerifyClaimResponse{Message: "Invalid claim code", Reason: dto.VerifyReasonNotFound}, nil
	}

	switch detail.Status {
	case models.ClaimStatusReserved:
		if detail.PastDeadline(s.now().UTC()) {
			if _, err := s.claims.Transition(ctx, detail.ID, models.ClaimStatusExpired, s.now().UTC()); err != nil {
				return nil, appErrors.Storage(err, "failed to expire claim")
			}
			s.record("expired")
			return &dto.VerifyClaimResponse{Message: "Claim has expired", Reason: dto.VerifyReasonExpired}, nil
		}
		return &dto.VerifyClaimResponse{Success: true, Claim: detail}, nil
	case models.ClaimStatusClaimed, models.ClaimStatusExpired, models.ClaimStatusCancelled:
		return &dto.VerifyClaimResponse{
			Message: fmt.Sprintf("Claim is %s", detail.Status),
			Reason:  dto.VerifyReasonInvalidState,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown claim status %q", detail.Status))
	}
}

// CompleteClaim redeems a reserved claim and consumes its units from the ledger.
func (s *ClaimService) CompleteClaim(ctx context.Context, claimID string) (*models.FoodClaimDetail, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	var expired bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		expired = false
		claim, err := s.lockReserved(ctx, claimID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if claim.PastDeadline(now) {
			expired = true
			_, err := s.claims.Transition(ctx, claim.ID, models.ClaimStatusExpired, now)
			return err
		}
		if err := s.ledger.ConsumeReserved(ctx, claim.FoodItemID, claim.QuantityClaimed); err != nil {
			return err
		}
		ok, err := s.claims.Transition(ctx, claim.ID, models.ClaimStatusClaimed, now)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidState, "claim is no longer reserved")
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to complete claim")
	}
	if expired {
		s.record("expired")
		return nil, appErrors.ErrClaimExpired
	}

	detail, err := s.claims.FindDetailByID(ctx, claimID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load claim")
	}
	if detail == nil {
		return nil, appErrors.ErrClaimNotFound
	}
	s.record("completed")
	s.logger.Info("claim completed", zap.String("claim_id", claimID), zap.String("food_item_id", detail.FoodItemID))
	if s.notifier != nil {
		s.notifier.ClaimCompleted(ctx, detail)
	}
	return detail, nil
}

// CancelClaim lets a student release their own reservation.
func (s *ClaimService) CancelClaim(ctx context.Context, userID, claimID string) (*models.FoodClaim, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	var (
		cancelled *models.FoodClaim
		expired   bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cancelled, expired = nil, false
		claim, err := s.claims.FindByIDForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if claim == nil || claim.UserID != userID {
			return appErrors.ErrClaimNotFound
		}
		if claim.Status != models.ClaimStatusReserved {
			return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("claim is %s", claim.Status))
		}
		now := s.now().UTC()
		if claim.PastDeadline(now) {
			expired = true
			_, err := s.claims.Transition(ctx, claim.ID, models.ClaimStatusExpired, now)
			return err
		}
		if _, err := s.claims.Transition(ctx, claim.ID, models.ClaimStatusCancelled, now); err != nil {
			return err
		}
		claim.Status = models.ClaimStatusCancelled
		claim.CancelledAt = &now
		cancelled = claim
		return nil
	})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to cancel claim")
	}
	if expired {
		s.record("expired")
		return nil, appErrors.ErrClaimExpired
	}
	s.record("cancelled")
	return cancelled, nil
}

func (s *ClaimService) lockReserved(ctx context.Context, claimID string) (*models.FoodClaim, error) {
	claim, err := s.claims.FindByIDForUpdate(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, appErrors.ErrClaimNotFound
	}
	if claim.Status != models.ClaimStatusReserved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("claim is %s", claim.Status))
	}
	return claim, nil
}

// ListForUser returns the user's claims after expiring their stale reservations.
func (s *ClaimService) ListForUser(ctx context.Context, userID string) ([]models.FoodClaimDetail, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	if _, err := s.claims.ExpireStale(ctx, repository.ClaimScope{UserID: userID}, s.now().UTC()); err != nil {
		return nil, appErrors.Storage(err, "failed to expire claims")
	}
	claims, err := s.claims.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list claims")
	}
	return claims, nil
}

// ListActive returns reservations still awaiting pickup.
func (s *ClaimService) ListActive(ctx context.Context) ([]models.FoodClaimDetail, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	claims, err := s.claims.ListReserved(ctx, s.now().UTC())
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list claims")
	}
	return claims, nil
}

// ExpireStale marks every reservation past its deadline as expired.
func (s *ClaimService) ExpireStale(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	n, err := s.claims.ExpireStale(ctx, repository.ClaimScope{}, s.now().UTC())
	if err != nil {
		return 0, appErrors.Storage(err, "failed to expire claims")
	}
	return n, nil
}

func (s *ClaimService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordClaimOutcome(strings.ToLower(outcome))
	}
}
