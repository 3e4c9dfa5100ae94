package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/internal/repository"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
	"github.com/noah-isme/campus-meals-api/pkg/export"
)

type donationStore interface {
	ListSweepCandidates(ctx context.Context, now time.Time) ([]repository.SweepCandidate, error)
	InsertIfAbsent(ctx context.Context, donation *models.FoodDonation) (bool, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.FoodDonation, error)
	FindDetailByID(ctx context.Context, id string) (*models.FoodDonationDetail, error)
	Reserve(ctx context.Context, id string, ngo models.NGOAssignment, now time.Time) (bool, error)
	Collect(ctx context.Context, id string, now time.Time) (bool, error)
	List(ctx context.Context, filter models.DonationFilter) ([]models.FoodDonationDetail, error)
}

type expiryRefresher interface {
	RefreshExpiryStatus(ctx context.Context) (dto.RefreshResult, error)
}

type donationMetrics interface {
	RecordDonationsTransferred(n int64)
}

// DonationService moves expired inventory into the donation pipeline and
// tracks NGO pickup.
type DonationService struct {
	donations donationStore
	ledger    expiryRefresher
	tx        transactor
	metrics   donationMetrics
	renderers map[dto.ExportFormat]export.Renderer
	validator *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewDonationService constructs the donation sweeper.
func NewDonationService(
	donations donationStore,
	ledger expiryRefresher,
	tx transactor,
	metrics donationMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	timeout time.Duration,
) *DonationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DonationService{
		donations: donations,
		ledger:    ledger,
		tx:        tx,
		metrics:   metrics,
		renderers: map[dto.ExportFormat]export.Renderer{
			dto.ExportFormatCSV: export.NewCSVRenderer(),
			dto.ExportFormatPDF: export.NewPDFRenderer(),
		},
		validator: validate,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// SweepExpiredToDonations creates one donation per expired item that still
// holds stock. Items already transferred are skipped, so repeated sweeps are no-ops.
func (s *DonationService) SweepExpiredToDonations(ctx context.Context) (dto.SweepResult, error) {
	if _, err := s.ledger.RefreshExpiryStatus(ctx); err != nil {
		return dto.SweepResult{}, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now().UTC()
	candidates, err := s.donations.ListSweepCandidates(ctx, now)
	if err != nil {
		return dto.SweepResult{}, appErrors.Storage(err, "failed to list expired items")
	}

	var transferred int64
	for _, item := range candidates {
		note := fmt.Sprintf("Auto-transferred from expired food item: %s", item.Name)
		inserted, err := s.donations.InsertIfAbsent(ctx, &models.FoodDonation{
			FoodItemID:      item.ID,
			QuantityDonated: item.QuantityAvailable,
			Status:          models.DonationStatusAvailable,
			DonatedAt:       now,
			Notes:           &note,
		})
		if err != nil {
			if transferred > 0 {
				s.recordTransferred(transferred)
			}
			return dto.SweepResult{TransferredCount: transferred}, appErrors.Storage(err, "failed to record donation")
		}
		if inserted {
			transferred++
		}
	}

	s.recordTransferred(transferred)
	if transferred > 0 {
		s.logger.Info("expired items transferred to donations", zap.Int64("count", transferred))
	}
	return dto.SweepResult{TransferredCount: transferred}, nil
}

func (s *DonationService) recordTransferred(n int64) {
	if s.metrics != nil {
		s.metrics.RecordDonationsTransferred(n)
	}
}

// ReserveForNgo assigns an available donation to an NGO for pickup.
func (s *DonationService) ReserveForNgo(ctx context.Context, donationID string, req dto.ReserveDonationRequest) (*models.FoodDonationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "ngoName, ngoContactPerson and ngoPhoneNumber are required")
	}
	ngo := models.NGOAssignment{Name: req.NGOName, ContactPerson: req.NGOContactPerson, PhoneNumber: req.NGOPhoneNumber}
	return s.advance(ctx, donationID, models.DonationStatusAvailable, func(ctx context.Context, now time.Time) (bool, error) {
		return s.donations.Reserve(ctx, donationID, ngo, now)
	})
}

// MarkCollected records NGO pickup of a reserved donation.
func (s *DonationService) MarkCollected(ctx context.Context, donationID string) (*models.FoodDonationDetail, error) {
	return s.advance(ctx, donationID, models.DonationStatusReservedForNGO, func(ctx context.Context, now time.Time) (bool, error) {
		return s.donations.Collect(ctx, donationID, now)
	})
}

func (s *DonationService) advance(ctx context.Context, donationID string, from models.DonationStatus, apply func(context.Context, time.Time) (bool, error)) (*models.FoodDonationDetail, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		donation, err := s.donations.FindByIDForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		if donation == nil {
			return appErrors.ErrDonationNotFound
		}
		if donation.Status != from {
			return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("donation is %s", donation.Status))
		}
		ok, err := apply(ctx, s.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidState, "donation changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to update donation")
	}

	detail, err := s.donations.FindDetailByID(ctx, donationID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load donation")
	}
	if detail == nil {
		return nil, appErrors.ErrDonationNotFound
	}
	return detail, nil
}

// List returns donations filtered by status and poster.
func (s *DonationService) List(ctx context.Context, filter models.DonationFilter) ([]models.FoodDonationDetail, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown donation status %q", filter.Status))
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	donations, err := s.donations.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list donations")
	}
	return donations, nil
}

// Export renders the filtered donation list as a downloadable report.
func (s *DonationService) Export(ctx context.Context, format dto.ExportFormat, filter models.DonationFilter) (*dto.ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	donations, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	report := export.Report{
		Title:       "Food Donations",
		Columns:     []string{"Donated At", "Item", "Canteen", "Quantity", "Status", "NGO", "Contact", "Phone", "Collected At"},
		GeneratedAt: now,
	}
	for _, d := range donations {
		report.Rows = append(report.Rows, []string{
			d.DonatedAt.Format(time.RFC3339),
			d.ItemName,
			d.CanteenName,
			strconv.Itoa(d.QuantityDonated),
			string(d.Status),
			deref(d.NGOName),
			deref(d.NGOContactPerson),
			deref(d.NGOPhoneNumber),
			formatTime(d.CollectedAt),
		})
	}

	payload, err := renderer.Render(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render donation report")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("donations-%s.%s", now.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
