package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/pkg/database"
)

const donationColumns = `fd.id, fd.food_item_id, fd.quantity_donated, fd.status, fd.ngo_name, fd.ngo_contact_person,
	fd.ngo_phone_number, fd.donated_at, fd.reserved_at, fd.collected_at, fd.notes, fd.created_at`

// SweepCandidate is an expired item that still holds unclaimed units.
type SweepCandidate struct {
	ID                string `db:"id"`
	Name              string `db:"name"`
	QuantityAvailable int    `db:"quantity_available"`
}

// DonationRepository persists donation records.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs the repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// ListSweepCandidates returns inactive, expired items with stock and no
// donation. Items still holding a live reservation wait for a later sweep.
func (r *DonationRepository) ListSweepCandidates(ctx context.Context, now time.Time) ([]SweepCandidate, error) {
	const query = `
SELECT fi.id, fi.name, fi.quantity_available
FROM food_items fi
WHERE fi.is_active = false
	AND fi.archived_at IS NULL
	AND fi.available_until < $1
	AND fi.quantity_available > 0
	AND NOT EXISTS (SELECT 1 FROM food_donations fd WHERE fd.food_item_id = fi.id)
	AND NOT EXISTS (
		SELECT 1 FROM food_claims fc
		WHERE fc.food_item_id = fi.id AND fc.status = 'reserved' AND fc.expires_at >= $1
	)
ORDER BY fi.available_until ASC`
	var candidates []SweepCandidate
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &candidates, query, now); err != nil {
		return nil, fmt.Errorf("list sweep candidates: %w", err)
	}
	return candidates, nil
}

// InsertIfAbsent records a donation unless one already exists for the item.
// It reports whether a row was written.
func (r *DonationRepository) InsertIfAbsent(ctx context.Context, donation *models.FoodDonation) (bool, error) {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = donation.DonatedAt
	}
	const query = `
INSERT INTO food_donations (id, food_item_id, quantity_donated, status, donated_at, notes, created_at)
VALUES (:id, :food_item_id, :quantity_donated, :status, :donated_at, :notes, :created_at)
ON CONFLICT (food_item_id) DO NOTHING`
	res, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, donation)
	if err != nil {
		return false, fmt.Errorf("insert donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert donation: %w", err)
	}
	return affected == 1, nil
}

// FindByIDForUpdate loads a donation and locks its row.
func (r *DonationRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.FoodDonation, error) {
	query := `SELECT ` + donationColumns + ` FROM food_donations fd WHERE fd.id = $1 FOR UPDATE`
	var donation models.FoodDonation
	if err := database.Conn(ctx, r.db).GetContext(ctx, &donation, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock donation: %w", err)
	}
	return &donation, nil
}

// Reserve assigns an available donation to an NGO.
func (r *DonationRepository) Reserve(ctx context.Context, id string, ngo models.NGOAssignment, now time.Time) (bool, error) {
	const query = `
UPDATE food_donations
SET status = 'reserved_for_ngo', ngo_name = $2, ngo_contact_person = $3, ngo_phone_number = $4, reserved_at = $5
WHERE id = $1 AND status = 'available'`
	return r.transition(ctx, "reserve donation", query, id, ngo.Name, ngo.ContactPerson, ngo.PhoneNumber, now)
}

// Collect marks a reserved donation as picked up.
func (r *DonationRepository) Collect(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `
UPDATE food_donations
SET status = 'collected', collected_at = $2
WHERE id = $1 AND status = 'reserved_for_ngo'`
	return r.transition(ctx, "collect donation", query, id, now)
}

func (r *DonationRepository) transition(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// FindDetailByID returns a donation joined with its source item.
func (r *DonationRepository) FindDetailByID(ctx context.Context, id string) (*models.FoodDonationDetail, error) {
	query := donationDetailSelect + "\nWHERE fd.id = $1"
	var detail models.FoodDonationDetail
	if err := database.Conn(ctx, r.db).GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return &detail, nil
}

const donationDetailSelect = `
SELECT ` + donationColumns + `,
	fi.name AS item_name,
	fi.canteen_name,
	fi.available_until,
	fi.created_by AS item_created_by
FROM food_donations fd
JOIN food_items fi ON fi.id = fd.food_item_id`

// List returns donations matching filter, newest first.
func (r *DonationRepository) List(ctx context.Context, filter models.DonationFilter) ([]models.FoodDonationDetail, error) {
	query := strings.Builder{}
	query.WriteString(donationDetailSelect)
	query.WriteString("\nWHERE 1=1")
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&query, " AND fd.status = $%d", len(args))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		fmt.Fprintf(&query, " AND fi.created_by = $%d", len(args))
	}
	query.WriteString("\nORDER BY fd.donated_at DESC")

	var donations []models.FoodDonationDetail
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &donations, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}
