package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/pkg/database"
)

func TestFoodClaimRepositorySumReserved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFoodClaimRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(quantity_claimed), 0) FROM food_claims WHERE food_item_id = $1 AND status = 'reserved'`)).
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))

	total, err := repo.SumReserved(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestFoodClaimRepositoryInsertKeepsDriverError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFoodClaimRepository(db)

	mock.ExpectExec(`INSERT INTO food_claims`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: ConstraintClaimCodeUnique})

	err := repo.Insert(context.Background(), &models.FoodClaim{
		UserID:          "user-1",
		FoodItemID:      "item-1",
		QuantityClaimed: 1,
		ClaimCode:       "ABC-123",
		Status:          models.ClaimStatusReserved,
		ExpiresAt:       time.Now().Add(20 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err, ConstraintClaimCodeUnique))
	assert.False(t, database.IsUniqueViolation(err, ConstraintClaimOutstanding))
}

func TestFoodClaimRepositoryTransitionOnlyFromReserved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFoodClaimRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE food_claims SET status = 'claimed', claimed_at = $2 WHERE id = $1 AND status = 'reserved'`)).
		WithArgs("claim-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE food_claims SET status = 'expired' WHERE id = $1 AND status = 'reserved'`)).
		WithArgs("claim-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Transition(context.Background(), "claim-1", models.ClaimStatusClaimed, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(context.Background(), "claim-2", models.ClaimStatusExpired, now)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Transition(context.Background(), "claim-3", models.ClaimStatusReserved, now)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoodClaimRepositoryExpireStaleScopes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFoodClaimRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE food_claims SET status = 'expired' WHERE status = 'reserved' AND expires_at < $1 AND food_item_id = $2`)).
		WithArgs(now, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE food_claims SET status = 'expired' WHERE status = 'reserved' AND expires_at < $1 AND user_id = $2`)).
		WithArgs(now, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.ExpireStale(context.Background(), ClaimScope{FoodItemID: "item-1"}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.ExpireStale(context.Background(), ClaimScope{UserID: "user-1"}, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoodClaimRepositoryFindDetailByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFoodClaimRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	columns := []string{"id", "user_id", "food_item_id", "quantity_claimed", "claim_code", "status", "expires_at",
		"claimed_at", "cancelled_at", "created_at", "user_email", "user_full_name", "item_name", "canteen_name",
		"canteen_location", "available_until", "item_created_by"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE fc.claim_code = $1`)).
		WithArgs("ABC-123").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("claim-1", "user-1", "item-1", 1, "ABC-123", "reserved",
			now.Add(20*time.Minute), nil, nil, now, "s@campus.ac.id", "Sari", "Soto", "Kantin B", nil, now.Add(time.Hour), "staff-1"))

	detail, err := repo.FindDetailByCode(context.Background(), "ABC-123")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, models.ClaimStatusReserved, detail.Status)
	assert.Equal(t, "Soto", detail.ItemName)
	require.NotNil(t, detail.UserFullName)
	assert.Equal(t, "Sari", *detail.UserFullName)
}
