package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/internal/repository"
)

type memTxKey struct{}

// memDB is an in-memory stand-in for PostgreSQL. Transactions are serialized
// and rolled back by restoring a snapshot.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	items     map[string]models.FoodItem
	claims    map[string]models.FoodClaim
	donations map[string]models.FoodDonation
	users     map[string]string
	err       error
}

func newMemDB() *memDB {
	return &memDB{
		items:     map[string]models.FoodItem{},
		claims:    map[string]models.FoodClaim{},
		donations: map[string]models.FoodDonation{},
		users:     map[string]string{},
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	items, claims, donations := cloneMap(db.items), cloneMap(db.claims), cloneMap(db.donations)
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		db.mu.Lock()
		db.items, db.claims, db.donations = items, claims, donations
		db.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) addItem(item models.FoodItem) models.FoodItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	db.items[item.ID] = item
	return item
}

func (db *memDB) item(id string) models.FoodItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.items[id]
}

func (db *memDB) claim(id string) models.FoodClaim {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.claims[id]
}

func (db *memDB) allDonations() []models.FoodDonation {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.FoodDonation, 0, len(db.donations))
	for _, d := range db.donations {
		out = append(out, d)
	}
	return out
}

func (db *memDB) outstandingFor(userID, itemID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, c := range db.claims {
		if c.UserID == userID && c.FoodItemID == itemID && c.Status.Outstanding() {
			n++
		}
	}
	return n
}

// memItems implements the item store interfaces.
type memItems struct{ db *memDB }

func (m memItems) FindByID(_ context.Context, id string) (*models.FoodItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.err != nil {
		return nil, m.db.err
	}
	item, ok := m.db.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m memItems) FindByIDForUpdate(ctx context.Context, id string) (*models.FoodItem, error) {
	return m.FindByID(ctx, id)
}

func (m memItems) Create(_ context.Context, item *models.FoodItem) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.UpdatedAt = item.CreatedAt
	m.db.items[item.ID] = *item
	return nil
}

func (m memItems) UpdateDetails(_ context.Context, id string, c models.FoodItemChanges, now time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	item := m.db.items[id]
	if c.Name != nil {
		item.Name = *c.Name
	}
	if c.Description != nil {
		item.Description = c.Description
	}
	if c.CanteenName != nil {
		item.CanteenName = *c.CanteenName
	}
	if c.CanteenLocation != nil {
		item.CanteenLocation = c.CanteenLocation
	}
	if c.ImageURL != nil {
		item.ImageURL = c.ImageURL
	}
	if c.AvailableUntil != nil {
		item.AvailableUntil = *c.AvailableUntil
	}
	item.UpdatedAt = now
	m.db.items[id] = item
	return nil
}

func (m memItems) Decrement(_ context.Context, id string, amount int, now time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	item, ok := m.db.items[id]
	if !ok || item.QuantityAvailable < amount {
		return false, nil
	}
	item.QuantityAvailable -= amount
	item.UpdatedAt = now
	m.db.items[id] = item
	return true, nil
}

func (m memItems) SetQuantity(_ context.Context, id string, quantity int, now time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	item := m.db.items[id]
	item.QuantityAvailable = quantity
	item.UpdatedAt = now
	m.db.items[id] = item
	return nil
}

func (m memItems) Archive(_ context.Context, id string, now time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	item := m.db.items[id]
	item.IsActive = false
	if item.ArchivedAt == nil {
		item.ArchivedAt = &now
	}
	item.UpdatedAt = now
	m.db.items[id] = item
	return nil
}

func (m memItems) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.err != nil {
		return 0, m.db.err
	}
	var n int64
	for id, item := range m.db.items {
		if item.IsActive && !now.Before(item.AvailableUntil) {
			item.IsActive = false
			item.UpdatedAt = now
			m.db.items[id] = item
			n++
		}
	}
	return n, nil
}

func (m memItems) ReactivateExtended(_ context.Context, now time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, item := range m.db.items {
		if !item.IsActive && item.ArchivedAt == nil && item.AvailableUntil.After(now) && item.QuantityAvailable > 0 {
			item.IsActive = true
			item.UpdatedAt = now
			m.db.items[id] = item
			n++
		}
	}
	return n, nil
}

func (m memItems) listing(item models.FoodItem, now time.Time) models.FoodItemListing {
	l := models.FoodItemListing{FoodItem: item}
	for _, c := range m.db.claims {
		if c.FoodItemID != item.ID {
			continue
		}
		if c.Status == models.ClaimStatusReserved && !c.ExpiresAt.Before(now) {
			l.ReservedQuantity += c.QuantityClaimed
		}
		if c.Status.Outstanding() {
			l.ClaimCount++
		}
	}
	return l
}

func (m memItems) ListActive(_ context.Context, now time.Time) ([]models.FoodItemListing, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.FoodItemListing
	for _, item := range m.db.items {
		if item.IsActive && item.ArchivedAt == nil && item.AvailableUntil.After(now) && item.QuantityAvailable > 0 {
			out = append(out, m.listing(item, now))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvailableUntil.Before(out[j].AvailableUntil) })
	return out, nil
}

func (m memItems) ListByCreator(_ context.Context, creatorID string, now time.Time) ([]models.FoodItemListing, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.FoodItemListing
	for _, item := range m.db.items {
		if item.CreatedBy == creatorID && item.ArchivedAt == nil {
			out = append(out, m.listing(item, now))
		}
	}
	return out, nil
}

// memClaims implements claimStore.
type memClaims struct{ db *memDB }

func (m memClaims) SumReserved(_ context.Context, itemID string) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	total := 0
	for _, c := range m.db.claims {
		if c.FoodItemID == itemID && c.Status == models.ClaimStatusReserved {
			total += c.QuantityClaimed
		}
	}
	return total, nil
}

func (m memClaims) HasOutstanding(_ context.Context, userID, itemID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, c := range m.db.claims {
		if c.UserID == userID && c.FoodItemID == itemID && c.Status.Outstanding() {
			return true, nil
		}
	}
	return false, nil
}

func (m memClaims) Insert(_ context.Context, claim *models.FoodClaim) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, c := range m.db.claims {
		if c.ClaimCode == claim.ClaimCode {
			return &pq.Error{Code: "23505", Constraint: repository.ConstraintClaimCodeUnique}
		}
		if c.UserID == claim.UserID && c.FoodItemID == claim.FoodItemID && c.Status.Outstanding() {
			return &pq.Error{Code: "23505", Constraint: repository.ConstraintClaimOutstanding}
		}
	}
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	m.db.claims[claim.ID] = *claim
	return nil
}

func (m memClaims) FindByIDForUpdate(_ context.Context, id string) (*models.FoodClaim, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.claims[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m memClaims) detail(c models.FoodClaim) *models.FoodClaimDetail {
	item := m.db.items[c.FoodItemID]
	d := &models.FoodClaimDetail{
		FoodClaim:       c,
		ItemName:        item.Name,
		CanteenName:     item.CanteenName,
		CanteenLocation: item.CanteenLocation,
		AvailableUntil:  item.AvailableUntil,
		ItemCreatedBy:   item.CreatedBy,
	}
	if name, ok := m.db.users[c.UserID]; ok {
		d.UserFullName = &name
	}
	return d
}

func (m memClaims) FindDetailByID(_ context.Context, id string) (*models.FoodClaimDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.claims[id]
	if !ok {
		return nil, nil
	}
	return m.detail(c), nil
}

func (m memClaims) FindDetailByCode(_ context.Context, code string) (*models.FoodClaimDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.err != nil {
		return nil, m.db.err
	}
	for _, c := range m.db.claims {
		if c.ClaimCode == code {
			return m.detail(c), nil
		}
	}
	return nil, nil
}

func (m memClaims) Transition(_ context.Context, id string, status models.ClaimStatus, at time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.claims[id]
	if !ok || c.Status != models.ClaimStatusReserved {
		return false, nil
	}
	c.Status = status
	switch status {
	case models.ClaimStatusClaimed:
		c.ClaimedAt = &at
	case models.ClaimStatusCancelled:
		c.CancelledAt = &at
	}
	m.db.claims[id] = c
	return true, nil
}

func (m memClaims) ExpireStale(_ context.Context, scope repository.ClaimScope, now time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, c := range m.db.claims {
		if c.Status != models.ClaimStatusReserved || !c.ExpiresAt.Before(now) {
			continue
		}
		if scope.FoodItemID != "" && c.FoodItemID != scope.FoodItemID {
			continue
		}
		if scope.UserID != "" && c.UserID != scope.UserID {
			continue
		}
		c.Status = models.ClaimStatusExpired
		m.db.claims[id] = c
		n++
	}
	return n, nil
}

func (m memClaims) ListByUser(_ context.Context, userID string) ([]models.FoodClaimDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.FoodClaimDetail
	for _, c := range m.db.claims {
		if c.UserID == userID {
			out = append(out, *m.detail(c))
		}
	}
	return out, nil
}

func (m memClaims) ListReserved(_ context.Context, now time.Time) ([]models.FoodClaimDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.FoodClaimDetail
	for _, c := range m.db.claims {
		if c.Status == models.ClaimStatusReserved && !c.ExpiresAt.Before(now) {
			out = append(out, *m.detail(c))
		}
	}
	return out, nil
}

// memDonations implements donationStore.
type memDonations struct{ db *memDB }

func (m memDonations) ListSweepCandidates(_ context.Context, now time.Time) ([]repository.SweepCandidate, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	held := map[string]bool{}
	for _, d := range m.db.donations {
		held[d.FoodItemID] = true
	}
	for _, c := range m.db.claims {
		if c.Status == models.ClaimStatusReserved && !c.ExpiresAt.Before(now) {
			held[c.FoodItemID] = true
		}
	}
	var out []repository.SweepCandidate
	for _, item := range m.db.items {
		if !item.IsActive && item.ArchivedAt == nil && item.AvailableUntil.Before(now) && item.QuantityAvailable > 0 && !held[item.ID] {
			out = append(out, repository.SweepCandidate{ID: item.ID, Name: item.Name, QuantityAvailable: item.QuantityAvailable})
		}
	}
	return out, nil
}

func (m memDonations) InsertIfAbsent(_ context.Context, d *models.FoodDonation) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, existing := range m.db.donations {
		if existing.FoodItemID == d.FoodItemID {
			return false, nil
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	m.db.donations[d.ID] = *d
	return true, nil
}

func (m memDonations) FindByIDForUpdate(_ context.Context, id string) (*models.FoodDonation, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	d, ok := m.db.donations[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m memDonations) FindDetailByID(_ context.Context, id string) (*models.FoodDonationDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	d, ok := m.db.donations[id]
	if !ok {
		return nil, nil
	}
	item := m.db.items[d.FoodItemID]
	return &models.FoodDonationDetail{FoodDonation: d, ItemName: item.Name, CanteenName: item.CanteenName, AvailableUntil: item.AvailableUntil, ItemCreatedBy: item.CreatedBy}, nil
}

func (m memDonations) Reserve(_ context.Context, id string, ngo models.NGOAssignment, now time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	d, ok := m.db.donations[id]
	if !ok || d.Status != models.DonationStatusAvailable {
		return false, nil
	}
	d.Status = models.DonationStatusReservedForNGO
	d.NGOName, d.NGOContactPerson, d.NGOPhoneNumber = &ngo.Name, &ngo.ContactPerson, &ngo.PhoneNumber
	d.ReservedAt = &now
	m.db.donations[id] = d
	return true, nil
}

func (m memDonations) Collect(_ context.Context, id string, now time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	d, ok := m.db.donations[id]
	if !ok || d.Status != models.DonationStatusReservedForNGO {
		return false, nil
	}
	d.Status = models.DonationStatusCollected
	d.CollectedAt = &now
	m.db.donations[id] = d
	return true, nil
}

func (m memDonations) List(_ context.Context, filter models.DonationFilter) ([]models.FoodDonationDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.FoodDonationDetail
	for _, d := range m.db.donations {
		item := m.db.items[d.FoodItemID]
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.CreatedBy != "" && item.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, models.FoodDonationDetail{FoodDonation: d, ItemName: item.Name, CanteenName: item.CanteenName, AvailableUntil: item.AvailableUntil, ItemCreatedBy: item.CreatedBy})
	}
	return out, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
