package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"rentflow-backend/internal/bankcsv"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/repositories"
)

// memDB backs the in-memory stores used by the service tests. Values are
// copied in and out so callers cannot mutate stored rows.
type memDB struct {
	mu       sync.Mutex
	nextID   int
	users    map[int]*models.User
	leases   map[int]*models.Lease
	payments map[int]*models.Payment
	ratings  map[int]*models.Rating

	// beforeSettle runs before a settlement is applied, with the lock
	// released, so tests can simulate a concurrent writer.
	beforeSettle func(s models.Settlement)
	findErr      error
	leasesErr    error
	settleCalls  int
}

func newMemDB() *memDB {
	return &memDB{
		nextID:   100,
		users:    map[int]*models.User{},
		leases:   map[int]*models.Lease{},
		payments: map[int]*models.Payment{},
		ratings:  map[int]*models.Rating{},
	}
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

func (db *memDB) addUser(role, name string) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{ID: db.id(), Name: name, Role: role, TrustScore: models.DefaultTrustScore}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addLease(landlordID, tenantID int, symbol, status string) *models.Lease {
	db.mu.Lock()
	defer db.mu.Unlock()
	l := &models.Lease{
		ID:             db.id(),
		TenantID:       tenantID,
		LandlordID:     landlordID,
		VariableSymbol: symbol,
		Status:         status,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	db.leases[l.ID] = l
	return l
}

func (db *memDB) addPayment(leaseID int, symbol string, due string, status string) *models.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, _ := time.Parse("2006-01-02", due)
	p := &models.Payment{
		ID:             db.id(),
		LeaseID:        leaseID,
		Type:           models.PaymentTypeRent,
		DueDate:        d,
		Status:         status,
		VariableSymbol: symbol,
		Version:        1,
	}
	if status == models.PaymentPaid {
		paid := d
		p.PaidDate = &paid
	}
	db.payments[p.ID] = p
	return p
}

func (db *memDB) addRating(leaseID, authorID, score int, category string) *models.Rating {
	db.mu.Lock()
	defer db.mu.Unlock()
	r := &models.Rating{ID: db.id(), LeaseID: leaseID, RatedBy: authorID, Category: category, Score: score}
	db.ratings[r.ID] = r
	return r
}

func (db *memDB) payment(id int) models.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.payments[id]
}

func (db *memDB) user(id int) models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.users[id]
}

func copyPayment(p *models.Payment) *models.Payment {
	c := *p
	if p.PaidDate != nil {
		d := *p.PaidDate
		c.PaidDate = &d
	}
	return &c
}

type memLeases struct{ db *memDB }

func (s memLeases) Get(_ context.Context, id int) (*models.Lease, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.leases[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (s memLeases) ListByLandlord(_ context.Context, landlordID int) ([]*models.Lease, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.leasesErr != nil {
		return nil, s.db.leasesErr
	}
	var out []*models.Lease
	for _, l := range s.db.leases {
		if l.LandlordID == landlordID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsActive() != out[j].IsActive() {
			return out[i].IsActive()
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type memPayments struct{ db *memDB }

func (s memPayments) Get(_ context.Context, id int) (*models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyPayment(p), nil
}

func (s memPayments) Create(_ context.Context, p *models.Payment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p.ID = s.db.id()
	s.db.payments[p.ID] = copyPayment(p)
	return nil
}

func (s memPayments) list(keep func(*models.Payment) bool) []*models.Payment {
	var out []*models.Payment
	for _, p := range s.db.payments {
		if keep(p) {
			out = append(out, copyPayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s memPayments) ListByLease(_ context.Context, leaseID int) ([]*models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(p *models.Payment) bool { return p.LeaseID == leaseID }), nil
}

func (s memPayments) ListByTenant(_ context.Context, tenantID int) ([]*models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(p *models.Payment) bool {
		l := s.db.leases[p.LeaseID]
		return l != nil && l.TenantID == tenantID
	}), nil
}

func (s memPayments) FindEarliestUnpaid(_ context.Context, leaseID int, symbol string) (*models.Payment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.findErr != nil {
		return nil, s.db.findErr
	}
	found := s.list(func(p *models.Payment) bool {
		if p.LeaseID != leaseID || p.Status != models.PaymentUnpaid {
			return false
		}
		return symbol == "" || bankcsv.NormalizeSymbol(p.VariableSymbol) == symbol
	})
	if len(found) == 0 {
		return nil, repositories.ErrNotFound
	}
	return found[0], nil
}

func (s memPayments) Settle(_ context.Context, st models.Settlement) (bool, error) {
	if hook := s.db.beforeSettle; hook != nil {
		hook(st)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.settleCalls++
	p, ok := s.db.payments[st.PaymentID]
	if !ok || p.Version != st.Version || !contains(st.FromStatuses, p.Status) {
		return false, nil
	}
	paid := st.PaidDate
	p.PaidDate = &paid
	p.Status = models.PaymentPaid
	if st.VariableSymbol != "" {
		p.VariableSymbol = st.VariableSymbol
	}
	p.Note = models.AppendNote(p.Note, st.Note)
	p.Version++
	return true, nil
}

func (s memPayments) ListOverdueCandidates(_ context.Context, lastDue time.Time) ([]models.OverdueCandidate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.OverdueCandidate
	for _, p := range s.list(func(p *models.Payment) bool {
		return p.Status == models.PaymentUnpaid && !p.DueDate.After(lastDue)
	}) {
		out = append(out, models.OverdueCandidate{PaymentID: p.ID, Version: p.Version, TenantID: s.db.leases[p.LeaseID].TenantID})
	}
	return out, nil
}

func (s memPayments) MarkOverdue(_ context.Context, id, version int) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[id]
	if !ok || p.Version != version || p.Status != models.PaymentUnpaid {
		return false, nil
	}
	p.Status = models.PaymentOverdue
	p.Version++
	return true, nil
}

type memRatings struct{ db *memDB }

func (s memRatings) Get(_ context.Context, id int) (*models.Rating, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.ratings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s memRatings) Create(_ context.Context, r *models.Rating) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.ratings {
		if e.LeaseID == r.LeaseID && e.RatedBy == r.RatedBy && e.Category == r.Category {
			return repositories.ErrDuplicate
		}
	}
	r.ID = s.db.id()
	c := *r
	s.db.ratings[r.ID] = &c
	return nil
}

func (s memRatings) Delete(_ context.Context, id int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.ratings[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.ratings, id)
	return nil
}

func (s memRatings) list(keep func(*models.Rating) bool) []*models.Rating {
	var out []*models.Rating
	for _, r := range s.db.ratings {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s memRatings) ListByLease(_ context.Context, leaseID int) ([]*models.Rating, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r *models.Rating) bool { return r.LeaseID == leaseID }), nil
}

func (s memRatings) ListByTenant(_ context.Context, tenantID int) ([]*models.Rating, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r *models.Rating) bool {
		l := s.db.leases[r.LeaseID]
		return l != nil && l.TenantID == tenantID
	}), nil
}

type memTenants struct{ db *memDB }

func (s memTenants) GetTenant(_ context.Context, id int) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s memTenants) ListTenantIDs(_ context.Context) ([]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ids []int
	for id, u := range s.db.users {
		if u.IsTenant() {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s memTenants) UpdateTrustScore(_ context.Context, id int, score float64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.TrustScore = score
	return nil
}

type memCache struct {
	mu          sync.Mutex
	data        map[int][]byte
	invalidated []int
}

func newMemCache() *memCache {
	return &memCache{data: map[int][]byte{}}
}

func (c *memCache) Get(_ context.Context, tenantID int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[tenantID]
	return d, ok
}

func (c *memCache) Set(_ context.Context, tenantID int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[tenantID] = data
}

func (c *memCache) Invalidate(_ context.Context, tenantID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, tenantID)
	c.invalidated = append(c.invalidated, tenantID)
}

type memArchiver struct {
	batchID string
	raw     []byte
	result  []byte
	err     error
}

func (a *memArchiver) Archive(_ context.Context, batchID string, raw, result []byte) error {
	a.batchID, a.raw, a.result = batchID, raw, result
	return a.err
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var errStorage = errors.New("connection reset")

// testNow is 20 March 2026, midday in Prague.
var testNow = time.Date(2026, 3, 20, 11, 0, 0, 0, time.UTC)

type testEnv struct {
	db             *memDB
	cache          *memCache
	trustScores    *TrustScoreService
	matcher        *PaymentMatcher
	reconciliation *ReconciliationService
	payments       *PaymentService
	ratings        *RatingService
	overdue        *OverdueService
}

func newTestEnv() *testEnv {
	db := newMemDB()
	cache := newMemCache()
	log := zap.NewNop()
	clock := func() time.Time { return testNow }

	leases := memLeases{db}
	payments := memPayments{db}
	ratings := memRatings{db}

	ts := NewTrustScoreService(memTenants{db}, payments, ratings, cache, log)
	matcher := NewPaymentMatcher(payments, clock)
	rec := NewReconciliationService(leases, matcher, ts, nil, log)
	rec.NewBatchID = func() string { return "batch-1" }

	return &testEnv{
		db:             db,
		cache:          cache,
		trustScores:    ts,
		matcher:        matcher,
		reconciliation: rec,
		payments:       NewPaymentService(payments, leases, ts, clock, log),
		ratings:        NewRatingService(ratings, leases, ts, true, log),
		overdue:        NewOverdueService(payments, ts, 5, clock, log),
	}
}
