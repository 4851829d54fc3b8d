package services

import (
	"context"
	"time"

	"rentflow-backend/internal/models"
)

// Clock returns the current instant. Services never call time.Now directly.
type Clock func() time.Time

// LeaseStore reads leases.
type LeaseStore interface {
	Get(ctx context.Context, id int) (*models.Lease, error)
	// ListByLandlord returns every lease on the landlord's properties in any
	// status, active leases first, newest first within a status.
	ListByLandlord(ctx context.Context, landlordID int) ([]*models.Lease, error)
}

// PaymentStore persists payments. Lookups that find nothing return
// repositories.ErrNotFound.
type PaymentStore interface {
	Get(ctx context.Context, id int) (*models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error
	ListByLease(ctx context.Context, leaseID int) ([]*models.Payment, error)
	// ListByTenant covers all of the tenant's leases regardless of status.
	ListByTenant(ctx context.Context, tenantID int) ([]*models.Payment, error)
	// FindEarliestUnpaid returns the unpaid payment with the lowest due date
	// on the lease, ties broken by id. A non-empty symbol restricts the search
	// to payments whose normalized symbol equals it.
	FindEarliestUnpaid(ctx context.Context, leaseID int, symbol string) (*models.Payment, error)
	// Settle applies s if the row still has s.Version and one of
	// s.FromStatuses. It reports false when another writer got there first.
	Settle(ctx context.Context, s models.Settlement) (bool, error)
	// ListOverdueCandidates returns unpaid payments due on or before lastDue.
	ListOverdueCandidates(ctx context.Context, lastDue time.Time) ([]models.OverdueCandidate, error)
	MarkOverdue(ctx context.Context, paymentID, version int) (bool, error)
}

type RatingStore interface {
	Get(ctx context.Context, id int) (*models.Rating, error)
	// Create fails with repositories.ErrDuplicate when the lease already has
	// a rating by the same author in the same category.
	Create(ctx context.Context, r *models.Rating) error
	Delete(ctx context.Context, id int) error
	ListByLease(ctx context.Context, leaseID int) ([]*models.Rating, error)
	ListByTenant(ctx context.Context, tenantID int) ([]*models.Rating, error)
}

type TenantStore interface {
	GetTenant(ctx context.Context, id int) (*models.User, error)
	ListTenantIDs(ctx context.Context) ([]int, error)
	UpdateTrustScore(ctx context.Context, id int, score float64) error
}

// ReportCache holds rendered trust score reports. Implementations degrade
// to no-ops when the backing store is down.
type ReportCache interface {
	Get(ctx context.Context, tenantID int) ([]byte, bool)
	Set(ctx context.Context, tenantID int, data []byte)
	Invalidate(ctx context.Context, tenantID int)
}

// Archiver keeps a copy of an import's input and result.
type Archiver interface {
	Archive(ctx context.Context, batchID string, raw []byte, result []byte) error
}
