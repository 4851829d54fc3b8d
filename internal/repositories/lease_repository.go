package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentflow-backend/internal/models"
)

type LeaseRepository struct {
	DB *pgxpool.Pool
}

func NewLeaseRepository(db *pgxpool.Pool) *LeaseRepository {
	return &LeaseRepository{DB: db}
}

const leaseSelect = `
	SELECT l.id, l.property_id, l.tenant_id, p.landlord_id, l.start_date, l.end_date,
	       l.rent_amount, l.deposit_amount, COALESCE(l.variable_symbol, ''), l.status,
	       l.created_at, l.updated_at
	FROM leases l
	JOIN properties p ON p.id = l.property_id`

func scanLease(row interface{ Scan(...any) error }) (*models.Lease, error) {
	var l models.Lease
	err := row.Scan(&l.ID, &l.PropertyID, &l.TenantID, &l.LandlordID, &l.StartDate, &l.EndDate,
		&l.RentAmount, &l.DepositAmount, &l.VariableSymbol, &l.Status,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *LeaseRepository) Get(ctx context.Context, id int) (*models.Lease, error) {
	return scanLease(r.DB.QueryRow(ctx, leaseSelect+` WHERE l.id=$1`, id))
}

// ListByLandlord returns the landlord's leases in every status. Active
// leases come first, then the most recently started, so a symbol shared by
// several leases resolves to the current one.
func (r *LeaseRepository) ListByLandlord(ctx context.Context, landlordID int) ([]*models.Lease, error) {
	rows, err := r.DB.Query(ctx,
		leaseSelect+` WHERE p.landlord_id=$1
		ORDER BY (l.status = 'active') DESC, l.start_date DESC, l.id DESC`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*models.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}
