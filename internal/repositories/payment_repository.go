package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentflow-backend/internal/models"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

const paymentColumns = `
	p.id, p.lease_id, p.type, p.amount, p.due_date, p.paid_date, p.status,
	COALESCE(p.variable_symbol, ''), COALESCE(p.note, ''), p.version, p.created_at, p.updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.LeaseID, &p.Type, &p.Amount, &p.DueDate, &p.PaidDate, &p.Status,
		&p.VariableSymbol, &p.Note, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepository) queryList(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO payments(lease_id, type, amount, due_date, paid_date, status, variable_symbol, note)
         VALUES($1, $2, $3, $4, $5, $6, NULLIF($7::text, ''), NULLIF($8::text, ''))
         RETURNING id, version, created_at, updated_at`,
		p.LeaseID, p.Type, p.Amount, p.DueDate, p.PaidDate, p.Status, p.VariableSymbol, p.Note,
	).Scan(&p.ID, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (r *PaymentRepository) Get(ctx context.Context, id int) (*models.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments p WHERE p.id=$1`, id))
}

func (r *PaymentRepository) ListByLease(ctx context.Context, leaseID int) ([]*models.Payment, error) {
	return r.queryList(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.lease_id=$1 ORDER BY p.due_date, p.id`, leaseID)
}

func (r *PaymentRepository) ListByTenant(ctx context.Context, tenantID int) ([]*models.Payment, error) {
	return r.queryList(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments p
		 JOIN leases l ON l.id = p.lease_id
		 WHERE l.tenant_id=$1
		 ORDER BY p.due_date, p.id`, tenantID)
}

// FindEarliestUnpaid compares symbols with leading zeros stripped on both
// sides. An empty symbol matches any payment of the lease.
func (r *PaymentRepository) FindEarliestUnpaid(ctx context.Context, leaseID int, symbol string) (*models.Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments p
		 WHERE p.lease_id=$1 AND p.status=$2
		   AND ($3::text = '' OR ltrim(btrim(COALESCE(p.variable_symbol, '')), '0') = $3::text)
		 ORDER BY p.due_date, p.id
		 LIMIT 1`, leaseID, models.PaymentUnpaid, symbol))
}

// Settle is a compare-and-set on version and status. It reports false
// when the row changed since it was read.
func (r *PaymentRepository) Settle(ctx context.Context, s models.Settlement) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE payments SET
		     status = $4,
		     paid_date = $5,
		     variable_symbol = COALESCE(NULLIF($6::text, ''), variable_symbol),
		     note = CASE
		         WHEN $7::text = '' THEN note
		         WHEN note IS NULL OR note = '' THEN $7::text
		         ELSE note || E'\n' || $7::text
		     END,
		     version = version + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id=$1 AND version=$2 AND status = ANY($3)`,
		s.PaymentID, s.Version, s.FromStatuses, models.PaymentPaid, s.PaidDate, s.VariableSymbol, s.Note)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepository) ListOverdueCandidates(ctx context.Context, lastDue time.Time) ([]models.OverdueCandidate, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT p.id, p.version, l.tenant_id
		 FROM payments p
		 JOIN leases l ON l.id = p.lease_id
		 WHERE p.status=$1 AND p.due_date <= $2
		 ORDER BY p.due_date, p.id`, models.PaymentUnpaid, lastDue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OverdueCandidate
	for rows.Next() {
		var c models.OverdueCandidate
		if err := rows.Scan(&c.PaymentID, &c.Version, &c.TenantID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PaymentRepository) MarkOverdue(ctx context.Context, paymentID, version int) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE payments SET status=$3, version=version+1, updated_at=CURRENT_TIMESTAMP
		 WHERE id=$1 AND version=$2 AND status=$4`,
		paymentID, version, models.PaymentOverdue, models.PaymentUnpaid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
