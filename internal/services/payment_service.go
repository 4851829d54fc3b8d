package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rentflow-backend/internal/bankcsv"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/repositories"
	"rentflow-backend/internal/timeutil"
)

type PaymentService struct {
	Payments    PaymentStore
	Leases      LeaseStore
	TrustScores *TrustScoreService
	Clock       Clock
	Logger      *zap.Logger
}

func NewPaymentService(payments PaymentStore, leases LeaseStore, trustScores *TrustScoreService, clock Clock, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		Payments:    payments,
		Leases:      leases,
		TrustScores: trustScores,
		Clock:       clock,
		Logger:      logger,
	}
}

func (s *PaymentService) Get(ctx context.Context, id int) (*models.Payment, error) {
	p, err := s.Payments.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (s *PaymentService) ListByLease(ctx context.Context, leaseID int) ([]*models.Payment, error) {
	if _, err := s.lease(ctx, leaseID); err != nil {
		return nil, err
	}
	return s.Payments.ListByLease(ctx, leaseID)
}

// Create records a new obligation. Without an explicit status the payment
// is paid when a paid date is given and unpaid otherwise.
func (s *PaymentService) Create(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	lease, err := s.lease(ctx, req.LeaseID)
	if err != nil {
		return nil, err
	}

	p, err := buildPayment(req)
	if err != nil {
		return nil, err
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.recalculate(ctx, lease.TenantID, p.ID, models.TriggerPaymentChange)
	return p, nil
}

// MarkPaid settles an unpaid or overdue payment with today's date.
func (s *PaymentService) MarkPaid(ctx context.Context, id int) (*models.Payment, error) {
	today := timeutil.Today(s.Clock())

	for attempt := 0; attempt < maxSettleAttempts; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.Status == models.PaymentPaid {
			return nil, ErrPaymentAlreadyPaid
		}

		settled, err := s.Payments.Settle(ctx, models.Settlement{
			PaymentID:    p.ID,
			Version:      p.Version,
			PaidDate:     today,
			FromStatuses: []string{models.PaymentUnpaid, models.PaymentOverdue},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mark payment %d paid: %w", id, err)
		}
		if !settled {
			continue
		}

		p.Status = models.PaymentPaid
		p.PaidDate = &today
		p.Version++

		lease, err := s.Leases.Get(ctx, p.LeaseID)
		if err != nil {
			s.Logger.Error("failed to load lease for recalculation", zap.Int("payment_id", p.ID), zap.Error(err))
			return p, nil
		}
		s.recalculate(ctx, lease.TenantID, p.ID, models.TriggerMarkPaid)
		return p, nil
	}
	return nil, ErrPaymentConflict
}

// recalculate runs after a committed payment change. Its failure is logged
// and does not undo the change.
func (s *PaymentService) recalculate(ctx context.Context, tenantID, paymentID int, trigger string) {
	if _, err := s.TrustScores.Calculate(ctx, tenantID, trigger); err != nil {
		s.Logger.Error("trust score recalculation failed",
			zap.Int("tenant_id", tenantID),
			zap.Int("payment_id", paymentID),
			zap.Error(err))
	}
}

func (s *PaymentService) lease(ctx context.Context, id int) (*models.Lease, error) {
	lease, err := s.Leases.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrLeaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lease %d: %w", id, err)
	}
	return lease, nil
}

func buildPayment(req *models.CreatePaymentRequest) (*models.Payment, error) {
	if !isPaymentType(req.Type) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPayment, req.Type)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}

	due, err := time.Parse(timeutil.DateLayout, req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", ErrInvalidPayment)
	}

	var paid *time.Time
	if req.PaidDate != "" {
		t, err := time.Parse(timeutil.DateLayout, req.PaidDate)
		if err != nil {
			return nil, fmt.Errorf("%w: paid_date must be YYYY-MM-DD", ErrInvalidPayment)
		}
		paid = &t
	}

	status := req.Status
	switch {
	case status == "" && paid != nil:
		status = models.PaymentPaid
	case status == "":
		status = models.PaymentUnpaid
	case status != models.PaymentPaid && status != models.PaymentUnpaid && status != models.PaymentOverdue:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPayment, status)
	}
	if (status == models.PaymentPaid) != (paid != nil) {
		return nil, fmt.Errorf("%w: paid_date is required exactly when status is paid", ErrInvalidPayment)
	}

	return &models.Payment{
		LeaseID:        req.LeaseID,
		Type:           req.Type,
		Amount:         req.Amount,
		DueDate:        due,
		PaidDate:       paid,
		Status:         status,
		VariableSymbol: bankcsv.NormalizeSymbol(req.VariableSymbol),
		Note:           req.Note,
		Version:        1,
	}, nil
}

func isPaymentType(t string) bool {
	switch t {
	case models.PaymentTypeRent, models.PaymentTypeUtilities, models.PaymentTypeDeposit, models.PaymentTypeOther:
		return true
	}
	return false
}
