package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
)

// OverdueService flags unpaid payments whose grace period has passed.
type OverdueService struct {
	Payments    PaymentStore
	TrustScores *TrustScoreService
	GraceDays   int
	Clock       Clock
	Logger      *zap.Logger
}

func NewOverdueService(payments PaymentStore, trustScores *TrustScoreService, graceDays int, clock Clock, logger *zap.Logger) *OverdueService {
	return &OverdueService{
		Payments:    payments,
		TrustScores: trustScores,
		GraceDays:   graceDays,
		Clock:       clock,
		Logger:      logger,
	}
}

// OverdueRun reports what a Run changed.
type OverdueRun struct {
	Marked       int `json:"marked"`
	Recalculated int `json:"recalculated"`
}

// Run marks every unpaid payment due GraceDays or more days ago as overdue
// and recalculates each affected tenant once. A payment due exactly
// GraceDays ago is overdue from midnight on.
func (s *OverdueService) Run(ctx context.Context) (*OverdueRun, error) {
	lastDue := timeutil.Today(s.Clock()).AddDate(0, 0, -s.GraceDays)

	candidates, err := s.Payments.ListOverdueCandidates(ctx, lastDue)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue payments: %w", err)
	}

	run := &OverdueRun{}
	var tenants []int
	seen := make(map[int]bool)
	for _, c := range candidates {
		ok, err := s.Payments.MarkOverdue(ctx, c.PaymentID, c.Version)
		if err != nil {
			return run, fmt.Errorf("failed to mark payment %d overdue: %w", c.PaymentID, err)
		}
		if !ok {
			// paid or changed meanwhile
			continue
		}
		run.Marked++
		if !seen[c.TenantID] {
			seen[c.TenantID] = true
			tenants = append(tenants, c.TenantID)
		}
	}

	for _, id := range tenants {
		if _, err := s.TrustScores.Calculate(ctx, id, models.TriggerOverdue); err != nil {
			s.Logger.Error("trust score recalculation failed", zap.Int("tenant_id", id), zap.Error(err))
			continue
		}
		run.Recalculated++
	}

	s.Logger.Info("overdue check completed", zap.Int("marked", run.Marked), zap.Int("recalculated", run.Recalculated))
	return run, nil
}
