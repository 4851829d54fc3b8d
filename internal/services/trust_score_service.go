package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rentflow-backend/internal/metrics"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/repositories"
	"rentflow-backend/internal/scoring"
)

// TrustScoreService recomputes and persists tenant trust scores. It is
// called explicitly by whatever changed the inputs; there is no event bus.
type TrustScoreService struct {
	Tenants  TenantStore
	Payments PaymentStore
	Ratings  RatingStore
	Cache    ReportCache
	Logger   *zap.Logger
}

func NewTrustScoreService(tenants TenantStore, payments PaymentStore, ratings RatingStore, cache ReportCache, logger *zap.Logger) *TrustScoreService {
	return &TrustScoreService{
		Tenants:  tenants,
		Payments: payments,
		Ratings:  ratings,
		Cache:    cache,
		Logger:   logger,
	}
}

// Calculate recomputes the tenant's score from committed payments and
// ratings, stores it and returns the stored value.
func (s *TrustScoreService) Calculate(ctx context.Context, tenantID int, trigger string) (float64, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	score, _, err := s.recalculate(ctx, tenant, trigger)
	return score, err
}

// Report returns the score with its breakdown. A cached report is served
// when present; otherwise the score is recalculated first.
func (s *TrustScoreService) Report(ctx context.Context, tenantID int) (*models.TrustScoreReport, error) {
	if s.Cache != nil {
		if data, ok := s.Cache.Get(ctx, tenantID); ok {
			var report models.TrustScoreReport
			if err := json.Unmarshal(data, &report); err == nil {
				return &report, nil
			}
		}
	}

	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	score, in, err := s.recalculate(ctx, tenant, models.TriggerOnDemand)
	if err != nil {
		return nil, err
	}

	report := &models.TrustScoreReport{
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		TrustScore: score,
		Breakdown:  scoring.Breakdown(in.payments, in.ratings),
	}

	if s.Cache != nil {
		if data, err := json.Marshal(report); err == nil {
			s.Cache.Set(ctx, tenantID, data)
		}
	}
	return report, nil
}

// RecalculateAll refreshes every tenant and returns how many were updated.
// A failing tenant is logged and skipped.
func (s *TrustScoreService) RecalculateAll(ctx context.Context, trigger string) (int, error) {
	ids, err := s.Tenants.ListTenantIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	updated := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if _, err := s.Calculate(ctx, id, trigger); err != nil {
			s.Logger.Error("trust score recalculation failed", zap.Int("tenant_id", id), zap.Error(err))
			continue
		}
		updated++
	}
	return updated, nil
}

// Invalidate drops the cached report without recalculating.
func (s *TrustScoreService) Invalidate(ctx context.Context, tenantID int) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, tenantID)
	}
}

type scoreInputs struct {
	payments []*models.Payment
	ratings  []*models.Rating
}

func (s *TrustScoreService) tenant(ctx context.Context, tenantID int) (*models.User, error) {
	tenant, err := s.Tenants.GetTenant(ctx, tenantID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}
	if !tenant.IsTenant() {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

func (s *TrustScoreService) recalculate(ctx context.Context, tenant *models.User, trigger string) (float64, scoreInputs, error) {
	var in scoreInputs
	var err error

	in.payments, err = s.Payments.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return 0, in, fmt.Errorf("failed to load payments of tenant %d: %w", tenant.ID, err)
	}
	in.ratings, err = s.Ratings.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return 0, in, fmt.Errorf("failed to load ratings of tenant %d: %w", tenant.ID, err)
	}

	score := scoring.TrustScore(in.payments, in.ratings)
	if err := s.Tenants.UpdateTrustScore(ctx, tenant.ID, score); err != nil {
		return 0, in, fmt.Errorf("failed to store trust score of tenant %d: %w", tenant.ID, err)
	}

	s.Invalidate(ctx, tenant.ID)
	metrics.TrustScoreRecalculations.WithLabelValues(trigger).Inc()
	s.Logger.Debug("trust score recalculated",
		zap.Int("tenant_id", tenant.ID),
		zap.String("trigger", trigger),
		zap.Float64("previous", tenant.TrustScore),
		zap.Float64("score", score),
	)
	return score, in, nil
}
