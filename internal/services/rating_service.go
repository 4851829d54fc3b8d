package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/repositories"
)

// RatingService manages landlord ratings of finished leases.
type RatingService struct {
	Ratings     RatingStore
	Leases      LeaseStore
	TrustScores *TrustScoreService
	// RecalculateOnChange recalculates the tenant's score when a rating is
	// added or removed. When false only the cached report is dropped.
	RecalculateOnChange bool
	Logger              *zap.Logger
}

func NewRatingService(ratings RatingStore, leases LeaseStore, trustScores *TrustScoreService, recalculate bool, logger *zap.Logger) *RatingService {
	return &RatingService{
		Ratings:             ratings,
		Leases:              leases,
		TrustScores:         trustScores,
		RecalculateOnChange: recalculate,
		Logger:              logger,
	}
}

func (s *RatingService) ListByLease(ctx context.Context, leaseID int) ([]*models.Rating, error) {
	if _, err := s.lease(ctx, leaseID); err != nil {
		return nil, err
	}
	return s.Ratings.ListByLease(ctx, leaseID)
}

// Create stores a rating by author. Only ended or terminated leases can be
// rated, once per author and category.
func (s *RatingService) Create(ctx context.Context, leaseID, authorID int, req *models.CreateRatingRequest) (*models.Rating, error) {
	category := strings.TrimSpace(req.Category)
	if !models.IsRatingCategory(category) {
		return nil, fmt.Errorf("%w: category must be one of %s", ErrInvalidRating, strings.Join(models.RatingCategories, ", "))
	}
	if req.Score < models.MinRatingScore || req.Score > models.MaxRatingScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d", ErrInvalidRating, models.MinRatingScore, models.MaxRatingScore)
	}

	lease, err := s.lease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if lease.IsActive() {
		return nil, ErrLeaseActive
	}

	rating := &models.Rating{
		LeaseID:  lease.ID,
		RatedBy:  authorID,
		Category: category,
		Score:    req.Score,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := s.Ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateRating
		}
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	s.changed(ctx, lease.TenantID)
	return rating, nil
}

// Delete removes a rating. Only its author may do so.
func (s *RatingService) Delete(ctx context.Context, id, userID int) error {
	rating, err := s.Ratings.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrRatingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load rating %d: %w", id, err)
	}
	if rating.RatedBy != userID {
		return ErrNotRatingAuthor
	}

	if err := s.Ratings.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRatingNotFound
		}
		return fmt.Errorf("failed to delete rating %d: %w", id, err)
	}

	lease, err := s.Leases.Get(ctx, rating.LeaseID)
	if err != nil {
		s.Logger.Error("failed to load lease after rating delete", zap.Int("rating_id", id), zap.Error(err))
		return nil
	}
	s.changed(ctx, lease.TenantID)
	return nil
}

func (s *RatingService) changed(ctx context.Context, tenantID int) {
	if !s.RecalculateOnChange {
		s.TrustScores.Invalidate(ctx, tenantID)
		return
	}
	if _, err := s.TrustScores.Calculate(ctx, tenantID, models.TriggerRating); err != nil {
		s.Logger.Error("trust score recalculation failed", zap.Int("tenant_id", tenantID), zap.Error(err))
	}
}

func (s *RatingService) lease(ctx context.Context, id int) (*models.Lease, error) {
	lease, err := s.Leases.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrLeaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lease %d: %w", id, err)
	}
	return lease, nil
}
