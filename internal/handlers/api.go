package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/services"
	"rentflow-backend/pkg/utils"
)

// Service surfaces used by the handlers. The services package types
// satisfy them.

type PaymentAPI interface {
	Create(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error)
	Get(ctx context.Context, id int) (*models.Payment, error)
	ListByLease(ctx context.Context, leaseID int) ([]*models.Payment, error)
	MarkPaid(ctx context.Context, id int) (*models.Payment, error)
}

type Importer interface {
	Import(ctx context.Context, raw string, landlordID int) (*models.ReconciliationResult, error)
}

type RatingAPI interface {
	ListByLease(ctx context.Context, leaseID int) ([]*models.Rating, error)
	Create(ctx context.Context, leaseID, authorID int, req *models.CreateRatingRequest) (*models.Rating, error)
	Delete(ctx context.Context, id, userID int) error
}

type TrustScoreReporter interface {
	Report(ctx context.Context, tenantID int) (*models.TrustScoreReport, error)
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unknown is logged and reported as 500.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrTenantNotFound),
		errors.Is(err, services.ErrLeaseNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrRatingNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPaymentAlreadyPaid),
		errors.Is(err, services.ErrPaymentConflict):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrDuplicateRating),
		errors.Is(err, services.ErrLeaseActive),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidPayment):
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNotRatingAuthor):
		utils.Error(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
