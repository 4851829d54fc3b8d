package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rentflow-backend/internal/config"
	"rentflow-backend/internal/handlers"
	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/models"
)

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	paymentHandler *handlers.PaymentHandler,
	ratingHandler *handlers.RatingHandler,
	trustScoreHandler *handlers.TrustScoreHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.MetricsMiddleware)

	// Health check endpoints (no auth required)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	landlordOnly := middleware.RequireRole(models.RoleLandlord)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Payments
	api.Handle("/payments/import-csv", landlordOnly(http.HandlerFunc(paymentHandler.ImportCSV))).Methods("POST")
	api.Handle("/payments", landlordOnly(http.HandlerFunc(paymentHandler.CreatePayment))).Methods("POST")
	api.HandleFunc("/payments/{id:[0-9]+}", paymentHandler.GetPayment).Methods("GET")
	api.Handle("/payments/{id:[0-9]+}/mark-paid", landlordOnly(http.HandlerFunc(paymentHandler.MarkPaid))).Methods("PUT")

	// Leases
	api.HandleFunc("/leases/{lease:[0-9]+}/payments", paymentHandler.ListByLease).Methods("GET")
	api.HandleFunc("/leases/{lease:[0-9]+}/ratings", ratingHandler.ListByLease).Methods("GET")
	api.Handle("/leases/{lease:[0-9]+}/ratings", landlordOnly(http.HandlerFunc(ratingHandler.CreateRating))).Methods("POST")

	// Ratings
	api.HandleFunc("/ratings/{id:[0-9]+}", ratingHandler.DeleteRating).Methods("DELETE")

	// Tenants
	api.HandleFunc("/tenants/{tenant:[0-9]+}/trust-score", trustScoreHandler.GetTrustScore).Methods("GET")

	return middleware.NewCORS(cfg)(r)
}
