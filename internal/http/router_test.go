package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentflow-backend/internal/auth"
	"rentflow-backend/internal/config"
	"rentflow-backend/internal/handlers"
	"rentflow-backend/internal/health"
	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/models"
)

type stubUsers map[int]*models.User

func (s stubUsers) Get(_ context.Context, id int) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubReporter struct{}

func (stubReporter) Report(_ context.Context, tenantID int) (*models.TrustScoreReport, error) {
	return &models.TrustScoreReport{TenantID: tenantID, TrustScore: 50}, nil
}

type stubPayments struct{ handlers.PaymentAPI }

func (stubPayments) Create(_ context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	return &models.Payment{ID: 1, LeaseID: req.LeaseID}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-secret"
	cfg.Server.CorsAllowedOrigins = []string{"*"}

	jm := auth.NewJWTManager(cfg)
	users := stubUsers{
		1: {ID: 1, Name: "Landlord", Role: models.RoleLandlord},
		2: {ID: 2, Name: "Tenant", Role: models.RoleTenant},
	}
	log := zap.NewNop()

	r := NewRouter(cfg, log,
		handlers.NewPaymentHandler(stubPayments{}, nil, 0, log),
		handlers.NewRatingHandler(nil, log),
		handlers.NewTrustScoreHandler(stubReporter{}, log),
		handlers.NewHealthHandler(health.NewHealthChecker(okPinger{}, nil)),
		middleware.NewAuthMiddleware(jm, users),
	)
	return r, jm
}

func bearer(t *testing.T, jm *auth.JWTManager, u *models.User) string {
	t.Helper()
	token, err := jm.GenerateToken(u, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenants/7/trust-score", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LandlordOnlyRoutes(t *testing.T) {
	r, jm := newTestRouter(t)
	body := `{"lease_id":3,"type":"rent","amount":"100","due_date":"2026-04-01"}`

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, jm, &models.User{ID: 2, Role: models.RoleTenant}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, jm, &models.User{ID: 1, Role: models.RoleLandlord}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_TrustScoreForAnyAuthenticatedUser(t *testing.T) {
	r, jm := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tenants/7/trust-score", nil)
	req.Header.Set("Authorization", bearer(t, jm, &models.User{ID: 2, Role: models.RoleTenant}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tenant_id":7`)
}
