package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db    Pinger
	cache func() bool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Cache    string         `json:"cache"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// NewHealthChecker checks db and reports the cache state. The cache is
// optional: a down cache makes the status degraded, a nil cacheHealthy
// reports it as disabled.
func NewHealthChecker(db Pinger, cacheHealthy func() bool) *HealthChecker {
	return &HealthChecker{db: db, cache: cacheHealthy}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	dbHealth := h.checkDatabase(ctx)

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	cache := "disabled"
	if h.cache != nil {
		cache = "healthy"
		if !h.cache() {
			cache = "unavailable"
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Cache:    cache,
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) DatabaseHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
