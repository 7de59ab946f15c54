package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/stockdash/internal/scheduler"
	"github.com/wonny/stockdash/internal/state"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/redis"
)

// JobReporter reports the maintenance jobs' recent runs
type JobReporter interface {
	Status() []scheduler.JobStatus
}

// HealthHandler reports service and dependency status
type HealthHandler struct {
	store *state.Store
	db    *database.DB // nil when the archive is disabled
	redis *redis.Client
	jobs  JobReporter // nil when no jobs run
}

// NewHealthHandler creates a new health handler. db and jobs may be nil.
func NewHealthHandler(store *state.Store, db *database.DB, rc *redis.Client, jobs JobReporter) *HealthHandler {
	return &HealthHandler{store: store, db: db, redis: rc, jobs: jobs}
}

// Check returns 200 when every enabled dependency answers
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	_, err := h.store.Current()
	body := map[string]interface{}{
		"status":         "ok",
		"service":        "stockdash",
		"dataset_loaded": err == nil,
	}
	status := http.StatusOK

	if h.db != nil {
		dbStatus := h.db.HealthCheck(ctx)
		body["database"] = dbStatus
		if !dbStatus.Healthy {
			status = http.StatusServiceUnavailable
		}
	}

	if h.redis.Enabled() {
		redisStatus := "ok"
		if err := h.redis.Redis().Ping(ctx).Err(); err != nil {
			redisStatus = err.Error()
			status = http.StatusServiceUnavailable
		}
		body["redis"] = redisStatus
	}

	// job failures are reported, not treated as unhealthy
	if h.jobs != nil {
		body["jobs"] = h.jobs.Status()
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	respondJSON(w, status, body)
}
