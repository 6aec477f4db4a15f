package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

const healthTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB HealthChecker
}

// Handle implements GET /healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()

		if err := h.DB.Ping(pingCtx); err != nil {
			logging.FromContext(ctx).Error("database ping failed", "error", err)
			response.JSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, "Database unreachable")
			return
		}
	}

	response.JSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"}, "Everything is OK")
}
