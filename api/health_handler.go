package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          pinger
	startupTime time.Time
}

func newHealthHandler(db pinger, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		db:          db,
		startupTime: startupTime,
	}
}

type healthStatus struct {
	Database      string `json:"database"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// check reports whether the database answers
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} SuccessResponse{data=healthStatus}
// @Failure 503 {object} SuccessResponse{data=healthStatus}
// @Router /health [get]
func (h healthHandler) check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Database: "up"}
		if !h.startupTime.IsZero() {
			status.UptimeSeconds = int64(time.Since(h.startupTime).Seconds())
		}

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("database ping failed")
			status.Database = "down"
			h.responder.WriteJSON(w, http.StatusServiceUnavailable, SuccessResponse{
				Status:  statusError,
				Message: "Database unavailable",
				Data:    status,
			})
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "OK", status)
	}
}
