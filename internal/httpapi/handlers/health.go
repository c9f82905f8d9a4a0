package handlers

import (
	"net/http"

	"quotereel/internal/httpkit"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	healthy := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := 200
	if !healthy {
		status = 503
	}
	httpkit.WriteJSON(w, status, map[string]any{
		"healthy": healthy,
		"checks":  checks,
	})
}
