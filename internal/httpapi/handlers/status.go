package handlers

import (
	"net/http"
	"strconv"

	"quotereel/internal/httpkit"
)

// statusEventWindow caps how many telemetry events the status endpoint
// returns by default.
const statusEventWindow = 50

// GetRenderStatus reports the concurrency gate and the recent telemetry
// window.
func (h *Handler) GetRenderStatus(w http.ResponseWriter, r *http.Request) {
	n := statusEventWindow
	if v := r.URL.Query().Get("events"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			n = parsed
		}
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"gate":   h.gate.Status(),
		"events": h.telemetry.Recent(n),
	})
}
