package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"quotereel/internal/httpkit"
	"quotereel/internal/pkg/errors"
	"quotereel/internal/render"
)

// PostRender runs the video generation pipeline. Persist-mode success
// returns a JSON reference; stream mode pipes the mp4 straight to the
// client.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req render.Request
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, string(errors.CodeInvalidInput), "invalid json body", nil)
		return
	}

	// ?persist=true overrides the body flag, matching the documented
	// query-or-body contract.
	if q := r.URL.Query().Get("persist"); q != "" {
		req.Persist = q == "true" || q == "1"
	}

	spec, err := render.Validate(req)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}

	outcome, err := h.pipeline.Run(ctx, spec)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	defer outcome.Close()

	if outcome.Persisted {
		w.Header().Set("X-Delivery-Mode", "persist")
		httpkit.WriteJSON(w, 200, map[string]any{
			"success":  true,
			"cached":   outcome.Cached,
			"url":      outcome.URL,
			"hash":     outcome.Hash,
			"size":     outcome.SizeBytes,
			"duration": outcome.Duration,
		})
		return
	}

	h.streamFile(w, r, outcome)
}

// streamFile pipes the produced video to the caller. The temp file is
// removed only after the copy returns, whether the client drained the
// body or hung up.
func (h *Handler) streamFile(w http.ResponseWriter, r *http.Request, outcome *render.Outcome) {
	f, err := os.Open(outcome.LocalPath)
	if err != nil {
		h.log.FromContext(r.Context()).Error("open rendered file failed", "error", err.Error())
		httpkit.WriteErr(w, 500, string(errors.CodeInternal), "rendered file unavailable", nil)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", strconv.FormatInt(outcome.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", outcome.Hash+".mp4"))
	w.Header().Set("X-Delivery-Mode", "stream")

	if _, err := io.Copy(w, f); err != nil {
		// Client went away mid-stream; cleanup still happens via the
		// deferred outcome.Close in the caller.
		h.log.FromContext(r.Context()).Warn("video stream aborted", "error", err.Error())
	}
}
