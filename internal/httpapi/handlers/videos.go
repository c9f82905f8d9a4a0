package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"quotereel/internal/httpkit"
	"quotereel/internal/pkg/errors"
	"quotereel/internal/videos"
)

// VideoReader is the artifact read surface exposed over HTTP.
type VideoReader interface {
	List(ctx context.Context, limit int) ([]videos.Artifact, error)
	GetRequired(ctx context.Context, hash string) (*videos.Artifact, error)
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		httpkit.WriteErr(w, 404, string(errors.CodeNotFound), "metadata store not configured", nil)
		return
	}

	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	items, err := h.videos.List(r.Context(), limit)
	if err != nil {
		h.log.FromContext(r.Context()).Error("video list failed", "error", err.Error())
		httpkit.WriteErr(w, 500, string(errors.CodeInternal), "video list failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"videos": items})
}

func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		httpkit.WriteErr(w, 404, string(errors.CodeNotFound), "metadata store not configured", nil)
		return
	}

	hash := chi.URLParam(r, "hash")
	artifact, err := h.videos.GetRequired(r.Context(), hash)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			httpkit.WriteError(w, err)
			return
		}
		h.log.FromContext(r.Context()).Error("video fetch failed", "hash", hash, "error", err.Error())
		httpkit.WriteErr(w, 500, string(errors.CodeInternal), "video fetch failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"video": artifact})
}
