package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"quotereel/internal/httpapi/handlers"
	"quotereel/internal/httpkit"
	"quotereel/internal/pkg/logger"
	"quotereel/internal/pkg/middleware"
)

type Deps struct {
	Handlers handlers.Deps
	Log      *logger.Logger
	// MediaDir, when set, serves the localfs storage root at /media so
	// persist-mode PublicURLs resolve without a separate file server.
	MediaDir string
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recover(log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:5173",
	})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Delivery-Mode", middleware.RequestIDHeader},
	}))

	h := handlers.New(d.Handlers)

	r.Get("/healthz", h.Health)

	r.Post("/render", h.PostRender)
	r.Get("/render/status", h.GetRenderStatus)

	r.Get("/videos", h.ListVideos)
	r.Get("/videos/{hash}", h.GetVideo)

	if d.MediaDir != "" {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir)))
		r.Get("/media/*", fileServer.ServeHTTP)
	}

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
