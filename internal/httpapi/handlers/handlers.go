package handlers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"quotereel/internal/pkg/logger"
	"quotereel/internal/render"
)

// Renderer is the pipeline surface the render handler drives.
type Renderer interface {
	Run(ctx context.Context, spec render.Spec) (*render.Outcome, error)
}

type Deps struct {
	Pipeline  Renderer
	Gate      *render.Gate
	Telemetry *render.Telemetry
	Videos    VideoReader
	Pool      *pgxpool.Pool
	RDB       *redis.Client
	Log       *logger.Logger
}

type Handler struct {
	pipeline  Renderer
	gate      *render.Gate
	telemetry *render.Telemetry
	videos    VideoReader
	pool      *pgxpool.Pool
	rdb       *redis.Client
	log       *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		pipeline:  d.Pipeline,
		gate:      d.Gate,
		telemetry: d.Telemetry,
		videos:    d.Videos,
		pool:      d.Pool,
		rdb:       d.RDB,
		log:       log.WithComponent("api"),
	}
}
