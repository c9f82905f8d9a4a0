package videos

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quotereel/internal/httpkit"
	"quotereel/internal/pkg/errors"
)

// Store is the PostgreSQL-backed artifact record store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the artifacts table if it does not exist. Single-host
// deployment; no migration tooling.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS video_artifacts (
			hash               TEXT PRIMARY KEY,
			asset_id           TEXT NOT NULL,
			text_snapshot      TEXT NOT NULL,
			template           TEXT NOT NULL,
			style_snapshot     TEXT NOT NULL DEFAULT '',
			size_bytes         BIGINT NOT NULL,
			duration_secs      DOUBLE PRECISION NOT NULL,
			object_key         TEXT NOT NULL DEFAULT '',
			url                TEXT NOT NULL DEFAULT '',
			persisted          BOOLEAN NOT NULL DEFAULT FALSE,
			photographer_name  TEXT NOT NULL DEFAULT '',
			photographer_link  TEXT NOT NULL DEFAULT '',
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// Get performs the cache point read. A missing row returns (nil, nil).
func (s *Store) Get(ctx context.Context, hash string) (*Artifact, error) {
	var a Artifact
	err := s.pool.QueryRow(ctx, `
		SELECT hash, asset_id, text_snapshot, template, style_snapshot,
		       size_bytes, duration_secs, object_key, url, persisted,
		       photographer_name, photographer_link, created_at
		FROM video_artifacts WHERE hash=$1`, hash,
	).Scan(
		&a.Hash, &a.AssetID, &a.Text, &a.Template, &a.StyleSnapshot,
		&a.SizeBytes, &a.Duration, &a.ObjectKey, &a.URL, &a.Persisted,
		&a.PhotographerName, &a.PhotographerLink, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	// Before Init has run (or after a dropped table) a point read is a
	// miss, not an error.
	if httpkit.IsUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Record inserts an artifact. Idempotent by hash: concurrent writers of
// the same hash race safely, first writer wins.
func (s *Store) Record(ctx context.Context, a *Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO video_artifacts (
			hash, asset_id, text_snapshot, template, style_snapshot,
			size_bytes, duration_secs, object_key, url, persisted,
			photographer_name, photographer_link, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (hash) DO NOTHING`,
		a.Hash, a.AssetID, capSnapshot(a.Text), a.Template, capSnapshot(a.StyleSnapshot),
		a.SizeBytes, a.Duration, a.ObjectKey, a.URL, a.Persisted,
		a.PhotographerName, a.PhotographerLink, a.CreatedAt,
	)
	if err != nil && httpkit.IsUniqueViolation(err) {
		return nil
	}
	return err
}

// List returns the most recent artifacts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Artifact, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT hash, asset_id, text_snapshot, template, style_snapshot,
		       size_bytes, duration_secs, object_key, url, persisted,
		       photographer_name, photographer_link, created_at
		FROM video_artifacts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if httpkit.IsUndefinedTable(err) {
		return []Artifact{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Artifact, 0, limit)
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(
			&a.Hash, &a.AssetID, &a.Text, &a.Template, &a.StyleSnapshot,
			&a.SizeBytes, &a.Duration, &a.ObjectKey, &a.URL, &a.Persisted,
			&a.PhotographerName, &a.PhotographerLink, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	// pgx can defer query execution errors to rows.Err().
	if err := rows.Err(); err != nil {
		if httpkit.IsUndefinedTable(err) {
			return []Artifact{}, nil
		}
		return nil, err
	}
	return out, nil
}

// GetRequired is Get with a typed NOT_FOUND for handler use.
func (s *Store) GetRequired(ctx context.Context, hash string) (*Artifact, error) {
	a, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.Newf(errors.CodeNotFound, "video not found: %s", hash).
			WithField("hash", hash)
	}
	return a, nil
}
