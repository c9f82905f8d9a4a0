package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotereel/internal/images"
	"quotereel/internal/pkg/errors"
	"quotereel/internal/pkg/logger"
	"quotereel/internal/ports"
	"quotereel/internal/videos"
)

// tempPrefix namespaces job-scoped temp directories; the startup sweep
// and the per-job cleanup both key off it.
const tempPrefix = "qr-"

// AssetFetcher resolves and downloads background images. Metadata
// resolution happens before a concurrency slot is held so a missing
// asset never occupies one.
type AssetFetcher interface {
	GetPhoto(ctx context.Context, id string) (*images.Photo, error)
	DownloadPhoto(ctx context.Context, photo *images.Photo, destPath string) error
}

// VideoEncoder runs the external encoder for a compiled argument list.
type VideoEncoder interface {
	Render(ctx context.Context, args []string) error
}

// ArtifactRecorder is the cache/metadata surface the pipeline writes
// through. Implementations absorb their own failures; lookups degrade
// to misses and records are best-effort.
type ArtifactRecorder interface {
	Lookup(ctx context.Context, hash string) *videos.Artifact
	Record(ctx context.Context, a *videos.Artifact)
}

// Deps wires a Pipeline. Storage and Artifacts may be nil: a nil
// Storage degrades persist requests to stream delivery, a nil Artifacts
// disables caching and metadata entirely.
type Deps struct {
	Gate      *Gate
	Fetcher   AssetFetcher
	Encoder   VideoEncoder
	Artifacts ArtifactRecorder
	Storage   ports.StorageProvider
	Telemetry *Telemetry
	Log       *logger.Logger
	TmpDir    string
	FontDir   string
}

// Pipeline executes render jobs end to end.
type Pipeline struct {
	gate      *Gate
	fetcher   AssetFetcher
	encoder   VideoEncoder
	artifacts ArtifactRecorder
	storage   ports.StorageProvider
	telemetry *Telemetry
	log       *logger.Logger
	tmpDir    string
	fontDir   string
}

func NewPipeline(d Deps) *Pipeline {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	tmpDir := d.TmpDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	telemetry := d.Telemetry
	if telemetry == nil {
		telemetry = NewTelemetry(256)
	}
	return &Pipeline{
		gate:      d.Gate,
		fetcher:   d.Fetcher,
		encoder:   d.Encoder,
		artifacts: d.Artifacts,
		storage:   d.Storage,
		telemetry: telemetry,
		log:       log.WithComponent("pipeline"),
		tmpDir:    tmpDir,
		fontDir:   d.FontDir,
	}
}

// Outcome is the result of a completed job. In stream mode LocalPath
// points at the produced file and the caller owns cleanup via Close;
// in persist mode temp files are already gone and URL references the
// durable object.
type Outcome struct {
	Hash      string
	Cached    bool
	Persisted bool
	URL       string
	SizeBytes int64
	Duration  float64
	LocalPath string

	closeOnce sync.Once
	cleanup   func()
}

// Close removes any temp files still owned by the outcome. Safe to call
// more than once; stream handlers call it after the response drains.
func (o *Outcome) Close() {
	o.closeOnce.Do(func() {
		if o.cleanup != nil {
			o.cleanup()
		}
	})
}

// Run executes one job: cache lookup, admission, fetch, compile,
// encode, deliver, record. The concurrency slot and the job-scoped temp
// directory are released on every exit path.
func (p *Pipeline) Run(ctx context.Context, spec Spec) (*Outcome, error) {
	jobID := uuid.NewString()
	ctx = logger.ContextWithJobID(ctx, jobID)

	hash := Hash(spec)
	log := p.log.FromContext(ctx).WithHash(hash)
	started := time.Now()

	p.telemetry.Record("job_started", map[string]any{"hash": hash, "persist": spec.Persist})

	persist := spec.Persist && p.storage != nil
	if spec.Persist && p.storage == nil {
		log.Warn("durable storage not configured, degrading to stream delivery")
	}

	// Cache is consulted only for durable requests; streamed bytes are
	// not reused by identity.
	if persist && p.artifacts != nil {
		if a := p.artifacts.Lookup(ctx, hash); a != nil && a.Persisted {
			p.telemetry.Record("cache_hit", map[string]any{"hash": hash})
			p.telemetry.RecordDuration("job_complete", time.Since(started), map[string]any{"hash": hash, "cached": true})
			log.Info("cache hit", "url", a.URL)
			return &Outcome{
				Hash:      hash,
				Cached:    true,
				Persisted: true,
				URL:       a.URL,
				SizeBytes: a.SizeBytes,
				Duration:  a.Duration,
			}, nil
		}
	}

	// Resolve the asset before taking a slot: a 404 must not queue.
	photo, err := p.fetcher.GetPhoto(ctx, spec.AssetID)
	if err != nil {
		return nil, p.fail(log, hash, err)
	}

	if st := p.gate.Status(); st.Running >= st.Max {
		p.telemetry.Record("semaphore_wait", map[string]any{"hash": hash, "queued": st.Queued + 1})
	}
	waitStart := time.Now()
	if err := p.gate.Acquire(ctx); err != nil {
		return nil, p.fail(log, hash, errors.WrapWithCode(err, errors.CodeInternal, "render.admit", "canceled while queued"))
	}
	p.telemetry.RecordDuration("semaphore_acquired", time.Since(waitStart), map[string]any{"hash": hash})
	defer func() {
		p.gate.Release()
		p.telemetry.Record("semaphore_released", map[string]any{"hash": hash})
	}()

	jobDir, err := os.MkdirTemp(p.tmpDir, tempPrefix+hash+"-")
	if err != nil {
		return nil, p.fail(log, hash, errors.WrapWithCode(err, errors.CodeInternal, "render.tmp", "create job directory"))
	}
	handedOff := false
	defer func() {
		if !handedOff {
			os.RemoveAll(jobDir)
		}
	}()

	bgPath := filepath.Join(jobDir, "background.jpg")
	p.telemetry.Record("asset_fetch_start", map[string]any{"hash": hash, "asset_id": spec.AssetID})
	fetchStart := time.Now()
	if err := p.fetcher.DownloadPhoto(ctx, photo, bgPath); err != nil {
		return nil, p.fail(log, hash, err)
	}
	p.telemetry.RecordDuration("asset_fetch_complete", time.Since(fetchStart), map[string]any{"hash": hash})

	graph := Compile(spec, p.fontDir)
	outPath := filepath.Join(jobDir, "output.mp4")
	args := BuildArgs(spec, graph, bgPath, outPath)

	p.telemetry.Record("render_start", map[string]any{"hash": hash})
	encodeStart := time.Now()
	if err := p.encoder.Render(ctx, args); err != nil {
		return nil, p.fail(log, hash, err)
	}
	p.telemetry.RecordDuration("render_complete", time.Since(encodeStart), map[string]any{"hash": hash})

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, p.fail(log, hash, errors.New(errors.CodeRenderFailed, "encoder produced no output file"))
	}

	outcome := &Outcome{
		Hash:      hash,
		SizeBytes: info.Size(),
		Duration:  spec.Duration,
	}
	artifact := p.artifactFor(spec, hash, photo, info.Size())

	if persist {
		key := objectKey(hash, time.Now().UTC())
		url, uploadErr := p.upload(ctx, outPath, key, info.Size())
		if uploadErr != nil {
			return nil, p.fail(log, hash, uploadErr)
		}
		// Upload confirmed; temp files go now.
		os.RemoveAll(jobDir)
		handedOff = true

		artifact.ObjectKey = key
		artifact.URL = url
		artifact.Persisted = true
		outcome.Persisted = true
		outcome.URL = url
	} else {
		// Stream mode: the outcome owns the temp directory until the
		// response drains.
		outcome.LocalPath = outPath
		outcome.cleanup = func() { os.RemoveAll(jobDir) }
		handedOff = true
	}

	if p.artifacts != nil {
		p.artifacts.Record(ctx, artifact)
	}

	p.telemetry.RecordDuration("job_complete", time.Since(started), map[string]any{
		"hash": hash, "persisted": outcome.Persisted, "size": outcome.SizeBytes,
	})
	log.Info("job complete",
		"persisted", outcome.Persisted,
		"size_bytes", outcome.SizeBytes,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return outcome, nil
}

func (p *Pipeline) fail(log *logger.Logger, hash string, err error) error {
	p.telemetry.Record("job_error", map[string]any{
		"hash": hash, "code": string(errors.GetCode(err)),
	})
	log.Error("job failed", "code", string(errors.GetCode(err)), "error", err.Error())
	return err
}

func (p *Pipeline) upload(ctx context.Context, path, key string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeStorageFailure, "render.deliver", "open output for upload")
	}
	defer f.Close()

	out, err := p.storage.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: "video/mp4",
		Reader:      f,
		Size:        size,
	})
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeStorageFailure, "render.deliver", "durable upload failed")
	}
	return p.storage.PublicURL(out.ObjectKey), nil
}

func (p *Pipeline) artifactFor(spec Spec, hash string, photo *images.Photo, size int64) *videos.Artifact {
	styleJSON, _ := json.Marshal(spec.Style)
	a := &videos.Artifact{
		Hash:          hash,
		AssetID:       spec.AssetID,
		Text:          spec.Text,
		Template:      spec.Template,
		StyleSnapshot: string(styleJSON),
		SizeBytes:     size,
		Duration:      spec.Duration,
		CreatedAt:     time.Now().UTC(),
	}
	if photo != nil {
		a.PhotographerName = photo.User.Name
		a.PhotographerLink = photo.User.Links.HTML
	}
	return a
}

// objectKey derives the deterministic, date-partitioned storage key.
func objectKey(hash string, now time.Time) string {
	return fmt.Sprintf("videos/%s/%s.mp4", now.Format("2006/01"), hash)
}

// CleanupOrphans removes job-scoped temp directories left behind by a
// crashed process. Called once at startup, before any job runs.
func CleanupOrphans(tmpDir string, log *logger.Logger) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return
	}
	removed := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			if err := os.RemoveAll(filepath.Join(tmpDir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Info("removed orphaned render temp directories", "count", removed)
	}
}
