package render

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotereel/internal/images"
	"quotereel/internal/pkg/errors"
	"quotereel/internal/ports"
	"quotereel/internal/videos"
)

type fakeFetcher struct {
	getErr      error
	downloadErr error
	getCalls    int
	dlCalls     int
}

func (f *fakeFetcher) GetPhoto(ctx context.Context, id string) (*images.Photo, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p := &images.Photo{ID: id}
	p.User.Name = "Ansel Adams"
	p.User.Links.HTML = "https://example.com/@ansel"
	return p, nil
}

func (f *fakeFetcher) DownloadPhoto(ctx context.Context, photo *images.Photo, destPath string) error {
	f.dlCalls++
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(destPath, []byte("jpeg-bytes"), 0o644)
}

// scriptedEncoder simulates the encoder by writing the output file named
// in the argument list.
type scriptedEncoder struct {
	err   error
	calls int
}

func (e *scriptedEncoder) Render(ctx context.Context, args []string) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	outPath := args[len(args)-1]
	return os.WriteFile(outPath, []byte("mp4-bytes"), 0o644)
}

type fakeArtifacts struct {
	hit      *videos.Artifact
	recorded []*videos.Artifact
	lookups  int
}

func (f *fakeArtifacts) Lookup(ctx context.Context, hash string) *videos.Artifact {
	f.lookups++
	return f.hit
}

func (f *fakeArtifacts) Record(ctx context.Context, a *videos.Artifact) {
	f.recorded = append(f.recorded, a)
}

type fakeStorage struct {
	putErr error
	puts   []ports.PutObjectInput
}

func (f *fakeStorage) Provider() string { return "fake" }

func (f *fakeStorage) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if f.putErr != nil {
		return ports.PutObjectOutput{}, f.putErr
	}
	// Drain the reader the way a real provider would.
	n, err := io.Copy(io.Discard, in.Reader)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	f.puts = append(f.puts, in)
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}, nil
}

func (f *fakeStorage) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, string, int64, error) {
	return nil, "", 0, errors.New(errors.CodeNotFound, "not implemented")
}

func (f *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error { return nil }

func (f *fakeStorage) PublicURL(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

func newTestPipeline(t *testing.T, d Deps) (*Pipeline, string) {
	t.Helper()
	tmp := t.TempDir()
	if d.Gate == nil {
		d.Gate = NewGate(2)
	}
	d.Log = quietLogger()
	d.TmpDir = tmp
	return NewPipeline(d), tmp
}

func residualTempDirs(t *testing.T, tmp string) []string {
	t.Helper()
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	var dirs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "qr-") {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

func TestPipelineStreamMode(t *testing.T) {
	fetcher := &fakeFetcher{}
	encoder := &scriptedEncoder{}
	artifacts := &fakeArtifacts{}
	p, tmp := newTestPipeline(t, Deps{Fetcher: fetcher, Encoder: encoder, Artifacts: artifacts})

	spec := baseSpec()
	outcome, err := p.Run(context.Background(), spec)
	require.NoError(t, err)
	defer outcome.Close()

	assert.Equal(t, Hash(spec), outcome.Hash)
	assert.False(t, outcome.Cached)
	assert.False(t, outcome.Persisted)
	assert.Empty(t, outcome.URL)
	assert.Equal(t, int64(len("mp4-bytes")), outcome.SizeBytes)
	assert.Equal(t, spec.Duration, outcome.Duration)

	// The outcome owns the temp directory until Close.
	require.NotEmpty(t, outcome.LocalPath)
	_, err = os.Stat(outcome.LocalPath)
	require.NoError(t, err)

	outcome.Close()
	_, err = os.Stat(outcome.LocalPath)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, residualTempDirs(t, tmp))

	// Metadata is recorded even for streamed jobs.
	require.Len(t, artifacts.recorded, 1)
	rec := artifacts.recorded[0]
	assert.Equal(t, outcome.Hash, rec.Hash)
	assert.False(t, rec.Persisted)
	assert.Equal(t, "Ansel Adams", rec.PhotographerName)
}

func TestPipelinePersistMode(t *testing.T) {
	fetcher := &fakeFetcher{}
	encoder := &scriptedEncoder{}
	artifacts := &fakeArtifacts{}
	storage := &fakeStorage{}
	p, tmp := newTestPipeline(t, Deps{
		Fetcher: fetcher, Encoder: encoder, Artifacts: artifacts, Storage: storage,
	})

	spec := baseSpec()
	spec.Persist = true
	outcome, err := p.Run(context.Background(), spec)
	require.NoError(t, err)
	defer outcome.Close()

	assert.True(t, outcome.Persisted)
	assert.Empty(t, outcome.LocalPath)
	require.Len(t, storage.puts, 1)
	put := storage.puts[0]
	assert.Equal(t, "video/mp4", put.ContentType)
	assert.True(t, strings.HasPrefix(put.ObjectKey, "videos/"))
	assert.True(t, strings.HasSuffix(put.ObjectKey, outcome.Hash+".mp4"))
	assert.Equal(t, "https://cdn.example.com/"+put.ObjectKey, outcome.URL)

	// Temp files are gone once the upload is confirmed.
	assert.Empty(t, residualTempDirs(t, tmp))

	require.Len(t, artifacts.recorded, 1)
	assert.True(t, artifacts.recorded[0].Persisted)
	assert.Equal(t, put.ObjectKey, artifacts.recorded[0].ObjectKey)
}

func TestPipelineCacheHitSkipsWork(t *testing.T) {
	fetcher := &fakeFetcher{}
	encoder := &scriptedEncoder{}
	artifacts := &fakeArtifacts{hit: &videos.Artifact{
		Hash:      "cached-hash",
		URL:       "https://cdn.example.com/videos/2026/01/cached.mp4",
		SizeBytes: 12345,
		Duration:  8,
		Persisted: true,
	}}
	p, _ := newTestPipeline(t, Deps{
		Fetcher: fetcher, Encoder: encoder, Artifacts: artifacts, Storage: &fakeStorage{},
	})

	spec := baseSpec()
	spec.Persist = true
	outcome, err := p.Run(context.Background(), spec)
	require.NoError(t, err)
	defer outcome.Close()

	assert.True(t, outcome.Cached)
	assert.True(t, outcome.Persisted)
	assert.Equal(t, int64(12345), outcome.SizeBytes)
	assert.Equal(t, 0, fetcher.getCalls)
	assert.Equal(t, 0, encoder.calls)
	assert.Empty(t, artifacts.recorded)
}

func TestPipelineStreamModeSkipsCacheLookup(t *testing.T) {
	artifacts := &fakeArtifacts{hit: &videos.Artifact{Persisted: true}}
	p, _ := newTestPipeline(t, Deps{
		Fetcher: &fakeFetcher{}, Encoder: &scriptedEncoder{}, Artifacts: artifacts,
	})

	outcome, err := p.Run(context.Background(), baseSpec())
	require.NoError(t, err)
	defer outcome.Close()

	assert.Equal(t, 0, artifacts.lookups)
	assert.False(t, outcome.Cached)
}

func TestPipelineAssetNotFoundBeforeAdmission(t *testing.T) {
	gate := NewGate(1)
	fetcher := &fakeFetcher{getErr: errors.AssetNotFound("missing")}
	encoder := &scriptedEncoder{}
	p, tmp := newTestPipeline(t, Deps{Gate: gate, Fetcher: fetcher, Encoder: encoder})

	_, err := p.Run(context.Background(), baseSpec())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAssetNotFound))
	assert.Equal(t, 0, encoder.calls)
	assert.Equal(t, 0, fetcher.dlCalls)

	// The failed lookup never took a slot and left no temp files.
	assert.Equal(t, 0, gate.Status().Running)
	assert.Empty(t, residualTempDirs(t, tmp))
}

func TestPipelineEncodeFailureCleansUp(t *testing.T) {
	gate := NewGate(1)
	encoder := &scriptedEncoder{err: errors.RenderFailed(1, "boom")}
	p, tmp := newTestPipeline(t, Deps{Gate: gate, Fetcher: &fakeFetcher{}, Encoder: encoder})

	_, err := p.Run(context.Background(), baseSpec())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRenderFailed))

	assert.Equal(t, 0, gate.Status().Running)
	assert.Empty(t, residualTempDirs(t, tmp))
}

func TestPipelineUploadFailureCleansUp(t *testing.T) {
	storage := &fakeStorage{putErr: errors.New(errors.CodeStorageFailure, "disk full")}
	artifacts := &fakeArtifacts{}
	p, tmp := newTestPipeline(t, Deps{
		Fetcher: &fakeFetcher{}, Encoder: &scriptedEncoder{}, Artifacts: artifacts, Storage: storage,
	})

	spec := baseSpec()
	spec.Persist = true
	_, err := p.Run(context.Background(), spec)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStorageFailure))

	assert.Empty(t, residualTempDirs(t, tmp))
	assert.Empty(t, artifacts.recorded)
}

func TestPipelinePersistWithoutStorageDegrades(t *testing.T) {
	artifacts := &fakeArtifacts{}
	p, _ := newTestPipeline(t, Deps{
		Fetcher: &fakeFetcher{}, Encoder: &scriptedEncoder{}, Artifacts: artifacts,
	})

	spec := baseSpec()
	spec.Persist = true
	outcome, err := p.Run(context.Background(), spec)
	require.NoError(t, err)
	defer outcome.Close()

	assert.False(t, outcome.Persisted)
	assert.NotEmpty(t, outcome.LocalPath)
	assert.Equal(t, 0, artifacts.lookups)
}

func TestPipelineReleasesSlotOnSuccess(t *testing.T) {
	gate := NewGate(1)
	p, _ := newTestPipeline(t, Deps{Gate: gate, Fetcher: &fakeFetcher{}, Encoder: &scriptedEncoder{}})

	for i := 0; i < 3; i++ {
		outcome, err := p.Run(context.Background(), baseSpec())
		require.NoError(t, err)
		outcome.Close()
	}
	assert.Equal(t, 0, gate.Status().Running)
}

func TestOutcomeCloseIdempotent(t *testing.T) {
	p, _ := newTestPipeline(t, Deps{Fetcher: &fakeFetcher{}, Encoder: &scriptedEncoder{}})

	outcome, err := p.Run(context.Background(), baseSpec())
	require.NoError(t, err)
	outcome.Close()
	outcome.Close()
}

func TestCleanupOrphans(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "qr-stale-1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "qr-stale-2"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "unrelated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "keep.txt"), []byte("x"), 0o644))

	CleanupOrphans(tmp, quietLogger())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"unrelated", "keep.txt"}, names)
}

func TestObjectKeyDatePartitioned(t *testing.T) {
	now, err := time.Parse(time.RFC3339, "2026-09-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "videos/2026/09/deadbeef.mp4", objectKey("deadbeef", now))
}
