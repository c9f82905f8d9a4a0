// Package videos persists rendered-video metadata and serves the
// content-addressed artifact cache.
package videos

import "time"

// maxSnapshotLen caps the stored input snapshot so oversized style
// payloads cannot bloat rows.
const maxSnapshotLen = 2048

// Artifact is the persisted record of a successful render. Rows are
// never mutated; re-recording the same hash is a no-op (first writer
// wins).
type Artifact struct {
	Hash             string    `json:"hash"`
	AssetID          string    `json:"assetId"`
	Text             string    `json:"text"`
	Template         string    `json:"template"`
	StyleSnapshot    string    `json:"styleSnapshot,omitempty"`
	SizeBytes        int64     `json:"size"`
	Duration         float64   `json:"duration"`
	ObjectKey        string    `json:"objectKey,omitempty"`
	URL              string    `json:"url,omitempty"`
	Persisted        bool      `json:"persisted"`
	PhotographerName string    `json:"photographerName,omitempty"`
	PhotographerLink string    `json:"photographerLink,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// capSnapshot truncates an input snapshot to the stored bound.
func capSnapshot(s string) string {
	if len(s) > maxSnapshotLen {
		return s[:maxSnapshotLen]
	}
	return s
}
