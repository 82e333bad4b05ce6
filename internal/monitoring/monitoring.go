// Package monitoring hosts the background workers that watch the upload
// volume: a storage stat updater and an orphaned-file janitor.
package monitoring

import "context"

// VideoStore is the slice of the video service the background workers need.
type VideoStore interface {
	StoredPaths(ctx context.Context) (map[string]bool, error)
	StorageTotals(ctx context.Context) (count int64, bytes int64, err error)
}

// EventRecorder appends entries to the audit log.
type EventRecorder interface {
	CreateEvent(ctx context.Context, eventType, level, message string, videoID *string) error
}
