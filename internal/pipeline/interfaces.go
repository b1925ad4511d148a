package pipeline

import (
	"context"
	"time"
)

// Sink uploads one named table of rows to the reporting destination.
type Sink interface {
	Write(ctx context.Context, table string, rows [][]string) error
}

// Publisher pushes run-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// BlobStore persists raw upstream payloads for schema diagnosis.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Notifier pings an external hook after a successful upload.
type Notifier interface {
	Notify(ctx context.Context) error
}
