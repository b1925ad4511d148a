package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/pipeline"
)

// runDumper stores raw upstream payloads under the current run's prefix.
// Dump failures are logged and swallowed: diagnostics never break a run.
type runDumper struct {
	store  pipeline.BlobStore
	logger *zap.Logger

	mu     sync.Mutex
	prefix string
}

func newRunDumper(store pipeline.BlobStore, logger *zap.Logger) *runDumper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runDumper{store: store, logger: logger}
}

// SetRun scopes subsequent dumps to the given run id.
func (d *runDumper) SetRun(runID string) {
	d.mu.Lock()
	d.prefix = runID
	d.mu.Unlock()
}

// Dump implements mycreator.PayloadDumper.
func (d *runDumper) Dump(ctx context.Context, name string, data []byte) {
	d.mu.Lock()
	prefix := d.prefix
	d.mu.Unlock()

	path := name
	if prefix != "" {
		path = prefix + "/" + name
	}
	if _, err := d.store.PutObject(ctx, path, "application/json", data); err != nil {
		d.logger.Warn("payload dump failed", zap.String("path", path), zap.Error(err))
	}
}
