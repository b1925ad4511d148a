// Package app wires the long-lived services (upstream client, sink,
// publisher, dump store) and orchestrates full extraction runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/clock/system"
	"github.com/urbsocial/creator-analytics/internal/config"
	"github.com/urbsocial/creator-analytics/internal/id/uuid"
	"github.com/urbsocial/creator-analytics/internal/metrics"
	"github.com/urbsocial/creator-analytics/internal/mycreator"
	"github.com/urbsocial/creator-analytics/internal/notify"
	"github.com/urbsocial/creator-analytics/internal/pipeline"
	pubsubpub "github.com/urbsocial/creator-analytics/internal/publisher/pubsub"
	sinkmemory "github.com/urbsocial/creator-analytics/internal/sink/memory"
	sheetsink "github.com/urbsocial/creator-analytics/internal/sink/sheets"
	storagegcs "github.com/urbsocial/creator-analytics/internal/storage/gcs"
	storagelocal "github.com/urbsocial/creator-analytics/internal/storage/local"
	storagememory "github.com/urbsocial/creator-analytics/internal/storage/memory"
)

// ErrRunInFlight is returned when a run is requested while one is running.
var ErrRunInFlight = errors.New("an extraction run is already in flight")

// Upstream is the full client surface the app consumes, implemented by
// *mycreator.Client.
type Upstream interface {
	pipeline.Extractor
	TriggerAnalyticsSync(ctx context.Context, workspaceID string, account mycreator.SocialAccount) bool
}

// App holds the wired services and the single-run state.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	upstream  Upstream
	pipe      *pipeline.Pipeline
	sink      pipeline.Sink
	publisher pipeline.Publisher
	notifier  pipeline.Notifier
	dumper    *runDumper
	idGen     pipeline.IDGenerator
	clock     pipeline.Clock

	mu      sync.Mutex
	running bool
	last    *pipeline.RunSummary
}

// New wires an App from configuration. It fails fast when any configured
// backend cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	client := mycreator.New(mycreator.Config{
		BaseURL:      cfg.Upstream.BaseURL,
		Cookie:       cfg.Creds.Cookie,
		Token:        cfg.Creds.Token,
		Email:        cfg.Creds.Email,
		Password:     cfg.Creds.Password,
		Timeout:      cfg.Upstream.Timeout(),
		RequestDelay: cfg.Upstream.RequestDelay(),
		PostsPerPage: cfg.Upstream.PostsPerPage,
		Timezone:     cfg.Upstream.Timezone,
	}, logger.Named("mycreator"))

	var dumper *runDumper
	if cfg.Dumps.Enabled {
		store, err := newDumpStore(ctx, cfg.Dumps)
		if err != nil {
			return nil, fmt.Errorf("initialize dump store: %w", err)
		}
		dumper = newRunDumper(store, logger.Named("dumps"))
		client.SetDumper(dumper)
		logger.Info("payload dumps enabled", zap.String("backend", cfg.Dumps.Backend))
	}

	sink, err := newSink(ctx, cfg.Sheets, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize sink: %w", err)
	}

	publisher, err := newPublisher(ctx, cfg.PubSub, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize publisher: %w", err)
	}

	clk := system.Clock{}
	a := &App{
		cfg:       cfg,
		logger:    logger,
		upstream:  client,
		pipe:      pipeline.New(client, clk, cfg.Upstream.WorkspaceDelay(), logger.Named("pipeline")),
		sink:      sink,
		publisher: publisher,
		notifier:  notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout(), logger.Named("webhook")),
		dumper:    dumper,
		idGen:     uuid.Generator{},
		clock:     clk,
	}
	return a, nil
}

func newDumpStore(ctx context.Context, cfg config.DumpConfig) (pipeline.BlobStore, error) {
	switch cfg.Backend {
	case "local":
		return storagelocal.New(storagelocal.Config{BaseDir: cfg.BaseDir})
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		return storagegcs.New(client, storagegcs.Config{Bucket: cfg.GCSBucket})
	case "memory":
		return storagememory.New(), nil
	default:
		return nil, fmt.Errorf("unknown dump backend %q", cfg.Backend)
	}
}

// newSink builds the spreadsheet sink, or an in-memory sink for dry runs
// when no spreadsheet is configured.
func newSink(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (pipeline.Sink, error) {
	if cfg.SpreadsheetID == "" {
		logger.Warn("no spreadsheet configured, uploads go to an in-memory sink")
		return sinkmemory.New(), nil
	}
	creds, err := sheetsCredentials(cfg.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	return sheetsink.New(ctx, sheetsink.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsJSON: creds,
		WriteMode:       cfg.WriteMode,
		UploadDelay:     cfg.UploadDelay(),
	}, logger.Named("sheets"))
}

// sheetsCredentials accepts either inline key JSON or a path to a key file.
func sheetsCredentials(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("sheets credentials are required when a spreadsheet is configured")
	}
	if strings.HasPrefix(value, "{") {
		return []byte(value), nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials file: %w", err)
	}
	return data, nil
}

func newPublisher(ctx context.Context, cfg config.PubSubConfig, logger *zap.Logger) (pipeline.Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicName == "" {
		return nil, nil
	}
	client, err := pubsubv2.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	logger.Info("run events go to pubsub", zap.String("topic", cfg.TopicName))
	return pubsubpub.New(client.Publisher(cfg.TopicName)), nil
}

// Logger returns the app's root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}
