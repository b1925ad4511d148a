// Package sheets implements the spreadsheet sink on the Google Sheets API
// with service-account authentication.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/urbsocial/creator-analytics/internal/metrics"
)

// Write modes supported by the sink.
const (
	ModeOverwrite = "overwrite"
	ModeAppend    = "append"
)

// Config captures the parameters required to reach the spreadsheet.
type Config struct {
	// SpreadsheetID is the target spreadsheet key.
	SpreadsheetID string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
	// CredentialsJSON is the service-account key material.
	CredentialsJSON []byte
	// WriteMode is overwrite (clear + update) or append.
	WriteMode string `mapstructure:"write_mode" yaml:"write_mode"`
	// UploadDelay is the fixed pause between table uploads, respecting the
	// spreadsheet API's own rate limits.
	UploadDelay time.Duration
}

// Sink uploads named tables to one spreadsheet, creating missing tabs.
type Sink struct {
	svc     *sheets.Service
	cfg     Config
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a Sheets-backed sink authenticated as a service account.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Sink, error) {
	if len(cfg.CredentialsJSON) == 0 {
		return nil, fmt.Errorf("service account credentials are required")
	}
	jwt, err := google.JWTConfigFromJSON(cfg.CredentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger)
}

// NewWithService creates a sink around an existing Sheets service. Tests
// point the service at a local server.
func NewWithService(svc *sheets.Service, cfg Config, logger *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.WriteMode != ModeOverwrite && cfg.WriteMode != ModeAppend {
		return nil, fmt.Errorf("unsupported write mode %q", cfg.WriteMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.UploadDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.UploadDelay), 1)
	}
	return &Sink{svc: svc, cfg: cfg, logger: logger, limiter: limiter}, nil
}

// Write uploads one table of rows (header first) to the tab named table,
// creating the tab when missing. Consecutive calls are paced by the
// configured upload delay.
func (s *Sink) Write(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		s.logger.Warn("nothing to upload", zap.String("table", table))
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("upload pacing wait: %w", err)
	}

	if err := s.write(ctx, table, rows); err != nil {
		metrics.ObserveSinkUpload(table, "error")
		return err
	}
	metrics.ObserveSinkUpload(table, "success")
	s.logger.Info("table uploaded",
		zap.String("table", table),
		zap.Int("rows", len(rows)-1),
		zap.String("mode", s.cfg.WriteMode),
	)
	return nil
}

func (s *Sink) write(ctx context.Context, table string, rows [][]string) error {
	if err := s.ensureTab(ctx, table); err != nil {
		return err
	}
	if s.cfg.WriteMode == ModeOverwrite {
		return s.overwrite(ctx, table, rows)
	}
	return s.append(ctx, table, rows)
}

// ensureTab creates the named tab when the spreadsheet does not have it.
func (s *Sink) ensureTab(ctx context.Context, table string) error {
	doc, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == table {
			return nil
		}
	}

	s.logger.Info("creating missing tab", zap.String("table", table))
	_, err = s.svc.Spreadsheets.BatchUpdate(s.cfg.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create tab %q: %w", table, err)
	}
	return nil
}

func (s *Sink) overwrite(ctx context.Context, table string, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.cfg.SpreadsheetID, table, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear tab %q: %w", table, err)
	}

	_, err = s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, table+"!A1", toValueRange(rows)).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update tab %q: %w", table, err)
	}
	return nil
}

// append adds rows after the existing content. The header row is written
// only when the tab is still empty.
func (s *Sink) append(ctx context.Context, table string, rows [][]string) error {
	existing, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, table+"!A1:A1").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read tab %q: %w", table, err)
	}
	if len(existing.Values) > 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil
	}

	_, err = s.svc.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, table, toValueRange(rows)).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to tab %q: %w", table, err)
	}
	return nil
}

func toValueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return &sheets.ValueRange{Values: values}
}
