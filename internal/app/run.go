package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/metrics"
	"github.com/urbsocial/creator-analytics/internal/pipeline"
	"github.com/urbsocial/creator-analytics/internal/views"
)

// runCompletedTopic tags the event published after each run.
const runCompletedTopic = "run.completed"

// Run executes one full extraction run: extract, derive views, upload,
// notify. Only one run is in flight at a time.
func (a *App) Run(ctx context.Context) (pipeline.RunSummary, error) {
	if !a.begin() {
		return pipeline.RunSummary{}, ErrRunInFlight
	}
	defer a.end()
	return a.run(ctx)
}

// TriggerRun starts a run in the background, reserving the in-flight slot
// before returning.
func (a *App) TriggerRun() error {
	if !a.begin() {
		return ErrRunInFlight
	}
	go func() {
		defer a.end()
		if _, err := a.run(context.Background()); err != nil {
			a.logger.Error("triggered run failed", zap.Error(err))
		}
	}()
	return nil
}

// LastRun returns the most recently completed run summary, or nil.
func (a *App) LastRun() *pipeline.RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	summary := *a.last
	return &summary
}

func (a *App) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return false
	}
	a.running = true
	return true
}

func (a *App) end() {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

func (a *App) run(ctx context.Context) (pipeline.RunSummary, error) {
	runID, err := a.idGen.NewID()
	if err != nil {
		return pipeline.RunSummary{}, err
	}
	if a.dumper != nil {
		a.dumper.SetRun(runID)
	}
	logger := a.logger.With(zap.String("run_id", runID))
	start := a.clock.Now()
	logger.Info("extraction run started", zap.Int("workspaces", len(a.cfg.Workspaces)))

	summary := pipeline.RunSummary{
		RunID:      runID,
		Status:     pipeline.RunStatusRunning,
		StartedAt:  start,
		Workspaces: len(a.cfg.Workspaces),
	}

	posts, profiles, growth, err := a.pipe.Extract(ctx, a.cfg.Workspaces)
	if err != nil {
		summary.Status = pipeline.RunStatusFailed
		summary.ErrorText = err.Error()
		a.finish(ctx, logger, &summary)
		return summary, err
	}

	views.StandardizeAll(posts)
	growth = views.CleanFollowerGrowth(growth)
	summary.Posts = len(posts)
	summary.Profiles = len(profiles)
	summary.Growth = len(growth)
	for _, p := range posts {
		if p.AnalyticsError != "" {
			summary.Errors++
		}
	}

	uploadFailures := a.upload(ctx, logger, posts, profiles, growth)
	if uploadFailures > 0 {
		summary.Status = pipeline.RunStatusPartial
	} else {
		summary.Status = pipeline.RunStatusSucceeded
		if err := a.notifier.Notify(ctx); err != nil {
			logger.Warn("completion webhook failed", zap.Error(err))
		}
	}

	a.finish(ctx, logger, &summary)
	return summary, nil
}

// upload pushes each non-empty table to the sink and returns the number of
// failed uploads. A failed table does not stop the remaining ones.
func (a *App) upload(ctx context.Context, logger *zap.Logger, posts []pipeline.PostRecord, profiles []pipeline.ProfileRecord, growth []pipeline.GrowthRecord) int {
	now := a.clock.Now()
	tables := []struct {
		name string
		rows [][]string
	}{
		{a.cfg.Sheets.PostsTab, postRows(posts)},
		{hashtagTab, hashtagRows(views.BuildHashtagRollup(posts))},
		{topPostsTab, topPostRows(views.BuildTopPosts(posts))},
		{growthTab, growthRows(growth)},
		{cityTab, cityRows(views.BuildCityRollup(posts, now))},
		{profilesTab, profileRows(profiles)},
	}

	failures := 0
	for _, table := range tables {
		if len(table.rows) == 0 {
			logger.Info("table empty, upload skipped", zap.String("table", table.name))
			continue
		}
		if err := a.sink.Write(ctx, table.name, table.rows); err != nil {
			failures++
			logger.Warn("table upload failed", zap.String("table", table.name), zap.Error(err))
		}
	}
	return failures
}

func (a *App) finish(ctx context.Context, logger *zap.Logger, summary *pipeline.RunSummary) {
	summary.FinishedAt = a.clock.Now()
	duration := summary.FinishedAt.Sub(summary.StartedAt)
	metrics.ObserveRun(string(summary.Status), duration)

	a.mu.Lock()
	copied := *summary
	a.last = &copied
	a.mu.Unlock()

	if a.publisher != nil {
		if _, err := a.publisher.Publish(ctx, runCompletedTopic, summary); err != nil {
			logger.Warn("run event publish failed", zap.Error(err))
		}
	}

	logger.Info("extraction run finished",
		zap.String("status", string(summary.Status)),
		zap.Int("posts", summary.Posts),
		zap.Int("profiles", summary.Profiles),
		zap.Int("growth_days", summary.Growth),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", duration.Round(time.Millisecond)),
	)
}

// Sync asks the backend to refresh analytics for every connected account
// before an extraction run. Per-account failures are logged and skipped.
func (a *App) Sync(ctx context.Context) error {
	if err := a.upstream.EnsureAuthenticated(ctx); err != nil {
		return err
	}
	for _, ws := range a.cfg.Workspaces {
		accounts := a.upstream.FetchSocialAccounts(ctx, ws.ID)
		triggered := 0
		for _, acc := range accounts {
			if a.upstream.TriggerAnalyticsSync(ctx, ws.ID, acc) {
				triggered++
			} else {
				a.logger.Warn("account sync not triggered",
					zap.String("workspace", ws.Name),
					zap.String("account", acc.Name),
				)
			}
		}
		a.logger.Info("workspace sync requested",
			zap.String("workspace", ws.Name),
			zap.Int("accounts", len(accounts)),
			zap.Int("triggered", triggered),
		)
	}
	return nil
}
