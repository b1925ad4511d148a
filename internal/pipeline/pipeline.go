package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/config"
	"github.com/urbsocial/creator-analytics/internal/metrics"
	"github.com/urbsocial/creator-analytics/internal/mycreator"
)

// Extractor is the upstream client surface the pipeline consumes,
// implemented by *mycreator.Client.
type Extractor interface {
	EnsureAuthenticated(ctx context.Context) error
	ListContent(ctx context.Context, workspaceID string) []mycreator.ContentSummary
	GetDetail(ctx context.Context, contentID, workspaceID string) mycreator.ContentDetail
	FetchSocialAccounts(ctx context.Context, workspaceID string) []mycreator.SocialAccount
	GetPostAnalytics(ctx context.Context, postedID, workspaceID, platform, accountID string) *mycreator.PostMetrics
	GetAccountSummary(ctx context.Context, workspaceID string, account mycreator.SocialAccount, now time.Time) *mycreator.AccountSummary
	GetAudienceGrowth(ctx context.Context, workspaceID string, account mycreator.SocialAccount, now time.Time) []mycreator.GrowthPoint
}

// Pipeline runs the sequential multi-workspace extraction: accounts and
// follower counts first, then listing, detail and per-posting analytics.
// Workspaces are independent; one failing degrades to zero records for it.
type Pipeline struct {
	client         Extractor
	clock          Clock
	logger         *zap.Logger
	workspaceDelay time.Duration
}

// New constructs a Pipeline.
func New(client Extractor, clock Clock, workspaceDelay time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		client:         client,
		clock:          clock,
		logger:         logger,
		workspaceDelay: workspaceDelay,
	}
}

// Extract walks every configured workspace and returns the normalized post
// records, per-account profile records and daily follower-growth records.
// The error return is reserved for run-fatal conditions (failed initial
// authentication, canceled context); per-workspace and per-post failures
// degrade to markers and log lines.
func (p *Pipeline) Extract(ctx context.Context, workspaces []config.Workspace) ([]PostRecord, []ProfileRecord, []GrowthRecord, error) {
	if err := p.client.EnsureAuthenticated(ctx); err != nil {
		return nil, nil, nil, err
	}

	var posts []PostRecord
	var profiles []ProfileRecord
	var growth []GrowthRecord

	for i, ws := range workspaces {
		if i > 0 && p.workspaceDelay > 0 {
			if err := sleepCtx(ctx, p.workspaceDelay); err != nil {
				return posts, profiles, growth, err
			}
		}
		if err := ctx.Err(); err != nil {
			return posts, profiles, growth, err
		}

		accounts := p.client.FetchSocialAccounts(ctx, ws.ID)

		wsProfiles, followers, names := p.extractProfiles(ctx, ws, accounts)
		profiles = append(profiles, wsProfiles...)

		wsGrowth := p.extractGrowth(ctx, ws, accounts)
		growth = append(growth, wsGrowth...)

		wsPosts := p.extractPosts(ctx, ws, followers, names)
		posts = append(posts, wsPosts...)

		p.logger.Info("workspace extracted",
			zap.String("workspace", ws.Name),
			zap.Int("posts", len(wsPosts)),
			zap.Int("profiles", len(wsProfiles)),
			zap.Int("growth_days", len(wsGrowth)),
		)
	}

	return posts, profiles, growth, nil
}

// extractProfiles fetches the trailing-window summary for each account. It
// returns the profile records plus the follower-count and profile-name join
// maps keyed by platform-scoped account id.
func (p *Pipeline) extractProfiles(ctx context.Context, ws config.Workspace, accounts []mycreator.SocialAccount) ([]ProfileRecord, map[string]int, map[string]string) {
	now := p.clock.Now()
	followers := make(map[string]int)
	names := make(map[string]string)

	profiles := make([]ProfileRecord, 0, len(accounts))
	for _, acc := range accounts {
		record := ProfileRecord{
			WorkspaceID:   ws.ID,
			WorkspaceName: ws.Name,
			ProfileName:   acc.Name,
			Platform:      acc.Platform,
			AccountID:     acc.AccountID,
			ExtractedAt:   now,
		}
		if summary := p.client.GetAccountSummary(ctx, ws.ID, acc, now); summary != nil {
			record.Followers = summary.Followers
			record.Posts = summary.Posts
			record.Engagement = summary.Engagement
			record.Reach = summary.Reach
			record.Impressions = summary.Impressions
			record.EngagementRate = EngagementRate(summary.Engagement, 0, 0, summary.Reach)
		} else {
			p.logger.Warn("account summary unavailable, keeping zero-valued profile",
				zap.String("workspace", ws.Name),
				zap.String("account", acc.Name),
			)
		}
		profiles = append(profiles, record)
		if acc.AccountID != "" {
			followers[acc.AccountID] = record.Followers
			names[acc.AccountID] = acc.Name
		}
	}
	return profiles, followers, names
}

// extractGrowth fetches the daily follower series for every account with a
// platform id. Accounts without a series are skipped silently; the growth
// table simply has no rows for them.
func (p *Pipeline) extractGrowth(ctx context.Context, ws config.Workspace, accounts []mycreator.SocialAccount) []GrowthRecord {
	now := p.clock.Now()

	var out []GrowthRecord
	for _, acc := range accounts {
		if acc.AccountID == "" {
			continue
		}
		for _, point := range p.client.GetAudienceGrowth(ctx, ws.ID, acc, now) {
			out = append(out, GrowthRecord{
				WorkspaceID:   ws.ID,
				WorkspaceName: ws.Name,
				ProfileName:   acc.Name,
				Platform:      acc.Platform,
				AccountID:     acc.AccountID,
				Date:          point.Date,
				Followers:     point.Followers,
				DailyChange:   point.Change,
				ExtractedAt:   now,
			})
		}
	}
	return out
}

// extractPosts lists the workspace's published content and normalizes one
// record per posting entry.
func (p *Pipeline) extractPosts(ctx context.Context, ws config.Workspace, followers map[string]int, names map[string]string) []PostRecord {
	var out []PostRecord

	for _, summary := range p.client.ListContent(ctx, ws.ID) {
		contentID := summary.ID()
		if contentID == "" {
			p.logger.Warn("listing entry without id skipped", zap.String("workspace", ws.Name))
			continue
		}
		detail := p.client.GetDetail(ctx, contentID, ws.ID)
		if detail == nil {
			p.logger.Warn("detail unavailable, content skipped",
				zap.String("workspace", ws.Name),
				zap.String("content_id", contentID),
			)
			continue
		}
		out = append(out, p.recordsFromDetail(ctx, ws, detail, followers, names)...)
	}
	return out
}

// recordsFromDetail builds one PostRecord per posting entry. A detail with
// N posting entries yields exactly N records sharing the internal id.
// Published entries lacking both permalink and external id are failed
// schedules and are dropped here.
func (p *Pipeline) recordsFromDetail(ctx context.Context, ws config.Workspace, detail mycreator.ContentDetail, followers map[string]int, names map[string]string) []PostRecord {
	internalID := detail.InternalID()
	title := CleanText(detail.Title())
	caption := CleanCaption(detail.Caption())
	publishedAt := NormalizeDate(detail.PublishedAt())
	mediaURL := detail.MediaURL()

	postings := detail.Postings()
	out := make([]PostRecord, 0, len(postings))
	for _, entry := range postings {
		if entry.Permalink == "" && entry.PostedID == "" {
			p.logger.Warn("dropping falsely published entry",
				zap.String("workspace", ws.Name),
				zap.String("internal_id", internalID),
				zap.String("platform", entry.Platform),
			)
			continue
		}

		record := PostRecord{
			InternalID:    internalID,
			ExternalID:    entry.PostedID,
			WorkspaceID:   ws.ID,
			WorkspaceName: ws.Name,
			Title:         title,
			Caption:       caption,
			Platform:      entry.Platform,
			ProfileName:   names[entry.AccountID],
			PostType:      entry.PostType,
			MediaType:     entry.MediaType,
			PublishedAt:   publishedAt,
			Permalink:     entry.Permalink,
			MediaURL:      mediaURL,
			FollowerCount: followers[entry.AccountID],
			ExtractedAt:   p.clock.Now(),
		}

		p.attachAnalytics(ctx, ws, entry, &record)

		record.EngagementRate = EngagementRate(record.Likes, record.Saves, record.Comments, record.Reach)
		record.ReachRate = ReachRate(record.Reach, record.FollowerCount)

		metrics.ObservePostExtracted(ws.Name)
		out = append(out, record)
	}
	return out
}

// attachAnalytics fills the record's metric fields, or an explicit error
// marker when they cannot be fetched. Metrics stay zeroed in both marker
// cases so the sink never sees missing values.
func (p *Pipeline) attachAnalytics(ctx context.Context, ws config.Workspace, entry mycreator.PostingEntry, record *PostRecord) {
	if entry.PostedID == "" || entry.AccountID == "" {
		record.AnalyticsError = ErrMarkerMissingIDs
		metrics.ObserveAnalyticsError("missing_ids")
		return
	}

	m := p.client.GetPostAnalytics(ctx, entry.PostedID, ws.ID, entry.Platform, entry.AccountID)
	if m == nil {
		record.AnalyticsError = ErrMarkerNoAnalytics
		metrics.ObserveAnalyticsError("unavailable")
		return
	}

	record.Likes = m.Likes
	record.Comments = m.Comments
	record.Shares = m.Shares
	record.Saves = m.Saves
	record.Reach = m.Reach
	record.Impressions = m.Impressions
	record.Plays = m.Plays
	record.VideoWatchTime = m.VideoWatchTime
	record.VideoAvgTime = m.VideoAvgTime
	record.TapsForward = m.TapsForward
	record.TapsBack = m.TapsBack
	record.Exits = m.Exits
	if record.MediaType == "" {
		record.MediaType = m.MediaType
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
