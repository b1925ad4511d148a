package mycreator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/lookup"
)

// Ordered alias tables for each logical metric. Upstream key naming is
// inconsistent across content and platform types; the first alias that
// parses wins, and an unparsable metric defaults to 0.
var (
	likesAliases       = []string{"likes", "likeCount", "like_count", "total_likes"}
	commentsAliases    = []string{"comments", "commentCount", "comment_count", "total_comments"}
	sharesAliases      = []string{"shares", "shareCount", "share_count", "total_shares"}
	savesAliases       = []string{"saves", "saveCount", "save_count", "saved"}
	reachAliases       = []string{"reach", "reachCount", "reach_count"}
	impressionsAliases = []string{"impressions", "impressionCount", "impression_count"}
	playsAliases       = []string{"plays", "videoViews", "video_views", "views"}
	watchTimeAliases   = []string{"video_watch_time", "videoWatchTime", "total_video_watch_time", "ig_reels_video_view_total_time"}
	avgTimeAliases     = []string{"video_avg_time", "videoAvgTime", "average_watch_time", "ig_reels_avg_watch_time"}
	tapsForwardAliases = []string{"taps_forward", "tapsForward", "taps_forwards"}
	tapsBackAliases    = []string{"taps_back", "tapsBack", "taps_backward"}
	exitsAliases       = []string{"exits", "exit", "story_exits"}

	mediaTypeAliases = []string{"media_type", "mediaType", "media_product_type"}

	// A response counts as analytics data only if at least one of these
	// keys is present after normalization.
	recognizedMetricKeys = []string{
		"likes", "likeCount", "like_count",
		"comments", "commentCount", "comment_count",
		"reach", "reachCount", "impressions", "impressionCount",
		"saves", "saved", "shares", "plays", "views",
		"engagement", "engagements",
	}
)

// PostMetrics holds the engagement metrics extracted for one posting.
type PostMetrics struct {
	Likes          int
	Comments       int
	Shares         int
	Saves          int
	Reach          int
	Impressions    int
	Plays          int
	VideoWatchTime int
	VideoAvgTime   int
	TapsForward    int
	TapsBack       int
	Exits          int
	MediaType      string
}

// GetPostAnalytics fetches engagement metrics for one posted entity.
// Both postedID and accountID are mandatory: when either is missing the
// fetch is skipped immediately and the caller records an explicit error
// marker instead of silently zeroed metrics. A response with no recognized
// metric keys is treated as absent data, not an error.
func (c *Client) GetPostAnalytics(ctx context.Context, postedID, workspaceID, platform, accountID string) *PostMetrics {
	if postedID == "" || accountID == "" {
		return nil
	}

	payload := map[string]any{
		"id":                 postedID,
		"workspace_id":       workspaceID,
		"all_post_ids":       []string{postedID},
		"platforms":          strings.ToLower(platform),
		"account_id":         accountID,
		"date_range":         "",
		"labels":             []string{},
		"content_categories": []string{},
	}

	status, body, err := c.do(ctx, "plannerAnalytics", http.MethodPost, plannerAnalyticsPath, payload)
	if err != nil {
		c.logger.Warn("analytics fetch failed", zap.String("posted_id", postedID), zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("analytics fetch returned non-200",
			zap.String("posted_id", postedID),
			zap.Int("status", status),
		)
		return nil
	}

	c.dump(ctx, fmt.Sprintf("analytics_%s.json", postedID), body)

	record := normalizeAnalyticsResponse(body)
	if !hasRecognizedMetrics(record) {
		c.logger.Debug("analytics response carried no recognized metrics",
			zap.String("posted_id", postedID),
		)
		return nil
	}

	return &PostMetrics{
		Likes:          lookup.IntFrom(record, likesAliases),
		Comments:       lookup.IntFrom(record, commentsAliases),
		Shares:         lookup.IntFrom(record, sharesAliases),
		Saves:          lookup.IntFrom(record, savesAliases),
		Reach:          lookup.IntFrom(record, reachAliases),
		Impressions:    lookup.IntFrom(record, impressionsAliases),
		Plays:          lookup.IntFrom(record, playsAliases),
		VideoWatchTime: lookup.IntFrom(record, watchTimeAliases),
		VideoAvgTime:   lookup.IntFrom(record, avgTimeAliases),
		TapsForward:    lookup.IntFrom(record, tapsForwardAliases),
		TapsBack:       lookup.IntFrom(record, tapsBackAliases),
		Exits:          lookup.IntFrom(record, exitsAliases),
		MediaType:      lookup.ResolveString(record, mediaTypeAliases, nil),
	}
}

// normalizeAnalyticsResponse flattens the known response variants: a bare
// object, a single-element array wrapping the object, or either of those
// nested under a "data" wrapper key.
func normalizeAnalyticsResponse(body []byte) map[string]any {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	return unwrapAnalytics(raw)
}

func unwrapAnalytics(raw any) map[string]any {
	switch val := raw.(type) {
	case []any:
		if len(val) == 1 {
			return unwrapAnalytics(val[0])
		}
		return nil
	case map[string]any:
		if wrapped, ok := val["data"]; ok {
			if inner := unwrapAnalytics(wrapped); inner != nil {
				return inner
			}
		}
		return val
	default:
		return nil
	}
}

func hasRecognizedMetrics(record map[string]any) bool {
	if len(record) == 0 {
		return false
	}
	for _, key := range recognizedMetricKeys {
		if _, ok := record[key]; ok {
			return true
		}
	}
	return false
}

// AccountSummary is the trailing-window aggregate for one account.
type AccountSummary struct {
	Followers   int
	Posts       int
	Engagement  int
	Reach       int
	Impressions int
}

var (
	followersAliases         = []string{"followers", "followers_count", "follower_count", "fan_count"}
	postsCountAliases        = []string{"posts", "posts_count", "total_posts", "posts_engagement", "media_count"}
	engagementAliases        = []string{"engagement", "engagements", "total_engagement", "engagement_count"}
	summaryReachAliases      = []string{"reach", "total_reach", "reach_count"}
	summaryImpressionAliases = []string{"impressions", "total_impressions", "impression_count"}
)

// summaryWindowDays is the fixed trailing window for account summaries.
const summaryWindowDays = 30

// platformAccountKeys enumerates the per-platform account arrays the
// summary endpoint expects; unused platforms are sent as empty arrays.
var platformAccountKeys = []string{
	"instagram_accounts", "facebook_accounts", "linkedin_accounts",
	"tiktok_accounts", "twitter_accounts", "youtube_accounts",
	"pinterest_accounts", "gmb_accounts", "tumblr_accounts",
}

// overviewPayload builds the getSummary request body: a 30-day window
// ending at now in the client's timezone, with every platform account
// array present and only the target account's filled.
func (c *Client) overviewPayload(workspaceID string, account SocialAccount, now time.Time) map[string]any {
	end := now.In(c.loc)
	start := end.AddDate(0, 0, -summaryWindowDays)

	payload := map[string]any{
		"workspace_id": workspaceID,
		"date":         fmt.Sprintf("%s - %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"timezone":     c.loc.String(),
	}
	for _, key := range platformAccountKeys {
		payload[key] = []string{}
	}
	accountsKey := strings.ToLower(account.Platform) + "_accounts"
	payload[accountsKey] = []string{account.AccountID}
	return payload
}

// GetAccountSummary fetches follower count and 30-day aggregates for one
// account. The window ends at now in the client's configured timezone.
// It returns nil on failure; the caller records zero-valued metrics and
// continues with the remaining accounts.
func (c *Client) GetAccountSummary(ctx context.Context, workspaceID string, account SocialAccount, now time.Time) *AccountSummary {
	if account.AccountID == "" {
		return nil
	}

	payload := c.overviewPayload(workspaceID, account, now)

	status, body, err := c.do(ctx, "overviewSummary", http.MethodPost, overviewSummaryPath, payload)
	if err != nil {
		c.logger.Warn("account summary fetch failed", zap.String("account", account.Name), zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("account summary returned non-200",
			zap.String("account", account.Name),
			zap.Int("status", status),
		)
		return nil
	}

	c.dump(ctx, fmt.Sprintf("summary_%s.json", account.AccountID), body)

	record := normalizeAnalyticsResponse(body)
	if len(record) == 0 {
		return nil
	}

	return &AccountSummary{
		Followers:   lookup.Int(lookup.Resolve(record, followersAliases, []string{"overview", "summary", "current"})),
		Posts:       lookup.Int(lookup.Resolve(record, postsCountAliases, []string{"overview", "summary", "current"})),
		Engagement:  lookup.Int(lookup.Resolve(record, engagementAliases, []string{"overview", "summary", "current"})),
		Reach:       lookup.Int(lookup.Resolve(record, summaryReachAliases, []string{"overview", "summary", "current"})),
		Impressions: lookup.Int(lookup.Resolve(record, summaryImpressionAliases, []string{"overview", "summary", "current"})),
	}
}

// GrowthPoint is one day of an account's follower series. Change on the
// first point of a fetched series equals the follower total (there is no
// predecessor to diff against); the transform stage zeroes it.
type GrowthPoint struct {
	Date      string
	Followers int
	Change    int
}

var (
	growthNodeAliases   = []string{"audience_growth", "audienceGrowth", "followers_growth", "followersGrowth", "follower_growth", "growth"}
	growthDateAliases   = []string{"date", "day", "end_time", "bucket", "label"}
	growthChangeAliases = []string{"difference", "diff", "change", "variation", "daily_change", "dailyChange"}

	growthDateListKeys  = []string{"dates", "days", "buckets", "labels"}
	growthCountListKeys = []string{"followers", "counts", "values", "data"}
)

// GetAudienceGrowth fetches the daily follower series for one account over
// the trailing window. The series arrives either as an array of per-day
// objects or as parallel date/count arrays; both shapes normalize to
// GrowthPoints. It returns nil on failure or when the response carries no
// recognizable series.
func (c *Client) GetAudienceGrowth(ctx context.Context, workspaceID string, account SocialAccount, now time.Time) []GrowthPoint {
	if account.AccountID == "" {
		return nil
	}

	payload := c.overviewPayload(workspaceID, account, now)

	status, body, err := c.do(ctx, "overviewSummary", http.MethodPost, overviewSummaryPath, payload)
	if err != nil {
		c.logger.Warn("audience growth fetch failed", zap.String("account", account.Name), zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("audience growth returned non-200",
			zap.String("account", account.Name),
			zap.Int("status", status),
		)
		return nil
	}

	c.dump(ctx, fmt.Sprintf("growth_%s.json", account.AccountID), body)

	record := normalizeAnalyticsResponse(body)
	if len(record) == 0 {
		return nil
	}

	node := lookup.Resolve(record, growthNodeAliases, []string{"overview", "audience", "summary"})
	switch series := node.(type) {
	case []any:
		return growthFromObjects(series)
	case map[string]any:
		return growthFromArrays(series)
	default:
		return nil
	}
}

// growthFromObjects handles the per-day object shape. A missing change
// field is reconstructed by diffing consecutive follower totals.
func growthFromObjects(series []any) []GrowthPoint {
	points := make([]GrowthPoint, 0, len(series))
	for _, item := range series {
		day, ok := item.(map[string]any)
		if !ok {
			continue
		}
		point := GrowthPoint{
			Date:      lookup.ResolveString(day, growthDateAliases, nil),
			Followers: lookup.IntFrom(day, followersAliases),
		}
		if change := lookup.Resolve(day, growthChangeAliases, nil); change != nil {
			point.Change = lookup.Int(change)
		} else if len(points) == 0 {
			point.Change = point.Followers
		} else {
			point.Change = point.Followers - points[len(points)-1].Followers
		}
		points = append(points, point)
	}
	if len(points) == 0 {
		return nil
	}
	return points
}

// growthFromArrays handles the parallel-array shape: one list of dates and
// one of follower counts, paired by index.
func growthFromArrays(node map[string]any) []GrowthPoint {
	dates := stringList(lookup.Resolve(node, growthDateListKeys, nil))
	counts, ok := lookup.Resolve(node, growthCountListKeys, nil).([]any)
	if !ok || len(dates) == 0 || len(dates) != len(counts) {
		return nil
	}

	points := make([]GrowthPoint, 0, len(dates))
	for i, date := range dates {
		point := GrowthPoint{Date: date, Followers: lookup.Int(counts[i])}
		if i == 0 {
			point.Change = point.Followers
		} else {
			point.Change = point.Followers - points[i-1].Followers
		}
		points = append(points, point)
	}
	return points
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, lookup.Stringify(item))
	}
	return out
}
