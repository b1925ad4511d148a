// Package pipeline defines core types shared across subsystems and runs the
// extraction pipeline itself.
package pipeline

import (
	"math"
	"time"
)

// RunStatus represents the outcome of one extraction run.
type RunStatus string

// Run status values reported by the pipeline.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// Error markers attached to post records whose metrics could not be fetched.
// These are data, not Go errors: a marked record still flows to the sink.
const (
	ErrMarkerMissingIDs  = "ID or account missing"
	ErrMarkerNoAnalytics = "analytics unavailable"
)

// PostRecord is the canonical normalized output unit: one row per
// (content, posting entry) pair. Content published to three networks yields
// three records sharing the same InternalID.
type PostRecord struct {
	InternalID    string `json:"internal_id"`
	ExternalID    string `json:"external_id"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`

	Title       string `json:"title"`
	Caption     string `json:"caption"`
	Platform    string `json:"platform"`
	ProfileName string `json:"profile_name"`
	PostType    string `json:"post_type"`
	MediaType   string `json:"media_type"`
	PublishedAt string `json:"published_at"`
	Permalink   string `json:"permalink"`
	MediaURL    string `json:"media_url"`

	Likes          int `json:"likes"`
	Comments       int `json:"comments"`
	Shares         int `json:"shares"`
	Saves          int `json:"saves"`
	Reach          int `json:"reach"`
	Impressions    int `json:"impressions"`
	Plays          int `json:"plays"`
	VideoWatchTime int `json:"video_watch_time"`
	VideoAvgTime   int `json:"video_avg_time"`
	TapsForward    int `json:"taps_forward"`
	TapsBack       int `json:"taps_back"`
	Exits          int `json:"exits"`

	EngagementRate float64 `json:"engagement_rate"`
	ReachRate      float64 `json:"reach_rate"`
	FollowerCount  int     `json:"follower_count"`

	ExtractedAt    time.Time `json:"extracted_at"`
	AnalyticsError string    `json:"analytics_error,omitempty"`
}

// EngagementTotal sums the interaction metrics used by rankings.
func (p PostRecord) EngagementTotal() int {
	return p.Likes + p.Comments + p.Shares + p.Saves
}

// ProfileRecord is the per-account rollup over the trailing 30-day window.
type ProfileRecord struct {
	WorkspaceID    string    `json:"workspace_id"`
	WorkspaceName  string    `json:"workspace_name"`
	ProfileName    string    `json:"profile_name"`
	Platform       string    `json:"platform"`
	AccountID      string    `json:"account_id"`
	Followers      int       `json:"followers"`
	Posts          int       `json:"posts"`
	Engagement     int       `json:"engagement"`
	Reach          int       `json:"reach"`
	Impressions    int       `json:"impressions"`
	EngagementRate float64   `json:"engagement_rate"`
	ExtractedAt    time.Time `json:"extracted_at"`
}

// GrowthRecord is one day of one account's follower-growth series.
type GrowthRecord struct {
	WorkspaceID   string    `json:"workspace_id"`
	WorkspaceName string    `json:"workspace_name"`
	ProfileName   string    `json:"profile_name"`
	Platform      string    `json:"platform"`
	AccountID     string    `json:"account_id"`
	Date          string    `json:"date"`
	Followers     int       `json:"followers"`
	DailyChange   int       `json:"daily_change"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// RunSummary describes one completed pipeline run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Workspaces int       `json:"workspaces"`
	Posts      int       `json:"posts"`
	Profiles   int       `json:"profiles"`
	Growth     int       `json:"growth"`
	Errors     int       `json:"errors"`
	ErrorText  string    `json:"error_text,omitempty"`
}

// EngagementRate derives the canonical engagement percentage:
// (likes + saves + comments) / reach * 100, rounded to 2 decimals.
// Reach of zero yields 0 by policy, never a division error.
func EngagementRate(likes, saves, comments, reach int) float64 {
	if reach <= 0 {
		return 0
	}
	rate := float64(likes+saves+comments) / float64(reach) * 100
	return math.Round(rate*100) / 100
}

// ReachRate derives reach relative to follower count, rounded to 4 decimals;
// 0 when the follower count is unknown.
func ReachRate(reach, followers int) float64 {
	if followers <= 0 {
		return 0
	}
	return math.Round(float64(reach)/float64(followers)*10000) / 10000
}
