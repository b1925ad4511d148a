package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/config"
	"github.com/urbsocial/creator-analytics/internal/metrics"
	"github.com/urbsocial/creator-analytics/internal/mycreator"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

// fakeExtractor serves canned upstream data keyed by workspace and content.
type fakeExtractor struct {
	authErr   error
	summaries map[string][]mycreator.ContentSummary
	details   map[string]mycreator.ContentDetail
	accounts  map[string][]mycreator.SocialAccount
	analytics map[string]*mycreator.PostMetrics
	profiles  map[string]*mycreator.AccountSummary
	growth    map[string][]mycreator.GrowthPoint

	analyticsCalls []string
	accountFetches int
}

func (f *fakeExtractor) EnsureAuthenticated(context.Context) error { return f.authErr }

func (f *fakeExtractor) ListContent(_ context.Context, workspaceID string) []mycreator.ContentSummary {
	return f.summaries[workspaceID]
}

func (f *fakeExtractor) GetDetail(_ context.Context, contentID, _ string) mycreator.ContentDetail {
	return f.details[contentID]
}

func (f *fakeExtractor) FetchSocialAccounts(_ context.Context, workspaceID string) []mycreator.SocialAccount {
	f.accountFetches++
	return f.accounts[workspaceID]
}

func (f *fakeExtractor) GetPostAnalytics(_ context.Context, postedID, _, _, _ string) *mycreator.PostMetrics {
	f.analyticsCalls = append(f.analyticsCalls, postedID)
	return f.analytics[postedID]
}

func (f *fakeExtractor) GetAccountSummary(_ context.Context, _ string, account mycreator.SocialAccount, _ time.Time) *mycreator.AccountSummary {
	return f.profiles[account.AccountID]
}

func (f *fakeExtractor) GetAudienceGrowth(_ context.Context, _ string, account mycreator.SocialAccount, _ time.Time) []mycreator.GrowthPoint {
	return f.growth[account.AccountID]
}

var testWorkspaces = []config.Workspace{{ID: "ws1", Name: "Recife"}}

func newTestPipeline(f *fakeExtractor) *Pipeline {
	metrics.Init()
	clock := fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
	return New(f, clock, 0, zap.NewNop())
}

func detailWithPostings(id string, postings ...map[string]any) mycreator.ContentDetail {
	raw := make([]any, 0, len(postings))
	for _, p := range postings {
		raw = append(raw, p)
	}
	return mycreator.ContentDetail{
		"_id":     id,
		"title":   "Launch",
		"message": "Hello #recife",
		"posting": raw,
	}
}

func TestExtractOneRecordPerPostingEntry(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		summaries: map[string][]mycreator.ContentSummary{
			"ws1": {{"_id": "c1"}},
		},
		details: map[string]mycreator.ContentDetail{
			"c1": detailWithPostings("c1",
				map[string]any{"posted_id": "e1", "platform_type": "instagram", "platform_id": "a1", "link": "https://x/1"},
				map[string]any{"posted_id": "e2", "platform_type": "facebook", "platform_id": "a2", "link": "https://x/2"},
				map[string]any{"posted_id": "e3", "platform_type": "linkedin", "platform_id": "a3", "link": "https://x/3"},
			),
		},
		analytics: map[string]*mycreator.PostMetrics{
			"e1": {Likes: 10, Saves: 5, Comments: 5, Reach: 200},
			"e2": {Likes: 1, Reach: 100},
			"e3": {Likes: 2, Reach: 50},
		},
	}

	posts, _, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	platforms := map[string]bool{}
	for _, p := range posts {
		require.Equal(t, "c1", p.InternalID)
		platforms[p.Platform] = true
	}
	require.Len(t, platforms, 3)

	// likes=10, saves=5, comments=5, reach=200 -> 10.0
	require.Equal(t, 10.0, posts[0].EngagementRate)
}

func TestExtractMissingAccountIDGetsMarker(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		summaries: map[string][]mycreator.ContentSummary{"ws1": {{"_id": "c1"}}},
		details: map[string]mycreator.ContentDetail{
			"c1": detailWithPostings("c1",
				map[string]any{"posted_id": "e1", "platform_type": "instagram", "link": "https://x/1"},
			),
		},
	}

	posts, _, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, ErrMarkerMissingIDs, posts[0].AnalyticsError)
	require.Zero(t, posts[0].Likes)
	require.Zero(t, posts[0].Reach)
	// The analytics endpoint is never called without the join key.
	require.Empty(t, f.analyticsCalls)
}

func TestExtractUnavailableAnalyticsGetsMarker(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		summaries: map[string][]mycreator.ContentSummary{"ws1": {{"_id": "c1"}}},
		details: map[string]mycreator.ContentDetail{
			"c1": detailWithPostings("c1",
				map[string]any{"posted_id": "e1", "platform_type": "instagram", "platform_id": "a1", "link": "https://x/1"},
			),
		},
	}

	posts, _, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, ErrMarkerNoAnalytics, posts[0].AnalyticsError)
	require.Equal(t, []string{"e1"}, f.analyticsCalls)
}

func TestExtractDropsFalselyPublishedEntries(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		summaries: map[string][]mycreator.ContentSummary{"ws1": {{"_id": "c1"}}},
		details: map[string]mycreator.ContentDetail{
			"c1": detailWithPostings("c1",
				// No permalink and no external id: a failed schedule.
				map[string]any{"platform_type": "instagram", "platform_id": "a1"},
				// Permalink missing but external id present: kept.
				map[string]any{"posted_id": "e2", "platform_type": "facebook", "platform_id": "a2"},
			),
		},
	}

	posts, _, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "e2", posts[0].ExternalID)
}

func TestExtractFollowerJoin(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		accounts: map[string][]mycreator.SocialAccount{
			"ws1": {
				{Platform: "instagram", InternalID: "in1", AccountID: "a1", Name: "studio.ig"},
				{Platform: "facebook", InternalID: "in2", AccountID: "a2", Name: "studio.fb"},
			},
		},
		profiles: map[string]*mycreator.AccountSummary{
			"a1": {Followers: 1000, Posts: 12, Engagement: 300, Reach: 6000, Impressions: 9000},
		},
		summaries: map[string][]mycreator.ContentSummary{"ws1": {{"_id": "c1"}}},
		details: map[string]mycreator.ContentDetail{
			"c1": detailWithPostings("c1",
				map[string]any{"posted_id": "e1", "platform_type": "instagram", "platform_id": "a1", "link": "https://x/1"},
				map[string]any{"posted_id": "e2", "platform_type": "twitter", "platform_id": "unknown", "link": "https://x/2"},
			),
		},
		analytics: map[string]*mycreator.PostMetrics{
			"e1": {Likes: 10, Reach: 250},
			"e2": {Likes: 1, Reach: 10},
		},
	}

	posts, profiles, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	require.Equal(t, 1000, posts[0].FollowerCount)
	require.Equal(t, "studio.ig", posts[0].ProfileName)
	require.Equal(t, 0.25, posts[0].ReachRate)
	// Unmatched account id joins to 0, never a missing value.
	require.Equal(t, 0, posts[1].FollowerCount)
	require.Equal(t, 0.0, posts[1].ReachRate)

	require.Len(t, profiles, 2)
	require.Equal(t, 1000, profiles[0].Followers)
	require.Equal(t, 5.0, profiles[0].EngagementRate)
	// The account whose summary failed stays zero-valued.
	require.Equal(t, ProfileRecord{
		WorkspaceID: "ws1", WorkspaceName: "Recife",
		ProfileName: "studio.fb", Platform: "facebook", AccountID: "a2",
		ExtractedAt: profiles[1].ExtractedAt,
	}, profiles[1])
}

func TestExtractAuthFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{authErr: context.DeadlineExceeded}
	_, _, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.Error(t, err)
}

func TestExtractSkipsContentWithoutDetail(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		summaries: map[string][]mycreator.ContentSummary{
			"ws1": {{"_id": "gone"}, {"_id": "c1"}},
		},
		details: map[string]mycreator.ContentDetail{
			"c1": detailWithPostings("c1",
				map[string]any{"posted_id": "e1", "platform_type": "instagram", "platform_id": "a1", "link": "https://x/1"},
			),
		},
	}

	posts, _, _, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "c1", posts[0].InternalID)
}

func TestEngagementRate(t *testing.T) {
	t.Parallel()

	require.Equal(t, 10.0, EngagementRate(10, 5, 5, 200))
	require.Equal(t, 0.0, EngagementRate(100, 50, 25, 0))
	require.Equal(t, 33.33, EngagementRate(1, 0, 0, 3))
}

func TestReachRate(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.25, ReachRate(250, 1000))
	require.Equal(t, 0.0, ReachRate(250, 0))
	require.Equal(t, 0.3333, ReachRate(1, 3))
}

func TestExtractGrowthRecordsPerAccountDay(t *testing.T) {
	t.Parallel()

	f := &fakeExtractor{
		accounts: map[string][]mycreator.SocialAccount{
			"ws1": {
				{Platform: "instagram", InternalID: "in1", AccountID: "a1", Name: "studio.ig"},
				{Platform: "facebook", InternalID: "in2", Name: "orphan.fb"},
			},
		},
		growth: map[string][]mycreator.GrowthPoint{
			"a1": {
				{Date: "2026-08-29", Followers: 1000, Change: 1000},
				{Date: "2026-08-30", Followers: 1012, Change: 12},
			},
		},
	}

	_, _, growth, err := newTestPipeline(f).Extract(context.Background(), testWorkspaces)
	require.NoError(t, err)
	require.Len(t, growth, 2)

	first := growth[0]
	require.Equal(t, "ws1", first.WorkspaceID)
	require.Equal(t, "Recife", first.WorkspaceName)
	require.Equal(t, "studio.ig", first.ProfileName)
	require.Equal(t, "instagram", first.Platform)
	require.Equal(t, "a1", first.AccountID)
	require.Equal(t, "2026-08-29", first.Date)
	require.Equal(t, 1000, first.Followers)
	require.Equal(t, 1000, first.DailyChange)
	require.Equal(t, 12, growth[1].DailyChange)

	// Accounts and growth share a single directory fetch per workspace.
	require.Equal(t, 1, f.accountFetches)
}
