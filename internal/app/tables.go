package app

import (
	"strconv"
	"time"

	"github.com/urbsocial/creator-analytics/internal/pipeline"
	"github.com/urbsocial/creator-analytics/internal/views"
)

// Fixed tab names for the derived tables. The posts tab name comes from
// configuration.
const (
	hashtagTab  = "analise_hashtag"
	topPostsTab = "top_posts_mycreator"
	growthTab   = "crescimento_seguidores"
	cityTab     = "monitoramento_cidades"
	profilesTab = "perfis"
)

const timestampLayout = "2006-01-02 15:04:05"

func postRows(posts []pipeline.PostRecord) [][]string {
	if len(posts) == 0 {
		return nil
	}
	rows := [][]string{{
		"workspace", "published_at", "platform", "profile", "followers",
		"post_type", "media_type", "title", "caption",
		"likes", "comments", "saves", "shares",
		"reach", "reach_rate", "impressions", "plays", "engagement_rate",
		"permalink", "external_id", "internal_id", "data_status", "extracted_at",
	}}
	for _, p := range posts {
		rows = append(rows, []string{
			p.WorkspaceName, p.PublishedAt, p.Platform, p.ProfileName, itoa(p.FollowerCount),
			p.PostType, p.MediaType, p.Title, p.Caption,
			itoa(p.Likes), itoa(p.Comments), itoa(p.Saves), itoa(p.Shares),
			itoa(p.Reach), ftoa(p.ReachRate), itoa(p.Impressions), itoa(p.Plays), ftoa(p.EngagementRate),
			p.Permalink, p.ExternalID, p.InternalID, p.AnalyticsError, stamp(p.ExtractedAt),
		})
	}
	return rows
}

func hashtagRows(tags []views.HashtagRollup) [][]string {
	if len(tags) == 0 {
		return nil
	}
	rows := [][]string{{
		"hashtag", "uses", "total_likes", "total_comments",
		"engagement_total", "reach_total", "impressions_total",
	}}
	for _, t := range tags {
		rows = append(rows, []string{
			t.Tag, itoa(t.Uses), itoa(t.Likes), itoa(t.Comments),
			itoa(t.Engagement), itoa(t.Reach), itoa(t.Impressions),
		})
	}
	return rows
}

func topPostRows(ranked []views.RankedPost) [][]string {
	if len(ranked) == 0 {
		return nil
	}
	rows := [][]string{{
		"ranking", "metric_value", "profile", "published_at", "media_type", "title", "permalink",
	}}
	for _, r := range ranked {
		rows = append(rows, []string{
			r.Ranking, itoa(r.Value), r.ProfileName, r.PublishedAt, r.MediaType, r.Title, r.Permalink,
		})
	}
	return rows
}

func growthRows(growth []pipeline.GrowthRecord) [][]string {
	if len(growth) == 0 {
		return nil
	}
	rows := [][]string{{
		"workspace", "profile", "platform", "date", "followers", "daily_change", "extracted_at",
	}}
	for _, g := range growth {
		rows = append(rows, []string{
			g.WorkspaceName, g.ProfileName, g.Platform, g.Date,
			itoa(g.Followers), itoa(g.DailyChange), stamp(g.ExtractedAt),
		})
	}
	return rows
}

func cityRows(cities []views.CityRollup) [][]string {
	if len(cities) == 0 {
		return nil
	}
	rows := [][]string{{
		"workspace", "platform", "post_count", "avg_engagement_rate",
		"reach_total", "impressions_total", "generated_at",
	}}
	for _, c := range cities {
		rows = append(rows, []string{
			c.Workspace, c.Platform, itoa(c.Posts), ftoa(c.EngagementRate),
			itoa(c.Reach), itoa(c.Impressions), stamp(c.GeneratedAt),
		})
	}
	return rows
}

func profileRows(profiles []pipeline.ProfileRecord) [][]string {
	if len(profiles) == 0 {
		return nil
	}
	rows := [][]string{{
		"workspace", "profile", "platform", "account_id", "followers",
		"posts", "engagement", "reach", "impressions", "engagement_rate", "extracted_at",
	}}
	for _, p := range profiles {
		rows = append(rows, []string{
			p.WorkspaceName, p.ProfileName, p.Platform, p.AccountID, itoa(p.Followers),
			itoa(p.Posts), itoa(p.Engagement), itoa(p.Reach), itoa(p.Impressions),
			ftoa(p.EngagementRate), stamp(p.ExtractedAt),
		})
	}
	return rows
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}
