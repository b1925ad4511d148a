package views

import (
	"sort"

	"github.com/urbsocial/creator-analytics/internal/pipeline"
)

// topN is how many posts each metric ranking keeps.
const topN = 20

// Ranking names tagged onto each top-posts row.
const (
	RankingReach       = "reach"
	RankingEngagement  = "engagement"
	RankingImpressions = "impressions"
)

// RankedPost is one row of the top-posts table: the ranking it belongs to,
// the metric value it was ranked by, and the descriptive fields.
type RankedPost struct {
	Ranking     string
	Value       int
	ProfileName string
	PublishedAt string
	MediaType   string
	Title       string
	Permalink   string
}

// BuildTopPosts produces the concatenated top-posts table: the top 20 by
// reach, then by summed engagement, then by impressions, each row tagged
// with its ranking. A post strong on several metrics appears once per
// ranking; there is no deduplication across rankings.
func BuildTopPosts(posts []pipeline.PostRecord) []RankedPost {
	out := make([]RankedPost, 0, 3*topN)
	out = append(out, rankBy(posts, RankingReach, func(p pipeline.PostRecord) int { return p.Reach })...)
	out = append(out, rankBy(posts, RankingEngagement, func(p pipeline.PostRecord) int { return p.EngagementTotal() })...)
	out = append(out, rankBy(posts, RankingImpressions, func(p pipeline.PostRecord) int { return p.Impressions })...)
	return out
}

func rankBy(posts []pipeline.PostRecord, name string, metric func(pipeline.PostRecord) int) []RankedPost {
	sorted := make([]pipeline.PostRecord, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool { return metric(sorted[i]) > metric(sorted[j]) })

	n := topN
	if len(sorted) < n {
		n = len(sorted)
	}
	out := make([]RankedPost, 0, n)
	for _, p := range sorted[:n] {
		out = append(out, RankedPost{
			Ranking:     name,
			Value:       metric(p),
			ProfileName: p.ProfileName,
			PublishedAt: p.PublishedAt,
			MediaType:   p.MediaType,
			Title:       p.Title,
			Permalink:   p.Permalink,
		})
	}
	return out
}
