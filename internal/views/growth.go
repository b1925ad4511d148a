package views

import (
	"github.com/urbsocial/creator-analytics/internal/pipeline"
)

// CleanFollowerGrowth applies the follower-series cleanup rules: days
// without follower data are dropped, and the first remaining day of each
// account gets a zero daily change. A series' first diff is the follower
// total, not a real variation, and would spike any growth chart.
func CleanFollowerGrowth(records []pipeline.GrowthRecord) []pipeline.GrowthRecord {
	out := make([]pipeline.GrowthRecord, 0, len(records))
	seen := make(map[string]bool)
	for _, r := range records {
		if r.Followers <= 0 {
			continue
		}
		if !seen[r.AccountID] {
			seen[r.AccountID] = true
			r.DailyChange = 0
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
