// Package views computes the derived aggregate tables from a completed set
// of normalized post records: media-type standardization, hashtag rollups,
// top-post rankings and the per-workspace monitoring rollup. Everything here
// is a pure function over the record set, recomputed every run.
package views

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/urbsocial/creator-analytics/internal/pipeline"
)

// Standardized media-type categories.
const (
	MediaReels    = "Reels"
	MediaCarousel = "Carousel"
	MediaImage    = "Image"
	MediaOther    = "Other"
)

var (
	videoTypes    = map[string]bool{"REEL": true, "REELS": true, "VIDEO": true}
	carouselTypes = map[string]bool{"CAROUSEL": true, "CAROUSEL_ALBUM": true}
	imageTypes    = map[string]bool{"IMAGE": true, "PHOTO": true}
)

// StandardizeMediaType maps the upstream post-type and analytics media-type
// fields to one standardized category. The post type is classified first;
// the analytics media type is consulted only when the post type carries a
// placement (FEED, STORY) or nothing recognizable. A record never falls out
// of the closed set: unclassifiable means Other.
func StandardizeMediaType(postType, mediaType string) string {
	if c := classifyMediaToken(postType); c != "" {
		return c
	}
	if c := classifyMediaToken(mediaType); c != "" {
		return c
	}
	return MediaOther
}

func classifyMediaToken(token string) string {
	t := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case videoTypes[t]:
		return MediaReels
	case carouselTypes[t]:
		return MediaCarousel
	case imageTypes[t]:
		return MediaImage
	default:
		return ""
	}
}

// StandardizeAll rewrites MediaType on every record to its standardized
// category. The pipeline runs this before any other view is built so all
// downstream tables agree on the categories.
func StandardizeAll(posts []pipeline.PostRecord) {
	for i := range posts {
		posts[i].MediaType = StandardizeMediaType(posts[i].PostType, posts[i].MediaType)
	}
}

// CityRollup is one row of the monitoring table: post volume and aggregate
// performance per (workspace, platform) pair.
type CityRollup struct {
	Workspace      string
	Platform       string
	Posts          int
	EngagementRate float64
	Reach          int
	Impressions    int
	GeneratedAt    time.Time
}

// BuildCityRollup groups records by workspace and platform. The engagement
// rate is the mean of the per-post rates, rounded to 2 decimals. Rows come
// back sorted by workspace then platform.
func BuildCityRollup(posts []pipeline.PostRecord, now time.Time) []CityRollup {
	type key struct{ workspace, platform string }

	groups := make(map[key]*CityRollup)
	rates := make(map[key]float64)
	for _, p := range posts {
		k := key{p.WorkspaceName, p.Platform}
		row, ok := groups[k]
		if !ok {
			row = &CityRollup{Workspace: p.WorkspaceName, Platform: p.Platform, GeneratedAt: now}
			groups[k] = row
		}
		row.Posts++
		row.Reach += p.Reach
		row.Impressions += p.Impressions
		rates[k] += p.EngagementRate
	}

	out := make([]CityRollup, 0, len(groups))
	for k, row := range groups {
		row.EngagementRate = math.Round(rates[k]/float64(row.Posts)*100) / 100
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Workspace != out[j].Workspace {
			return out[i].Workspace < out[j].Workspace
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}
