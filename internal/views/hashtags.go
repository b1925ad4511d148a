package views

import (
	"regexp"
	"sort"

	"github.com/urbsocial/creator-analytics/internal/pipeline"
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags returns the hashtag tokens in a caption, case-preserving,
// one entry per use.
func ExtractHashtags(caption string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// HashtagRollup aggregates every use of one hashtag across the record set.
type HashtagRollup struct {
	Tag         string
	Uses        int
	Likes       int
	Comments    int
	Saves       int
	Shares      int
	Reach       int
	Impressions int
	Engagement  int
}

// BuildHashtagRollup explodes captions one row per hashtag use and
// aggregates usage counts and summed metrics per tag. A caption repeating a
// tag counts each use. Rows are sorted by usage descending, tag ascending
// on ties so the output is stable.
func BuildHashtagRollup(posts []pipeline.PostRecord) []HashtagRollup {
	groups := make(map[string]*HashtagRollup)
	for _, p := range posts {
		for _, tag := range ExtractHashtags(p.Caption) {
			row, ok := groups[tag]
			if !ok {
				row = &HashtagRollup{Tag: tag}
				groups[tag] = row
			}
			row.Uses++
			row.Likes += p.Likes
			row.Comments += p.Comments
			row.Saves += p.Saves
			row.Shares += p.Shares
			row.Reach += p.Reach
			row.Impressions += p.Impressions
		}
	}

	out := make([]HashtagRollup, 0, len(groups))
	for _, row := range groups {
		row.Engagement = row.Likes + row.Comments + row.Saves + row.Shares
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Uses != out[j].Uses {
			return out[i].Uses > out[j].Uses
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
