package pipeline

import (
	"strings"
	"time"
)

// maxCaptionLength bounds caption text before it reaches the sink.
const maxCaptionLength = 500

// CleanText strips control characters and collapses all whitespace runs
// into single spaces.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 32 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanCaption cleans and truncates caption text to the sink-safe length,
// marking the cut with an ellipsis.
func CleanCaption(text string) string {
	cleaned := CleanText(text)
	runes := []rune(cleaned)
	if len(runes) <= maxCaptionLength {
		return cleaned
	}
	return string(runes[:maxCaptionLength-3]) + "..."
}

// publishedAtFormats lists the timestamp shapes seen in upstream payloads,
// probed in order.
var publishedAtFormats = []string{
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// NormalizeDate renders an upstream timestamp string as YYYY-MM-DD. An
// unparsable value falls back to its leading date-looking token, or comes
// back unchanged so no information is dropped.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range publishedAtFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	head := value
	if i := strings.IndexAny(head, "T "); i > 0 {
		head = head[:i]
	}
	if len(head) == 10 && strings.Count(head, "-") == 2 {
		return head
	}
	return value
}
