package lookup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestResolveTopLevelAliasOrder(t *testing.T) {
	t.Parallel()

	record := decode(t, `{"external_id": "abc", "platformId": "should-not-win"}`)
	got := Resolve(record, []string{"externalId", "external_id", "platformId"}, nil)
	require.Equal(t, "abc", got)
}

func TestResolveSkipsEmptyValues(t *testing.T) {
	t.Parallel()

	record := decode(t, `{"externalId": "", "media": {"externalId": "m-77"}}`)
	got := Resolve(record, []string{"externalId"}, []string{"media"})
	require.Equal(t, "m-77", got)
}

func TestResolveNestedHintBeforeDeepSearch(t *testing.T) {
	t.Parallel()

	record := decode(t, `{
		"media": {"mediaId": "from-media"},
		"something": {"else": {"mediaId": "from-deep"}}
	}`)
	got := Resolve(record, []string{"mediaId"}, []string{"media"})
	require.Equal(t, "from-media", got)
}

func TestResolveDeepSearchWithinMaxDepth(t *testing.T) {
	t.Parallel()

	// Value nested 3 levels under keys the caller never listed.
	record := decode(t, `{"a": {"b": {"c": {"igMediaId": "deep-42"}}}}`)
	got := Resolve(record, []string{"igMediaId"}, []string{"media"})
	require.Equal(t, "deep-42", got)
}

func TestResolveDeepSearchBeyondMaxDepthReturnsNil(t *testing.T) {
	t.Parallel()

	record := decode(t, `{"a": {"b": {"c": {"d": {"e": {"f": {"igMediaId": "too-deep"}}}}}}}`)
	got := Resolve(record, []string{"igMediaId"}, nil)
	require.Nil(t, got)
}

func TestResolveSearchesListElements(t *testing.T) {
	t.Parallel()

	record := decode(t, `{"files": [{"url": ""}, {"url": "https://cdn.example/img.jpg"}]}`)
	got := Resolve(record, []string{"url"}, nil)
	require.Equal(t, "https://cdn.example/img.jpg", got)
}

func TestResolveStringRendersNumericIDs(t *testing.T) {
	t.Parallel()

	record := decode(t, `{"platform_identifier": 17841400000000001}`)
	got := ResolveString(record, []string{"platform_identifier"}, nil)
	require.Equal(t, "17841400000000001", got)
}

func TestResolveNilRecord(t *testing.T) {
	t.Parallel()

	require.Nil(t, Resolve(nil, []string{"anything"}, nil))
}

func TestIntCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want int
	}{
		{"float", float64(42), 42},
		{"int string", "1234", 1234},
		{"thousands separator", "1.234", 1234},
		{"comma separator", "12,345", 12345},
		{"spaces", " 99 ", 99},
		{"garbage", "n/a", 0},
		{"nil", nil, 0},
		{"empty string", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Int(tc.in))
		})
	}
}

func TestIntFromFirstParsableAliasWins(t *testing.T) {
	t.Parallel()

	record := decode(t, `{"likeCount": "n/a", "like_count": 15, "likes": 99}`)
	// likes is listed first and parses, so it wins over the later aliases.
	require.Equal(t, 99, IntFrom(record, []string{"likes", "likeCount", "like_count"}))
	// likeCount fails to parse, resolution falls through to like_count.
	require.Equal(t, 15, IntFrom(record, []string{"likeCount", "like_count"}))
	// A literal zero is a successful parse, not a fall-through.
	zero := decode(t, `{"reach": 0, "reachCount": 500}`)
	require.Equal(t, 0, IntFrom(zero, []string{"reach", "reachCount"}))
}
