package mycreator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummariesFromResponseShapes(t *testing.T) {
	t.Parallel()

	item := map[string]any{"_id": "p1"}

	cases := []struct {
		name string
		data map[string]any
		want int
	}{
		{"plans array", map[string]any{"plans": []any{item}}, 1},
		{"data array", map[string]any{"data": []any{item, item}}, 2},
		{"paginator", map[string]any{"plans": map[string]any{"data": []any{item}}}, 1},
		{"unknown wrapper", map[string]any{"stuff": []any{item}}, 0},
		{"empty", map[string]any{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Len(t, summariesFromResponse(tc.data), tc.want)
		})
	}
}

func TestListContentDegradesOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	require.Nil(t, c.ListContent(context.Background(), "ws1"))
}

func TestListContentSendsPublishedFilter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "ws1", payload["workspace_id"])
		require.Equal(t, []any{"published"}, payload["statuses"])
		require.Equal(t, float64(40), payload["limit"])
		_ = json.NewEncoder(w).Encode(map[string]any{"plans": []any{map[string]any{"_id": "p1"}}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	got := c.ListContent(context.Background(), "ws1")
	require.Len(t, got, 1)
}

func TestGetDetailUnwrapsPlan(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "p1", r.URL.Query().Get("id"))
		require.Equal(t, "ws1", r.URL.Query().Get("workspace_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"plan": map[string]any{"_id": "p1", "title": "Launch day"},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	detail := c.GetDetail(context.Background(), "p1", "ws1")
	require.NotNil(t, detail)
	require.Equal(t, "p1", detail.InternalID())
	require.Equal(t, "Launch day", detail.Title())
}

func TestGetDetailNilOnNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	require.Nil(t, c.GetDetail(context.Background(), "missing", "ws1"))
}

func TestContentDetailAccessors(t *testing.T) {
	t.Parallel()

	detail := ContentDetail{
		"_id": "p1",
		"common_sharing_details": map[string]any{
			"message": "Great day! #sunset",
		},
		"execution_time": map[string]any{
			"date": "2026-08-15 10:30:00",
		},
		"media": map[string]any{
			"media_url": "https://cdn.example.com/a.jpg",
		},
	}

	require.Equal(t, "Great day! #sunset", detail.Caption())
	require.Equal(t, "2026-08-15 10:30:00", detail.PublishedAt())
	require.Equal(t, "https://cdn.example.com/a.jpg", detail.MediaURL())
}

func TestPostingsResolveAliases(t *testing.T) {
	t.Parallel()

	detail := ContentDetail{
		"posting": []any{
			map[string]any{
				"posted_id":           "ext-1",
				"platform_type":       "instagram",
				"published_post_type": "REEL",
				"platform_id":         "17841400000000000",
				"link":                "https://instagram.com/p/x",
			},
			map[string]any{
				"external_id": "ext-2",
				"platform":    "facebook",
				"type":        "IMAGE",
				"account_id":  "111",
				"permalink":   "https://facebook.com/x",
			},
		},
	}

	entries := detail.Postings()
	require.Len(t, entries, 2)
	require.Equal(t, PostingEntry{
		PostedID:  "ext-1",
		Platform:  "instagram",
		PostType:  "REEL",
		AccountID: "17841400000000000",
		Permalink: "https://instagram.com/p/x",
	}, entries[0])
	require.Equal(t, "ext-2", entries[1].PostedID)
	require.Equal(t, "facebook", entries[1].Platform)
	require.Equal(t, "111", entries[1].AccountID)
}

func TestPostingsMissingSection(t *testing.T) {
	t.Parallel()

	require.Nil(t, ContentDetail{"_id": "p1"}.Postings())
}

func TestFetchSocialAccountsParsesPlatformGroups(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"instagram": map[string]any{
				"accounts": []any{
					map[string]any{"_id": "in1", "instagram_id": "178414", "name": "studio.ig"},
				},
			},
			"facebook": map[string]any{
				"accounts": []any{
					map[string]any{"_id": "in2", "facebook_id": "111", "name": "studio.fb"},
				},
			},
			"status": true,
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	accounts := c.FetchSocialAccounts(context.Background(), "ws1")
	require.Len(t, accounts, 2)

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Platform < accounts[j].Platform })
	require.Equal(t, SocialAccount{Platform: "facebook", InternalID: "in2", AccountID: "111", Name: "studio.fb"}, accounts[0])
	require.Equal(t, SocialAccount{Platform: "instagram", InternalID: "in1", AccountID: "178414", Name: "studio.ig"}, accounts[1])
}

func TestTriggerAnalyticsSync(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "in1", payload["account_id"])
		require.Equal(t, "instagram", payload["platform"])
		_ = json.NewEncoder(w).Encode(map[string]any{"status": true})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	ok := c.TriggerAnalyticsSync(context.Background(), "ws1", SocialAccount{
		Platform: "instagram", InternalID: "in1", AccountID: "178414", Name: "studio.ig",
	})
	require.True(t, ok)
}

func TestTriggerAnalyticsSyncRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	require.False(t, c.TriggerAnalyticsSync(context.Background(), "ws1", SocialAccount{Platform: "instagram"}))
}
