package mycreator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/metrics"
)

func testClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	metrics.Init()
	cfg := Config{
		BaseURL:      baseURL,
		Cookie:       "session=abc",
		Token:        "tok-123",
		PostsPerPage: 40,
		Timezone:     "America/Sao_Paulo",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, zap.NewNop())
}

func TestNormalizeToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Bearer abc", normalizeToken("abc"))
	require.Equal(t, "Bearer abc", normalizeToken("Bearer abc"))
	require.Equal(t, "", normalizeToken(""))
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"flat", `{"token":"t1"}`, "t1"},
		{"wrapped", `{"data":{"token":"t2"}}`, "t2"},
		{"access_token", `{"access_token":"t3"}`, "t3"},
		{"user", `{"user":{"token":"t4"}}`, "t4"},
		{"none", `{"status":true}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := extractToken([]byte(tc.body), http.Header{})
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set("Authorization", "Bearer hdr")
	got := extractToken([]byte(`{}`), header)
	require.Equal(t, "Bearer hdr", got)
}

func TestDoReauthenticatesExactlyOnce(t *testing.T) {
	t.Parallel()

	var logins, fetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "fresh"})
	})
	mux.HandleFunc(fetchPlansPath, func(w http.ResponseWriter, r *http.Request) {
		n := fetches.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"plans": []any{map[string]any{"_id": "p1"}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *Config) {
		cfg.Email = "ops@example.com"
		cfg.Password = "secret"
		cfg.Token = "stale"
	})

	got := c.ListContent(context.Background(), "ws1")
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].ID())
	require.Equal(t, int64(1), logins.Load())
	require.Equal(t, int64(2), fetches.Load())
}

func TestDoReturnsFailureWhenReauthKeepsFailing(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "fresh"})
	})
	mux.HandleFunc(fetchPlansPath, func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *Config) {
		cfg.Email = "ops@example.com"
		cfg.Password = "secret"
	})

	got := c.ListContent(context.Background(), "ws1")
	require.Nil(t, got)
	// One original attempt plus exactly one replay, never a retry loop.
	require.Equal(t, int64(2), fetches.Load())
}

func TestDoWithoutCredentialsNeverReauthenticates(t *testing.T) {
	t.Parallel()

	var logins atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
	})
	mux.HandleFunc(fetchPlansPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL, nil)

	got := c.ListContent(context.Background(), "ws1")
	require.Nil(t, got)
	require.Equal(t, int64(0), logins.Load())
}

func TestEnsureAuthenticatedLogsInLazily(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, loginPath, r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "ops@example.com", payload["email"])
		require.Equal(t, true, payload["remember_me"])
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"token": "t"}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, func(cfg *Config) {
		cfg.Token = ""
		cfg.Cookie = ""
		cfg.Email = "ops@example.com"
		cfg.Password = "secret"
	})

	require.NoError(t, c.EnsureAuthenticated(context.Background()))

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Equal(t, "Bearer t", c.token)
}

func TestEnsureAuthenticatedFailsWithoutAnyCredentials(t *testing.T) {
	t.Parallel()

	c := testClient(t, "http://unused.invalid", func(cfg *Config) {
		cfg.Token = ""
		cfg.Cookie = ""
	})
	require.Error(t, c.EnsureAuthenticated(context.Background()))
}

func TestSendAttachesSessionHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "session=abc", r.Header.Get("Cookie"))
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, browserUserAgent, r.Header.Get("User-Agent"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]any{"plans": []any{}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	status, _, err := c.send(context.Background(), "fetchPlans", http.MethodPost, fetchPlansPath, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
}
