// Package mycreator implements the client for the MyCreator private backend
// API: session management with transparent re-authentication, content
// listing and detail calls, social account discovery and analytics fetches.
//
// The upstream API is undocumented and its response shapes drift between
// content types and backend versions, so every fetch decodes into generic
// JSON and resolution of logical fields goes through the lookup package.
package mycreator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/urbsocial/creator-analytics/internal/metrics"
)

const (
	loginPath            = "/backend/auth/login"
	fetchPlansPath       = "/backend/fetchPlans"
	planPreviewPath      = "/backend/plan/preview"
	socialAccountsPath   = "/backend/fetchSocialAccounts"
	plannerAnalyticsPath = "/backend/analytics/campaignLabelAnalytics/getPlannerAnalytics"
	overviewSummaryPath  = "/backend/analytics/overview/getSummary"
	triggerJobPath       = "/backend/api/analytics/triggerJob"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// Config captures everything the client needs to talk to the backend.
type Config struct {
	BaseURL  string
	Cookie   string
	Token    string
	Email    string
	Password string
	Timeout  time.Duration
	// RequestDelay is the courtesy floor between upstream requests. It is a
	// deliberate rate-limiting measure, not tunable down to zero for speed.
	RequestDelay time.Duration
	PostsPerPage int
	Timezone     string
}

// PayloadDumper receives raw response bodies when debug dumps are enabled.
type PayloadDumper interface {
	Dump(ctx context.Context, name string, data []byte)
}

// Client is a session-managing HTTP client for the backend API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	loc     *time.Location
	dumper  PayloadDumper

	mu     sync.Mutex
	cookie string
	token  string
}

// New constructs a Client. Pre-obtained session credentials from cfg are
// seeded immediately; email/password login happens lazily on first use.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
		loc:     loc,
		cookie:  cfg.Cookie,
		token:   normalizeToken(cfg.Token),
	}
}

// SetDumper installs a raw payload dumper. A nil dumper disables dumps.
func (c *Client) SetDumper(d PayloadDumper) {
	c.dumper = d
}

func (c *Client) canAutoLogin() bool {
	return c.cfg.Email != "" && c.cfg.Password != ""
}

// EnsureAuthenticated guarantees the client holds a usable session,
// performing an email/password login when no session token is present.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	c.mu.Lock()
	hasToken := c.token != ""
	c.mu.Unlock()
	if hasToken {
		return nil
	}
	if !c.canAutoLogin() {
		return fmt.Errorf("no session token and no login credentials configured")
	}
	return c.login(ctx)
}

// login performs the email/password login call and captures the bearer
// token and session cookie. The token location in the response has drifted
// across backend versions, so several shapes are probed in order.
func (c *Client) login(ctx context.Context) error {
	payload := map[string]any{
		"email":       c.cfg.Email,
		"password":    c.cfg.Password,
		"remember_me": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.cfg.BaseURL)
	req.Header.Set("Referer", c.cfg.BaseURL+"/login")
	req.Header.Set("User-Agent", browserUserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	metrics.ObserveUpstreamRequest("login", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}

	token := extractToken(raw, resp.Header)
	if token == "" {
		return fmt.Errorf("login succeeded but no token found in response")
	}

	cookie := assembleCookie(resp.Cookies())

	c.mu.Lock()
	c.token = normalizeToken(token)
	if cookie != "" {
		c.cookie = cookie
	}
	c.mu.Unlock()

	c.logger.Info("authenticated with upstream", zap.String("email", c.cfg.Email))
	return nil
}

// extractToken probes the known token locations: flat field, nested under a
// wrapper key, alternate field name, or the Authorization response header.
func extractToken(body []byte, header http.Header) string {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err == nil {
		if tok, ok := data["token"].(string); ok && tok != "" {
			return tok
		}
		if wrapped, ok := data["data"].(map[string]any); ok {
			if tok, ok := wrapped["token"].(string); ok && tok != "" {
				return tok
			}
		}
		if tok, ok := data["access_token"].(string); ok && tok != "" {
			return tok
		}
		if user, ok := data["user"].(map[string]any); ok {
			if tok, ok := user["token"].(string); ok && tok != "" {
				return tok
			}
		}
	}
	return header.Get("Authorization")
}

func assembleCookie(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

func normalizeToken(token string) string {
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "Bearer") {
		return token
	}
	return "Bearer " + token
}

// invalidate drops the current session so the next call re-authenticates.
func (c *Client) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// do issues one authenticated request with pacing. On an authorization
// failure it performs exactly one re-login and one replay when login
// credentials are configured; a second failure is returned to the caller
// unchanged. Callers treat non-200 responses as "no data", never as fatal.
func (c *Client) do(ctx context.Context, endpoint, method, path string, payload any) (int, []byte, error) {
	status, body, err := c.send(ctx, endpoint, method, path, payload)
	if err != nil {
		return 0, nil, err
	}

	if (status == http.StatusUnauthorized || status == http.StatusForbidden) && c.canAutoLogin() {
		c.logger.Warn("authorization failure, re-authenticating once",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
		)
		c.invalidate()
		if loginErr := c.login(ctx); loginErr != nil {
			metrics.ObserveReauth("failed")
			c.logger.Warn("re-authentication failed", zap.Error(loginErr))
			return status, body, nil
		}
		metrics.ObserveReauth("succeeded")
		return c.send(ctx, endpoint, method, path, payload)
	}

	return status, body, nil
}

func (c *Client) send(ctx context.Context, endpoint, method, path string, payload any) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("request pacing wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveUpstreamRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	c.mu.Lock()
	cookie, token := c.cookie, c.token
	c.mu.Unlock()

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.cfg.BaseURL)
	req.Header.Set("Referer", c.cfg.BaseURL+"/planner")
	req.Header.Set("User-Agent", browserUserAgent)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
}

func (c *Client) dump(ctx context.Context, name string, data []byte) {
	if c.dumper == nil {
		return
	}
	c.dumper.Dump(ctx, name, data)
}
