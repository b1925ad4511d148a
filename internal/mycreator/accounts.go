package mycreator

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/lookup"
)

// SocialAccount is one platform account connected to a workspace.
type SocialAccount struct {
	Platform   string
	InternalID string
	AccountID  string
	Name       string
}

// FetchSocialAccounts discovers the platform accounts connected to the
// workspace. The response groups accounts per platform; the platform-scoped
// account identifier appears under several names depending on backend
// version, probed in order. Failures degrade to an empty slice.
func (c *Client) FetchSocialAccounts(ctx context.Context, workspaceID string) []SocialAccount {
	payload := map[string]any{"workspace_id": workspaceID}

	status, body, err := c.do(ctx, "fetchSocialAccounts", http.MethodPost, socialAccountsPath, payload)
	if err != nil {
		c.logger.Warn("fetch social accounts failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("fetch social accounts returned non-200",
			zap.String("workspace_id", workspaceID),
			zap.Int("status", status),
		)
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Warn("social accounts decode failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return nil
	}

	var out []SocialAccount
	for platform, section := range data {
		group, ok := section.(map[string]any)
		if !ok {
			continue
		}
		accounts, ok := group["accounts"].([]any)
		if !ok {
			continue
		}
		for _, item := range accounts {
			acc, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, SocialAccount{
				Platform:   platform,
				InternalID: lookup.ResolveString(acc, []string{"_id", "id"}, nil),
				AccountID: lookup.ResolveString(acc,
					[]string{"platform_identifier", "instagram_id", "facebook_id", "platform_id", "_id"}, nil),
				Name: lookup.ResolveString(acc, []string{"name", "username", "title"}, nil),
			})
		}
	}
	return out
}

// TriggerAnalyticsSync asks the backend to refresh analytics for one
// account. Used by the sync command before a full extraction run.
func (c *Client) TriggerAnalyticsSync(ctx context.Context, workspaceID string, account SocialAccount) bool {
	payload := map[string]any{
		"workspace_id": workspaceID,
		"account_id":   account.InternalID,
		"platform":     account.Platform,
	}

	status, body, err := c.do(ctx, "triggerJob", http.MethodPost, triggerJobPath, payload)
	if err != nil {
		c.logger.Warn("trigger sync failed", zap.String("account", account.Name), zap.Error(err))
		return false
	}
	if status != http.StatusOK {
		c.logger.Warn("trigger sync returned non-200",
			zap.String("account", account.Name),
			zap.Int("status", status),
		)
		return false
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("trigger sync returned invalid JSON", zap.String("account", account.Name))
		return false
	}
	ok, _ := resp["status"].(bool)
	if !ok {
		c.logger.Warn("trigger sync rejected by backend", zap.String("account", account.Name))
	}
	return ok
}
