package mycreator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/lookup"
)

// ContentSummary is the raw, partially typed record returned by the listing
// call. Only the internal identifier is guaranteed.
type ContentSummary map[string]any

// ID resolves the internal plan identifier.
func (s ContentSummary) ID() string {
	return lookup.ResolveString(s, []string{"_id", "id", "planId", "plan_id"}, nil)
}

// ContentDetail is the full plan record returned by the preview call.
type ContentDetail map[string]any

// PostingEntry is one network-specific publication of a content item.
// AccountID is the mandatory join key for analytics; entries without it get
// an explicit error marker downstream, never a silent zero.
type PostingEntry struct {
	PostedID  string
	Platform  string
	PostType  string
	MediaType string
	AccountID string
	Permalink string
}

// ListContent retrieves one page of published content summaries for the
// workspace. Failures degrade to an empty slice: the pipeline extracts zero
// items for this workspace and moves on.
func (c *Client) ListContent(ctx context.Context, workspaceID string) []ContentSummary {
	payload := map[string]any{
		"workspace_id":       workspaceID,
		"limit":              c.cfg.PostsPerPage,
		"page":               1,
		"statuses":           []string{"published"},
		"order_by":           "created_at",
		"order_direction":    "desc",
		"route_name":         "list_plans",
		"source":             "web",
		"specific_plans":     []string{},
		"labels":             []string{},
		"content_categories": []string{},
		"automations":        []string{},
		"blog_selection":     map[string]any{},
		"social_selection":   map[string]any{},
		"created_by_members": []string{},
		"members":            []string{},
		"platformSelection":  []string{},
		"type":               []string{},
		"no_social_account":  false,
		"csv_id":             "",
		"date_range":         "",
	}

	status, body, err := c.do(ctx, "fetchPlans", http.MethodPost, fetchPlansPath, payload)
	if err != nil {
		c.logger.Warn("list content failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("list content returned non-200",
			zap.String("workspace_id", workspaceID),
			zap.Int("status", status),
		)
		return nil
	}

	c.dump(ctx, fmt.Sprintf("fetch_plans_%s.json", workspaceID), body)

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Warn("list content decode failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return nil
	}
	return summariesFromResponse(data)
}

// summariesFromResponse tolerates the known listing shapes: a bare array
// under one of several wrapper keys, or a paginator object with a "data"
// array inside the wrapper.
func summariesFromResponse(data map[string]any) []ContentSummary {
	for _, key := range []string{"plans", "data", "posts", "items", "results"} {
		wrapped, ok := data[key]
		if !ok {
			continue
		}
		if list, ok := wrapped.([]any); ok {
			return toSummaries(list)
		}
		if paginator, ok := wrapped.(map[string]any); ok {
			if list, ok := paginator["data"].([]any); ok {
				return toSummaries(list)
			}
		}
	}
	return nil
}

func toSummaries(list []any) []ContentSummary {
	out := make([]ContentSummary, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, ContentSummary(m))
		}
	}
	return out
}

// GetDetail retrieves the full plan record. It returns nil on any HTTP or
// decode failure; callers skip the item rather than aborting the run.
func (c *Client) GetDetail(ctx context.Context, contentID, workspaceID string) ContentDetail {
	q := url.Values{}
	q.Set("id", contentID)
	q.Set("workspace_id", workspaceID)

	status, body, err := c.do(ctx, "planPreview", http.MethodGet, planPreviewPath+"?"+q.Encode(), nil)
	if err != nil {
		c.logger.Warn("detail fetch failed", zap.String("content_id", contentID), zap.Error(err))
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("detail fetch returned non-200",
			zap.String("content_id", contentID),
			zap.Int("status", status),
		)
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Warn("detail decode failed", zap.String("content_id", contentID), zap.Error(err))
		return nil
	}
	if plan, ok := data["plan"].(map[string]any); ok {
		return ContentDetail(plan)
	}
	return ContentDetail(data)
}

// InternalID resolves the plan's internal identifier.
func (d ContentDetail) InternalID() string {
	return lookup.ResolveString(d, []string{"_id", "id", "planId", "plan_id"}, nil)
}

// Title resolves the shared post title.
func (d ContentDetail) Title() string {
	return lookup.ResolveString(d,
		[]string{"title", "name"},
		[]string{"common_sharing_details", "commonSharingDetails"},
	)
}

// Caption resolves the shared caption/message text.
func (d ContentDetail) Caption() string {
	return lookup.ResolveString(d,
		[]string{"message", "caption", "description", "content"},
		[]string{"common_sharing_details", "commonSharingDetails"},
	)
}

// PublishedAt resolves the execution/publication timestamp.
func (d ContentDetail) PublishedAt() string {
	return lookup.ResolveString(d,
		[]string{"date", "publishedAt", "published_at", "createdAt", "created_at"},
		[]string{"execution_time", "executionTime"},
	)
}

// MediaURL resolves the primary media asset URL.
func (d ContentDetail) MediaURL() string {
	return lookup.ResolveString(d,
		[]string{"mediaUrl", "media_url", "imageUrl", "image_url", "thumbnailUrl", "thumbnail_url", "url"},
		[]string{"media", "image", "video"},
	)
}

// Postings returns one entry per target network/account the content was
// published to. Field names inside posting entries vary, so each logical
// field probes its alias list.
func (d ContentDetail) Postings() []PostingEntry {
	raw, ok := d["posting"].([]any)
	if !ok {
		return nil
	}
	entries := make([]PostingEntry, 0, len(raw))
	for _, item := range raw {
		p, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, PostingEntry{
			PostedID:  lookup.ResolveString(p, []string{"posted_id", "postedId", "external_id", "externalId"}, nil),
			Platform:  lookup.ResolveString(p, []string{"platform_type", "platformType", "platform"}, nil),
			PostType:  lookup.ResolveString(p, []string{"published_post_type", "post_type", "postType", "type"}, nil),
			MediaType: lookup.ResolveString(p, []string{"media_type", "mediaType"}, nil),
			AccountID: lookup.ResolveString(p, []string{"platform_id", "platformId", "account_id", "accountId"}, nil),
			Permalink: lookup.ResolveString(p, []string{"link", "permalink", "url"}, nil),
		})
	}
	return entries
}
