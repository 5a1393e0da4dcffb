package vikunja

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Labels

func (c *Client) ListLabels(ctx context.Context) ([]any, error) {
	v, err := c.do(ctx, http.MethodGet, "/labels", nil)
	if err != nil {
		return nil, err
	}
	return asList(v), nil
}

func (c *Client) GetLabel(ctx context.Context, id int64) (any, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/labels/%d", id), nil)
}

// CreateLabel creates a label. Vikunja uses PUT for creation.
func (c *Client) CreateLabel(ctx context.Context, payload map[string]any) (any, error) {
	return c.do(ctx, http.MethodPut, "/labels", payload)
}

func (c *Client) UpdateLabel(ctx context.Context, id int64, payload map[string]any) (any, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/labels/%d", id), payload)
}

func (c *Client) DeleteLabel(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/labels/%d", id), nil)
	return err
}

// Teams

func (c *Client) ListTeams(ctx context.Context) ([]any, error) {
	v, err := c.do(ctx, http.MethodGet, "/teams", nil)
	if err != nil {
		return nil, err
	}
	return asList(v), nil
}

func (c *Client) CreateTeam(ctx context.Context, payload map[string]any) (any, error) {
	return c.do(ctx, http.MethodPut, "/teams", payload)
}

func (c *Client) UpdateTeam(ctx context.Context, id int64, payload map[string]any) (any, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/teams/%d", id), payload)
}

// DeleteTeam deletes a team. Some Vikunja versions respond 405 on the
// documented route; those are retried through the raw primitive against
// the legacy path before giving up.
func (c *Client) DeleteTeam(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/teams/%d", id), nil)
	if err == nil {
		return nil
	}
	he, ok := err.(*HTTPError)
	if !ok || he.Status != http.StatusMethodNotAllowed {
		return err
	}

	status, body, rawErr := c.DoRaw(ctx, http.MethodDelete, fmt.Sprintf("/teams/%d/delete", id), nil)
	if rawErr != nil {
		return rawErr
	}
	if status < 200 || status > 299 {
		return &HTTPError{Status: status, Message: upstreamMessage(body)}
	}
	return nil
}

// Users

// SearchUsers finds users by name or username fragment. Requires JWT
// auth on most instances; the caller enforces that precondition.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]any, error) {
	v, err := c.do(ctx, http.MethodGet, "/users?s="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	return asList(v), nil
}

func (c *Client) CurrentUser(ctx context.Context) (any, error) {
	return c.do(ctx, http.MethodGet, "/user", nil)
}

// Webhooks

func (c *Client) ListWebhooks(ctx context.Context, projectID int64) ([]any, error) {
	v, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/webhooks", projectID), nil)
	if err != nil {
		return nil, err
	}
	return asList(v), nil
}

func (c *Client) CreateWebhook(ctx context.Context, projectID int64, payload map[string]any) (any, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/projects/%d/webhooks", projectID), payload)
}

// UpdateWebhook changes the subscribed events of a webhook; the target
// URL is immutable upstream.
func (c *Client) UpdateWebhook(ctx context.Context, projectID, webhookID int64, events []string) (any, error) {
	return c.do(ctx, http.MethodPost,
		fmt.Sprintf("/projects/%d/webhooks/%d", projectID, webhookID),
		map[string]any{"events": events})
}

func (c *Client) DeleteWebhook(ctx context.Context, projectID, webhookID int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d/webhooks/%d", projectID, webhookID), nil)
	return err
}

// AvailableWebhookEvents lists the event names this instance supports.
// The endpoint is a webhook sub-resource the typed surface otherwise
// does not cover; failures keep their HTTP status so the reference
// cache can tell "absent" from "broken".
func (c *Client) AvailableWebhookEvents(ctx context.Context) ([]string, error) {
	v, err := c.do(ctx, http.MethodGet, "/webhooks/events", nil)
	if err != nil {
		return nil, err
	}

	var events []string
	for _, item := range asList(v) {
		if s, ok := item.(string); ok {
			events = append(events, s)
		}
	}
	return events, nil
}
