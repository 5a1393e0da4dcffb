package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jundoHeo/vikunja-mcp/internal/aorp"
	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/refcache"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
)

// WebhookAPI is the slice of the upstream client the webhooks tool needs.
type WebhookAPI interface {
	ListWebhooks(ctx context.Context, projectID int64) ([]any, error)
	CreateWebhook(ctx context.Context, projectID int64, payload map[string]any) (any, error)
	UpdateWebhook(ctx context.Context, projectID, webhookID int64, events []string) (any, error)
	DeleteWebhook(ctx context.Context, projectID, webhookID int64) error
}

var webhookActions = []string{"list", "create", "update", "delete", "list-events"}

// WebhooksTool manages project webhooks. Requested event names are
// validated against the resilient reference cache before any write
// reaches the upstream API.
type WebhooksTool struct {
	api      WebhookAPI
	sessions session.Provider
	events   *refcache.EventCache
}

func NewWebhooksTool(api WebhookAPI, sessions session.Provider, events *refcache.EventCache) *WebhooksTool {
	return &WebhooksTool{api: api, sessions: sessions, events: events}
}

func (t *WebhooksTool) Name() string { return "vikunja_webhooks" }

func (t *WebhooksTool) Description() string {
	return "Manage Vikunja project webhooks: list, create, update, delete, list-events"
}

func (t *WebhooksTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["list", "create", "update", "delete", "list-events"]},
			"projectId": {"type": "number", "description": "Project id (list, create, update, delete)"},
			"webhookId": {"type": "number", "description": "Webhook id (update, delete)"},
			"targetUrl": {"type": "string", "description": "Webhook target URL (create)"},
			"events": {"type": "array", "items": {"type": "string"}, "description": "Subscribed events; defaults to all available (create)"},
			"secret": {"type": "string", "description": "HMAC secret for payload signing (optional, create)"}
		},
		"required": ["action"]
	}`)
}

type webhookArgs struct {
	Action    string   `json:"action"`
	ProjectID any      `json:"projectId"`
	WebhookID any      `json:"webhookId"`
	TargetURL string   `json:"targetUrl"`
	Events    []string `json:"events"`
	Secret    string   `json:"secret"`
}

func (t *WebhooksTool) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var args webhookArgs
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, apierr.Newf(apierr.InvalidPayload, "vikunja_webhooks: malformed arguments: %v", err)
		}
	}

	if err := requireAuth(t.sessions, "webhooks."+args.Action); err != nil {
		return nil, err
	}

	switch args.Action {
	case "list":
		return t.list(ctx, args)
	case "create":
		return t.create(ctx, args)
	case "update":
		return t.update(ctx, args)
	case "delete":
		return t.delete(ctx, args)
	case "list-events":
		return t.listEvents(ctx)
	default:
		return nil, unknownAction("vikunja_webhooks", args.Action, webhookActions)
	}
}

func (t *WebhooksTool) list(ctx context.Context, args webhookArgs) (json.RawMessage, error) {
	projectID, err := parseID(args.ProjectID, "projectId", "webhooks.list")
	if err != nil {
		return nil, err
	}
	hooks, err := t.api.ListWebhooks(ctx, projectID)
	if err != nil {
		return nil, apierr.Wrap(err, "webhooks.list", projectID)
	}
	return textContent(aorp.Build("webhooks.list",
		fmt.Sprintf("Retrieved %d webhooks for project %d", len(hooks), projectID),
		hooks, map[string]any{"count": len(hooks), "projectId": projectID}))
}

func (t *WebhooksTool) create(ctx context.Context, args webhookArgs) (json.RawMessage, error) {
	projectID, err := parseID(args.ProjectID, "projectId", "webhooks.create")
	if err != nil {
		return nil, err
	}
	if err := requireString(args.TargetURL, "targetUrl", "webhooks.create"); err != nil {
		return nil, err
	}

	// Validate against the reference set before any write. An empty
	// events argument subscribes to everything currently available.
	valid := t.events.Get(ctx)
	events := args.Events
	if len(events) == 0 {
		events = valid
	} else if err := refcache.ValidateEvents(events, valid); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"target_url": args.TargetURL,
		"events":     events,
	}
	if args.Secret != "" {
		payload["secret"] = args.Secret
	}

	hook, err := t.api.CreateWebhook(ctx, projectID, payload)
	if err != nil {
		return nil, apierr.WrapAuth(err, "webhooks.create")
	}
	return textContent(aorp.Build("webhooks.create",
		fmt.Sprintf("Created webhook for project %d with %d events", projectID, len(events)),
		hook, map[string]any{"projectId": projectID, "events": events}))
}

func (t *WebhooksTool) update(ctx context.Context, args webhookArgs) (json.RawMessage, error) {
	projectID, err := parseID(args.ProjectID, "projectId", "webhooks.update")
	if err != nil {
		return nil, err
	}
	webhookID, err := parseID(args.WebhookID, "webhookId", "webhooks.update")
	if err != nil {
		return nil, err
	}
	if len(args.Events) == 0 {
		return nil, apierr.New(apierr.ValidationError, "webhooks.update: events is required")
	}
	if err := refcache.ValidateEvents(args.Events, t.events.Get(ctx)); err != nil {
		return nil, err
	}

	hook, err := t.api.UpdateWebhook(ctx, projectID, webhookID, args.Events)
	if err != nil {
		return nil, apierr.WrapAuth(err, "webhooks.update")
	}
	return textContent(aorp.Build("webhooks.update",
		fmt.Sprintf("Updated webhook %d on project %d", webhookID, projectID),
		hook, map[string]any{"projectId": projectID, "entityId": webhookID, "events": args.Events}))
}

func (t *WebhooksTool) delete(ctx context.Context, args webhookArgs) (json.RawMessage, error) {
	projectID, err := parseID(args.ProjectID, "projectId", "webhooks.delete")
	if err != nil {
		return nil, err
	}
	webhookID, err := parseID(args.WebhookID, "webhookId", "webhooks.delete")
	if err != nil {
		return nil, err
	}
	if err := t.api.DeleteWebhook(ctx, projectID, webhookID); err != nil {
		return nil, apierr.Wrap(err, "webhooks.delete", webhookID)
	}
	return textContent(aorp.Build("webhooks.delete",
		fmt.Sprintf("Deleted webhook %d from project %d", webhookID, projectID),
		nil, map[string]any{"projectId": projectID, "entityId": webhookID}))
}

// listEvents surfaces the reference set itself. Never fails: the cache
// degrades to stale or default data instead of erroring.
func (t *WebhooksTool) listEvents(ctx context.Context) (json.RawMessage, error) {
	events := t.events.Get(ctx)
	return textContent(aorp.Build("webhooks.list-events",
		fmt.Sprintf("%d webhook events available", len(events)),
		events, map[string]any{"count": len(events)}))
}
