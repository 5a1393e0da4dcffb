package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jundoHeo/vikunja-mcp/internal/aorp"
	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
)

// LabelAPI is the slice of the upstream client the labels tool needs.
type LabelAPI interface {
	ListLabels(ctx context.Context) ([]any, error)
	GetLabel(ctx context.Context, id int64) (any, error)
	CreateLabel(ctx context.Context, payload map[string]any) (any, error)
	UpdateLabel(ctx context.Context, id int64, payload map[string]any) (any, error)
	DeleteLabel(ctx context.Context, id int64) error
}

var labelActions = []string{"list", "get", "create", "update", "delete"}

// LabelsTool manages Vikunja labels.
type LabelsTool struct {
	api      LabelAPI
	sessions session.Provider
}

func NewLabelsTool(api LabelAPI, sessions session.Provider) *LabelsTool {
	return &LabelsTool{api: api, sessions: sessions}
}

func (t *LabelsTool) Name() string { return "vikunja_labels" }

func (t *LabelsTool) Description() string {
	return "Manage Vikunja labels: list, get, create, update, delete"
}

func (t *LabelsTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["list", "get", "create", "update", "delete"]},
			"id": {"type": "number", "description": "Label id (get, update, delete)"},
			"title": {"type": "string", "description": "Label title (create, update)"},
			"hexColor": {"type": "string", "description": "Label color without leading # (optional)"},
			"description": {"type": "string", "description": "Label description (optional)"}
		},
		"required": ["action"]
	}`)
}

type labelArgs struct {
	Action      string `json:"action"`
	ID          any    `json:"id"`
	Title       string `json:"title"`
	HexColor    string `json:"hexColor"`
	Description string `json:"description"`
}

func (t *LabelsTool) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var args labelArgs
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, apierr.Newf(apierr.InvalidPayload, "vikunja_labels: malformed arguments: %v", err)
		}
	}

	if err := requireAuth(t.sessions, "labels."+args.Action); err != nil {
		return nil, err
	}

	switch args.Action {
	case "list":
		return t.list(ctx)
	case "get":
		return t.get(ctx, args)
	case "create":
		return t.create(ctx, args)
	case "update":
		return t.update(ctx, args)
	case "delete":
		return t.delete(ctx, args)
	default:
		return nil, unknownAction("vikunja_labels", args.Action, labelActions)
	}
}

func (t *LabelsTool) list(ctx context.Context) (json.RawMessage, error) {
	labels, err := t.api.ListLabels(ctx)
	if err != nil {
		return nil, apierr.Wrap(err, "labels.list", nil)
	}
	return textContent(aorp.Build("labels.list",
		fmt.Sprintf("Retrieved %d labels", len(labels)),
		labels, map[string]any{"count": len(labels)}))
}

func (t *LabelsTool) get(ctx context.Context, args labelArgs) (json.RawMessage, error) {
	id, err := parseID(args.ID, "id", "labels.get")
	if err != nil {
		return nil, err
	}
	label, err := t.api.GetLabel(ctx, id)
	if err != nil {
		return nil, apierr.Wrap(err, "labels.get", id)
	}
	return textContent(aorp.Build("labels.get",
		fmt.Sprintf("Retrieved label %d", id),
		label, map[string]any{"entityId": id}))
}

func (t *LabelsTool) create(ctx context.Context, args labelArgs) (json.RawMessage, error) {
	if err := requireString(args.Title, "title", "labels.create"); err != nil {
		return nil, err
	}

	payload := map[string]any{"title": args.Title}
	fields := []string{"title"}
	if args.HexColor != "" {
		payload["hex_color"] = args.HexColor
		fields = append(fields, "hex_color")
	}
	if args.Description != "" {
		payload["description"] = args.Description
		fields = append(fields, "description")
	}

	label, err := t.api.CreateLabel(ctx, payload)
	if err != nil {
		return nil, apierr.Wrap(err, "labels.create", nil)
	}
	return textContent(aorp.Build("labels.create",
		fmt.Sprintf("Created label %q", args.Title),
		label, map[string]any{"affectedFields": fields}))
}

func (t *LabelsTool) update(ctx context.Context, args labelArgs) (json.RawMessage, error) {
	id, err := parseID(args.ID, "id", "labels.update")
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	var fields []string
	if args.Title != "" {
		payload["title"] = args.Title
		fields = append(fields, "title")
	}
	if args.HexColor != "" {
		payload["hex_color"] = args.HexColor
		fields = append(fields, "hex_color")
	}
	if args.Description != "" {
		payload["description"] = args.Description
		fields = append(fields, "description")
	}
	if len(fields) == 0 {
		return nil, apierr.New(apierr.ValidationError, "labels.update: nothing to update (provide title, hexColor, or description)")
	}

	label, err := t.api.UpdateLabel(ctx, id, payload)
	if err != nil {
		return nil, apierr.Wrap(err, "labels.update", id)
	}
	return textContent(aorp.Build("labels.update",
		fmt.Sprintf("Updated label %d", id),
		label, map[string]any{"entityId": id, "affectedFields": fields}))
}

func (t *LabelsTool) delete(ctx context.Context, args labelArgs) (json.RawMessage, error) {
	id, err := parseID(args.ID, "id", "labels.delete")
	if err != nil {
		return nil, err
	}
	if err := t.api.DeleteLabel(ctx, id); err != nil {
		return nil, apierr.Wrap(err, "labels.delete", id)
	}
	return textContent(aorp.Build("labels.delete",
		fmt.Sprintf("Deleted label %d", id),
		nil, map[string]any{"entityId": id}))
}
