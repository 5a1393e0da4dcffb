package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jundoHeo/vikunja-mcp/internal/aorp"
	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/sanitize"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
)

// UserAPI is the slice of the upstream client the users tool needs.
type UserAPI interface {
	SearchUsers(ctx context.Context, query string) ([]any, error)
	CurrentUser(ctx context.Context) (any, error)
}

var userActions = []string{"search", "current"}

// UsersTool reads Vikunja users. The upstream user endpoints reject
// API tokens, so every action requires a JWT session. Raw payloads are
// sanitized before they reach the envelope: upstream user objects vary
// across versions.
type UsersTool struct {
	api      UserAPI
	sessions session.Provider
}

func NewUsersTool(api UserAPI, sessions session.Provider) *UsersTool {
	return &UsersTool{api: api, sessions: sessions}
}

func (t *UsersTool) Name() string { return "vikunja_users" }

func (t *UsersTool) Description() string {
	return "Look up Vikunja users: search by name, show the current user (JWT auth only)"
}

func (t *UsersTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["search", "current"]},
			"query": {"type": "string", "description": "Name or username fragment (search)"}
		},
		"required": ["action"]
	}`)
}

type userArgs struct {
	Action string `json:"action"`
	Query  string `json:"query"`
}

func (t *UsersTool) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var args userArgs
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, apierr.Newf(apierr.InvalidPayload, "vikunja_users: malformed arguments: %v", err)
		}
	}

	if err := requireJWT(t.sessions, "users."+args.Action); err != nil {
		return nil, err
	}

	switch args.Action {
	case "search":
		return t.search(ctx, args)
	case "current":
		return t.current(ctx)
	default:
		return nil, unknownAction("vikunja_users", args.Action, userActions)
	}
}

func (t *UsersTool) search(ctx context.Context, args userArgs) (json.RawMessage, error) {
	if err := requireString(args.Query, "query", "users.search"); err != nil {
		return nil, err
	}

	raw, err := t.api.SearchUsers(ctx, args.Query)
	if err != nil {
		return nil, apierr.WrapAuth(err, "users.search")
	}

	records := make([]*sanitize.UserRecord, 0, len(raw))
	for _, item := range raw {
		rec, err := sanitize.User(item)
		if err != nil {
			return nil, apierr.WrapAuth(err, "users.search")
		}
		records = append(records, rec)
	}

	return textContent(aorp.Build("users.search",
		fmt.Sprintf("Found %d users matching %q", len(records), args.Query),
		records, map[string]any{"count": len(records), "query": args.Query}))
}

func (t *UsersTool) current(ctx context.Context) (json.RawMessage, error) {
	raw, err := t.api.CurrentUser(ctx)
	if err != nil {
		return nil, apierr.WrapAuth(err, "users.current")
	}
	rec, err := sanitize.User(raw)
	if err != nil {
		return nil, apierr.WrapAuth(err, "users.current")
	}

	return textContent(aorp.Build("users.current",
		fmt.Sprintf("Authenticated as %s", rec.Username),
		rec, map[string]any{"entityId": rec.ID}))
}
