package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jundoHeo/vikunja-mcp/internal/aorp"
	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
)

// TeamAPI is the slice of the upstream client the teams tool needs.
type TeamAPI interface {
	ListTeams(ctx context.Context) ([]any, error)
	CreateTeam(ctx context.Context, payload map[string]any) (any, error)
	UpdateTeam(ctx context.Context, id int64, payload map[string]any) (any, error)
	DeleteTeam(ctx context.Context, id int64) error
}

var teamActions = []string{"list", "create", "update", "delete"}

// TeamsTool manages Vikunja teams.
type TeamsTool struct {
	api      TeamAPI
	sessions session.Provider
}

func NewTeamsTool(api TeamAPI, sessions session.Provider) *TeamsTool {
	return &TeamsTool{api: api, sessions: sessions}
}

func (t *TeamsTool) Name() string { return "vikunja_teams" }

func (t *TeamsTool) Description() string {
	return "Manage Vikunja teams: list, create, update, delete"
}

func (t *TeamsTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["list", "create", "update", "delete"]},
			"id": {"type": "number", "description": "Team id (update, delete)"},
			"name": {"type": "string", "description": "Team name (create, update)"},
			"description": {"type": "string", "description": "Team description (optional)"}
		},
		"required": ["action"]
	}`)
}

type teamArgs struct {
	Action      string `json:"action"`
	ID          any    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (t *TeamsTool) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var args teamArgs
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, apierr.Newf(apierr.InvalidPayload, "vikunja_teams: malformed arguments: %v", err)
		}
	}

	if err := requireAuth(t.sessions, "teams."+args.Action); err != nil {
		return nil, err
	}

	switch args.Action {
	case "list":
		return t.list(ctx)
	case "create":
		return t.create(ctx, args)
	case "update":
		return t.update(ctx, args)
	case "delete":
		return t.delete(ctx, args)
	default:
		return nil, unknownAction("vikunja_teams", args.Action, teamActions)
	}
}

func (t *TeamsTool) list(ctx context.Context) (json.RawMessage, error) {
	teams, err := t.api.ListTeams(ctx)
	if err != nil {
		return nil, apierr.Wrap(err, "teams.list", nil)
	}
	return textContent(aorp.Build("teams.list",
		fmt.Sprintf("Retrieved %d teams", len(teams)),
		teams, map[string]any{"count": len(teams)}))
}

func (t *TeamsTool) create(ctx context.Context, args teamArgs) (json.RawMessage, error) {
	if err := requireString(args.Name, "name", "teams.create"); err != nil {
		return nil, err
	}

	payload := map[string]any{"name": args.Name}
	fields := []string{"name"}
	if args.Description != "" {
		payload["description"] = args.Description
		fields = append(fields, "description")
	}

	team, err := t.api.CreateTeam(ctx, payload)
	if err != nil {
		return nil, apierr.Wrap(err, "teams.create", nil)
	}
	return textContent(aorp.Build("teams.create",
		fmt.Sprintf("Created team %q", args.Name),
		team, map[string]any{"affectedFields": fields}))
}

func (t *TeamsTool) update(ctx context.Context, args teamArgs) (json.RawMessage, error) {
	id, err := parseID(args.ID, "id", "teams.update")
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	var fields []string
	if args.Name != "" {
		payload["name"] = args.Name
		fields = append(fields, "name")
	}
	if args.Description != "" {
		payload["description"] = args.Description
		fields = append(fields, "description")
	}
	if len(fields) == 0 {
		return nil, apierr.New(apierr.ValidationError, "teams.update: nothing to update (provide name or description)")
	}

	team, err := t.api.UpdateTeam(ctx, id, payload)
	if err != nil {
		return nil, apierr.Wrap(err, "teams.update", id)
	}
	return textContent(aorp.Build("teams.update",
		fmt.Sprintf("Updated team %d", id),
		team, map[string]any{"entityId": id, "affectedFields": fields}))
}

func (t *TeamsTool) delete(ctx context.Context, args teamArgs) (json.RawMessage, error) {
	id, err := parseID(args.ID, "id", "teams.delete")
	if err != nil {
		return nil, err
	}
	if err := t.api.DeleteTeam(ctx, id); err != nil {
		return nil, apierr.Wrap(err, "teams.delete", id)
	}
	return textContent(aorp.Build("teams.delete",
		fmt.Sprintf("Deleted team %d", id),
		nil, map[string]any{"entityId": id}))
}
