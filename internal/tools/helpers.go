package tools

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/jundoHeo/vikunja-mcp/internal/aorp"
	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
)

// textContent renders an envelope into the MCP content list shape.
func textContent(e aorp.Envelope) (json.RawMessage, error) {
	content := []map[string]any{{"type": "text", "text": aorp.Render(e)}}
	out, err := json.Marshal(content)
	if err != nil {
		// Render output is always a plain string; reaching this means a
		// marshaler bug, not a caller mistake.
		return nil, apierr.Wrap(err, "render", nil)
	}
	return out, nil
}

// requireAuth fails fast with AuthRequired before any I/O when the
// session has no credential.
func requireAuth(p session.Provider, operation string) error {
	if !p.IsAuthenticated() {
		return apierr.WithContext(apierr.AuthRequired,
			operation+": not authenticated (configure a Vikunja API token or JWT)",
			map[string]any{"operation": operation})
	}
	return nil
}

// requireJWT enforces the stricter session kind some upstream endpoints
// demand: user endpoints reject long-lived API tokens.
func requireJWT(p session.Provider, operation string) error {
	if err := requireAuth(p, operation); err != nil {
		return err
	}
	if p.AuthType() != session.AuthJWT {
		return apierr.WithContext(apierr.AuthRequired,
			operation+": requires JWT authentication (user endpoints reject API tokens)",
			map[string]any{"operation": operation, "authType": string(p.AuthType())})
	}
	return nil
}

// parseID coerces a decoded-JSON argument (number or numeric string)
// into a positive id, failing fast with ValidationError. Runs before
// any I/O.
func parseID(v any, field, operation string) (int64, error) {
	var f float64
	switch vv := v.(type) {
	case nil:
		return 0, apierr.Newf(apierr.ValidationError, "%s: %s is required", operation, field)
	case float64:
		f = vv
	case string:
		parsed, err := strconv.ParseFloat(vv, 64)
		if err != nil {
			return 0, apierr.Newf(apierr.ValidationError, "%s: %s must be a number, got %q", operation, field, vv)
		}
		f = parsed
	default:
		return 0, apierr.Newf(apierr.ValidationError, "%s: %s must be a number", operation, field)
	}

	if f <= 0 || f != math.Trunc(f) {
		return 0, apierr.Newf(apierr.ValidationError, "%s: %s must be a positive integer, got %v", operation, field, f)
	}
	return int64(f), nil
}

// requireString fails with ValidationError when a required string
// argument is absent or empty.
func requireString(v, field, operation string) error {
	if v == "" {
		return apierr.Newf(apierr.ValidationError, "%s: %s is required", operation, field)
	}
	return nil
}

// unknownAction is the shared failure for an unrecognized subcommand.
func unknownAction(operation, action string, known []string) error {
	return apierr.WithContext(apierr.ValidationError,
		operation+": unknown action "+strconv.Quote(action),
		map[string]any{"action": action, "validActions": known})
}
