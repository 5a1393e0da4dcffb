// Package sanitize coerces untyped upstream payloads into safe, fully
// typed records. The Vikunja API is loose about optional user fields
// across versions, so every field has an explicit coercion rule and the
// result is structurally valid even when the input is malformed.
package sanitize

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
)

// complexPlaceholder replaces nested values that cannot be serialized
// into a string field.
const complexPlaceholder = "[complex value]"

// UserRecord is the normalized projection of an upstream user object.
// Required fields are always present (ID defaults to 0 on bad input);
// optional fields are pointer-typed so that present-but-false and
// present-but-zero survive, while absent keys are omitted entirely.
type UserRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`

	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Language string `json:"language,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Created  string `json:"created,omitempty"`
	Updated  string `json:"updated,omitempty"`

	// Always a map, never nil: a non-map upstream value degrades to {}.
	FrontendSettings map[string]any `json:"frontend_settings"`

	EmailRemindersEnabled        *bool    `json:"email_reminders_enabled,omitempty"`
	DiscoverableByName           *bool    `json:"discoverable_by_name,omitempty"`
	DiscoverableByEmail          *bool    `json:"discoverable_by_email,omitempty"`
	OverdueTasksRemindersEnabled *bool    `json:"overdue_tasks_reminders_enabled,omitempty"`
	WeekStart                    *float64 `json:"week_start,omitempty"`
	DefaultProjectID             *float64 `json:"default_project_id,omitempty"`
}

// User sanitizes an arbitrary decoded-JSON value into a UserRecord.
// Only non-map inputs fail (kind InvalidPayload); any map input yields a
// valid record. Pure: the input is never modified.
func User(raw any) (*UserRecord, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, apierr.New(apierr.InvalidPayload, "user payload must be a JSON object")
	}

	rec := &UserRecord{
		ID:               coerceID(obj["id"]),
		Username:         coerceString(obj["username"]),
		FrontendSettings: coerceSettings(obj["frontend_settings"]),
	}

	rec.Name = coerceString(obj["name"])
	rec.Email = coerceString(obj["email"])
	rec.Language = coerceString(obj["language"])
	rec.Timezone = coerceString(obj["timezone"])
	rec.Created = coerceString(obj["created"])
	rec.Updated = coerceString(obj["updated"])

	// Presence is checked on the key, not on truthiness: an explicit
	// false or 0 must be kept, only a missing key is omitted.
	if v, present := obj["email_reminders_enabled"]; present {
		rec.EmailRemindersEnabled = boolPtr(coerceBool(v))
	}
	if v, present := obj["discoverable_by_name"]; present {
		rec.DiscoverableByName = boolPtr(coerceBool(v))
	}
	if v, present := obj["discoverable_by_email"]; present {
		rec.DiscoverableByEmail = boolPtr(coerceBool(v))
	}
	if v, present := obj["overdue_tasks_reminders_enabled"]; present {
		rec.OverdueTasksRemindersEnabled = boolPtr(coerceBool(v))
	}
	if v, present := obj["week_start"]; present {
		rec.WeekStart = floatPtr(coerceNumber(v))
	}
	if v, present := obj["default_project_id"]; present {
		rec.DefaultProjectID = floatPtr(coerceNumber(v))
	}

	return rec, nil
}

// coerceID applies numeric coercion with a 0 default. Never fails the
// record: a garbage id yields 0.
func coerceID(v any) int64 {
	f := coerceNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// coerceString stringifies scalar values, serializes nested structures,
// and drops absent or empty values (the caller's zero string means
// "omit"). A nested value that cannot be serialized becomes a fixed
// placeholder rather than failing the record.
func coerceString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case json.Number:
		return vv.String()
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	default:
		out, err := json.Marshal(vv)
		if err != nil {
			return complexPlaceholder
		}
		return string(out)
	}
}

// coerceSettings keeps a free-form settings map only when it actually is
// a map; anything else (nil, scalar, array) degrades to an empty map.
// An explicitly provided empty map is preserved as-is.
func coerceSettings(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// coerceBool follows JS Boolean() semantics over decoded JSON: false,
// 0, "" and null are false, everything else is true.
func coerceBool(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case float64:
		return vv != 0
	case string:
		return vv != ""
	case json.Number:
		f, err := vv.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

// coerceNumber follows JS Number() semantics over decoded JSON values;
// unparseable input yields NaN, which id coercion collapses to 0 and
// numeric optional fields store as 0.
func coerceNumber(v any) float64 {
	switch vv := v.(type) {
	case float64:
		return vv
	case json.Number:
		f, err := vv.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case int:
		return float64(vv)
	case int64:
		return float64(vv)
	case bool:
		if vv {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(vv, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return &f
}
