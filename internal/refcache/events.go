package refcache

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
)

// defaultEvents is the static fallback tier: the webhook events every
// supported Vikunja version ships.
var defaultEvents = []string{
	"task.created",
	"task.updated",
	"task.deleted",
	"task.assignee.created",
	"task.assignee.deleted",
	"task.comment.created",
	"task.comment.edited",
	"task.comment.deleted",
	"task.attachment.created",
	"task.attachment.deleted",
	"task.relation.created",
}

// DefaultEvents returns a copy of the built-in fallback event list.
func DefaultEvents() []string {
	return cloneValues(defaultEvents)
}

// ValidateEvents partitions candidates against the current reference
// set and fails with a ValidationError naming every invalid candidate
// and the full valid set. A nil/empty candidate list is valid.
func ValidateEvents(candidates, valid []string) error {
	allowed := make(map[string]bool, len(valid))
	for _, v := range valid {
		allowed[v] = true
	}

	var invalid []string
	for _, c := range candidates {
		if !allowed[c] {
			invalid = append(invalid, c)
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	return apierr.WithContext(apierr.ValidationError,
		fmt.Sprintf("invalid webhook events: %s (valid events: %s)",
			strings.Join(invalid, ", "), strings.Join(valid, ", ")),
		map[string]any{"invalidEvents": invalid})
}

// eventsFile is the YAML shape of an events override file.
type eventsFile struct {
	Events []string `yaml:"events"`
}

// LoadEventsFile reads an optional YAML override for the fallback event
// list. Returns nil (not an error) when the file does not exist, so a
// missing override is a no-op for the caller.
func LoadEventsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading events file %s: %w", path, err)
	}

	var ef eventsFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parsing events file %s: %w", path, err)
	}
	if len(ef.Events) == 0 {
		return nil, fmt.Errorf("events file %s lists no events", path)
	}
	return ef.Events, nil
}
