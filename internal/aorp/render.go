package aorp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// unrenderable replaces a data payload that cannot be serialized
// (channels, cycles). Rendering itself never fails.
const unrenderable = "[unrenderable data]"

// Render serializes an envelope to a markdown text block. Output is
// deterministic for a given envelope: metadata lines are sorted by key,
// data is indented JSON. Absent metadata renders as nothing.
func Render(e Envelope) string {
	var b strings.Builder

	b.WriteString("### ")
	b.WriteString(e.Operation)
	b.WriteString("\n\n")
	b.WriteString(e.Summary)
	b.WriteString("\n")

	if e.Data != nil {
		b.WriteString("\n```json\n")
		b.WriteString(renderData(e.Data))
		b.WriteString("\n```\n")
	}

	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n")
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %s\n", k, renderScalar(e.Metadata[k])))
		}
	}

	return b.String()
}

func renderData(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return unrenderable
	}
	return string(out)
}

// renderScalar formats a metadata value on one line. Slices join with
// commas; everything else uses compact JSON so strings and numbers look
// the way the upstream API sent them.
func renderScalar(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case []string:
		return strings.Join(vv, ", ")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
