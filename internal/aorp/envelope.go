// Package aorp implements the Agent-Oriented Response Protocol: the
// uniform envelope every tool operation returns on success, plus a
// deterministic markdown renderer for MCP text content. Failure paths
// never construct an envelope; they surface a taxonomy error instead
// (internal/apierr), so Success is true on every envelope built here.
package aorp

// Envelope is the standardized per-operation response. Built once per
// invocation, never persisted.
type Envelope struct {
	Operation string         `json:"operation"`
	Summary   string         `json:"summary"`
	Success   bool           `json:"success"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Build constructs a success envelope. Pure and total: any data payload
// and any (possibly nil) metadata yield a valid envelope.
func Build(operation, summary string, data any, metadata map[string]any) Envelope {
	return Envelope{
		Operation: operation,
		Summary:   summary,
		Success:   true,
		Data:      data,
		Metadata:  metadata,
	}
}
