// Package mcp implements the Model Context Protocol endpoint: a
// JSON-RPC 2.0 handler for tools/list and tools/call. Tool failures
// arrive as taxonomy errors (internal/apierr) and are mapped onto
// JSON-RPC error codes with the kind surfaced in the message, so MCP
// clients see exactly one structured error per failure.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/otel"
	"github.com/jundoHeo/vikunja-mcp/internal/requestctx"
	"github.com/jundoHeo/vikunja-mcp/internal/tools"
)

var tracer = otel.Tracer("github.com/jundoHeo/vikunja-mcp/internal/mcp")

const jsonrpcVersion = "2.0"

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id"`
}

type jsonrpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    *errorDta `json:"data,omitempty"`
}

// errorDta carries the taxonomy kind and context alongside the code, so
// clients can branch without parsing messages.
type errorDta struct {
	Kind    apierr.Kind    `json:"kind"`
	Context map[string]any `json:"context,omitempty"`
}

// Standard JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Handler serves tools/list and tools/call over JSON-RPC 2.0.
type Handler struct {
	registry *tools.Registry
}

// NewHandler creates an MCP handler over the given tool registry.
func NewHandler(registry *tools.Registry) *Handler {
	return &Handler{registry: registry}
}

// ServeHTTP handles POST /mcp JSON-RPC 2.0 requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeResponse(w, errorResponse(nil, codeInvalidRequest, "method must be POST", nil))
		return
	}
	ctx, span := tracer.Start(r.Context(), "mcp.serve",
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
		))
	defer span.End()

	var req jsonrpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeResponse(w, errorResponse(nil, codeParseError, "invalid JSON: "+err.Error(), nil))
		return
	}
	if req.JSONRPC != jsonrpcVersion {
		writeResponse(w, errorResponse(req.ID, codeInvalidRequest, "jsonrpc must be 2.0", nil))
		return
	}

	var resp *jsonrpcResponse
	switch req.Method {
	case "tools/list":
		resp = h.handleToolsList(ctx, req.ID)
	case "tools/call":
		resp = h.handleToolsCall(ctx, &req)
	default:
		resp = errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method, nil)
	}
	writeResponse(w, resp)
}

func (h *Handler) handleToolsList(ctx context.Context, id any) *jsonrpcResponse {
	_, span := tracer.Start(ctx, "mcp.tools.list")
	defer span.End()

	list := h.registry.List()
	out := make([]map[string]any, 0, len(list))
	for _, t := range list {
		out = append(out, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"inputSchema": t.InputSchema(),
		})
	}
	span.SetAttributes(attribute.Int("tools.count", len(out)))
	return &jsonrpcResponse{JSONRPC: jsonrpcVersion, ID: id, Result: map[string]any{"tools": out}}
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (h *Handler) handleToolsCall(ctx context.Context, req *jsonrpcRequest) *jsonrpcResponse {
	ctx, span := tracer.Start(ctx, "mcp.tools.call")
	defer span.End()

	var params toolsCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, codeInvalidParams, "invalid params: "+err.Error(), nil)
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "tool name is required", nil)
	}
	span.SetAttributes(attribute.String("tool.name", params.Name))

	tool, ok := h.registry.Get(params.Name)
	if !ok {
		return errorResponse(req.ID, codeMethodNotFound, "tool not found: "+params.Name, nil)
	}

	correlationID := "call_" + uuid.New().String()[:8]
	start := time.Now()
	result, execErr := tool.Execute(ctx, params.Arguments)
	duration := time.Since(start)

	logEvent := log.Debug()
	if execErr != nil {
		logEvent = log.Warn().Err(execErr)
	}
	logEvent.Str("correlation_id", correlationID).
		Str("tool", params.Name).
		Str("caller", requestctx.Caller(ctx)).
		Dur("duration", duration).
		Msg("tool call")

	if execErr != nil {
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		return taxonomyResponse(req.ID, execErr)
	}

	var content any
	if err := json.Unmarshal(result, &content); err != nil {
		return taxonomyResponse(req.ID, apierr.Wrap(err, params.Name, nil))
	}
	return &jsonrpcResponse{JSONRPC: jsonrpcVersion, ID: req.ID, Result: map[string]any{"content": content}}
}

// taxonomyResponse maps a taxonomy error onto a JSON-RPC error.
// Caller-side kinds (validation, malformed payloads) become invalid
// params; everything else is a server error. The kind always rides
// along in the error data.
func taxonomyResponse(id any, err error) *jsonrpcResponse {
	te := apierr.Wrap(err, "tools.call", nil)

	code := codeServerError
	switch te.Kind {
	case apierr.ValidationError, apierr.InvalidPayload:
		code = codeInvalidParams
	case apierr.NotImplemented:
		code = codeMethodNotFound
	}
	return errorResponse(id, code, te.Message, &errorDta{Kind: te.Kind, Context: te.Context})
}

func errorResponse(id any, code int, message string, data *errorDta) *jsonrpcResponse {
	return &jsonrpcResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: data},
	}
}

func writeResponse(w http.ResponseWriter, resp *jsonrpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
