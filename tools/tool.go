// Package tools provides the tool system exposed to the model.
//
// Information Hiding:
// - Tool execution details hidden behind the Tool interface
// - Parameter schemas hidden in implementations
// - Error handling internalized: no tool failure escapes as an error,
//   every outcome becomes a structured result the model can react to
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"minder/llm"
)

// Result represents the outcome of a tool execution. Extra fields are
// merged into the top-level JSON object alongside success/message/note.
type Result struct {
	Success bool
	Message string
	Note    string // Optional remediation hint.
	Fields  map[string]any
}

// MarshalJSON flattens the result into a single JSON object.
func (r Result) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["success"] = r.Success
	if r.Message != "" {
		m["message"] = r.Message
	}
	if r.Note != "" {
		m["note"] = r.Note
	}
	return json.Marshal(m)
}

// JSON returns the result serialized for the model.
func (r Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"message":"failed to encode tool result"}`
	}
	return string(data)
}

// SuccessResult creates a successful result with extra fields.
func SuccessResult(fields map[string]any) Result {
	return Result{Success: true, Fields: fields}
}

// SuccessMessage creates a successful result carrying only a message.
func SuccessMessage(message string) Result {
	return Result{Success: true, Message: message}
}

// FailureResult creates a failed result with a message.
func FailureResult(message string) Result {
	return Result{Success: false, Message: message}
}

// FailureResultf creates a failed result with a formatted message.
func FailureResultf(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Tool is the interface all tools implement.
type Tool interface {
	// Definition returns the tool's name, description, and parameter
	// schema as presented to the model.
	Definition() llm.ToolDefinition

	// Execute runs the tool. A returned error is converted by the
	// registry into a failed Result with a remediation note; tools may
	// also return failed Results directly for expected conditions.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// objectSchema builds a JSON-schema object from property definitions.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// stringProperty builds a string-typed schema property.
func stringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// integerProperty builds an integer-typed schema property.
func integerProperty(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}
