package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func anthropicSSEHandler(frames [][2]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame[0], frame[1])
		}
	}
}

func TestAnthropicStreamNormalization(t *testing.T) {
	frames := [][2]string{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","usage":{"input_tokens":1,"output_tokens":1}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Checking."}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_config","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"key\":"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"port\"}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":1}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}
	srv := httptest.NewServer(anthropicSSEHandler(frames))
	defer srv.Close()

	p := NewAnthropicProviderWithBaseURL("test-key", "claude-sonnet-4-20250514", 1024, 0, srv.URL)
	stream, err := p.StreamTurn(context.Background(), []Message{UserMessage("port?")}, nil)
	if err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}
	defer stream.Close()

	var events []Event
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		events = append(events, event)
	}

	want := []Event{
		{Type: EventTextDelta, Text: "Checking."},
		{Type: EventToolCallStart, Index: 1, ID: "toolu_1", Name: "get_config"},
		{Type: EventToolCallArgDelta, Index: 1, Fragment: `{"key":`},
		{Type: EventToolCallArgDelta, Index: 1, Fragment: `"port"}`},
		{Type: EventToolCallEnd, Index: 1},
		{Type: EventTurnComplete, Reason: ReasonToolCalls},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}

	assembled := want[2].Fragment + want[3].Fragment
	if !strings.Contains(assembled, `"key":"port"`) {
		t.Errorf("assembled arguments = %s", assembled)
	}
}

func TestAnthropicToolCallRoundTrip(t *testing.T) {
	original := []ToolCall{
		{ID: "toolu_1", Name: "get_config", Arguments: `{"key":"port"}`},
		{ID: "toolu_2", Name: "get_logs", Arguments: `{"lines":20}`},
	}

	// Outbound: both calls survive as tool_use blocks with equal
	// parsed input.
	assistant := AssistantMessage("")
	assistant.ToolCalls = original
	wire, _ := convertToAnthropicMessages([]Message{assistant})
	if len(wire) != 1 || len(wire[0].Content) != 2 {
		t.Fatalf("outbound shape wrong: %+v", wire)
	}
	for i, block := range wire[0].Content {
		toolUse := block.OfToolUse
		if toolUse == nil {
			t.Fatalf("outbound block %d is not tool_use", i)
		}
		if toolUse.ID != original[i].ID || toolUse.Name != original[i].Name {
			t.Errorf("outbound block %d = %+v, want %+v", i, toolUse, original[i])
		}
		input, err := json.Marshal(toolUse.Input)
		if err != nil {
			t.Fatalf("marshal input: %v", err)
		}
		if !sameParsedArgs(t, string(input), original[i].Arguments) {
			t.Errorf("outbound block %d input = %s, want %s", i, input, original[i].Arguments)
		}
	}

	// Inbound: the same two calls streamed as separate content blocks
	// normalize back to equal calls.
	frames := [][2]string{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","usage":{"input_tokens":1,"output_tokens":1}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_config","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"key\":\"port\"}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_2","name":"get_logs","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"lines\":20}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":1}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}
	srv := httptest.NewServer(anthropicSSEHandler(frames))
	defer srv.Close()

	p := NewAnthropicProviderWithBaseURL("test-key", "claude-sonnet-4-20250514", 1024, 0, srv.URL)
	stream, err := p.StreamTurn(context.Background(), []Message{UserMessage("go")}, nil)
	if err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}
	calls := callsFromEvents(collectEvents(t, stream))
	if len(calls) != 2 {
		t.Fatalf("inbound calls = %d, want 2: %+v", len(calls), calls)
	}
	for i := range original {
		if calls[i].ID != original[i].ID || calls[i].Name != original[i].Name {
			t.Errorf("inbound call %d = %+v, want %+v", i, calls[i], original[i])
		}
		if !sameParsedArgs(t, calls[i].Arguments, original[i].Arguments) {
			t.Errorf("inbound call %d arguments = %s, want %s", i, calls[i].Arguments, original[i].Arguments)
		}
	}
}

func TestConvertToAnthropicMessagesExtractsSystem(t *testing.T) {
	messages := []Message{
		SystemMessage("be brief"),
		UserMessage("hello"),
		AssistantMessage("hi"),
	}

	converted, system := convertToAnthropicMessages(messages)
	if system != "be brief" {
		t.Errorf("system = %q", system)
	}
	if len(converted) != 2 {
		t.Fatalf("got %d messages, want 2 (system lifted out)", len(converted))
	}
	if string(converted[0].Role) != "user" {
		t.Errorf("first role = %q", converted[0].Role)
	}
	if string(converted[1].Role) != "assistant" {
		t.Errorf("second role = %q", converted[1].Role)
	}
}

func TestConvertToAnthropicMessagesToolFlow(t *testing.T) {
	assistant := AssistantMessage("checking")
	assistant.ToolCalls = []ToolCall{{ID: "toolu_1", Name: "get_status", Arguments: `{"verbose":true}`}}

	messages := []Message{
		UserMessage("status?"),
		assistant,
		ToolResultMessage("toolu_1", "get_status", `{"running":false}`),
	}

	converted, _ := convertToAnthropicMessages(messages)
	if len(converted) != 3 {
		t.Fatalf("got %d messages, want 3", len(converted))
	}

	// The assistant message carries a text block plus a tool_use block.
	assistantMsg := converted[1]
	if string(assistantMsg.Role) != "assistant" {
		t.Errorf("assistant role = %q", assistantMsg.Role)
	}
	if len(assistantMsg.Content) != 2 {
		t.Fatalf("assistant content blocks = %d, want text + tool_use", len(assistantMsg.Content))
	}
	toolUse := assistantMsg.Content[1].OfToolUse
	if toolUse == nil {
		t.Fatal("second content block should be tool_use")
	}
	if toolUse.ID != "toolu_1" || toolUse.Name != "get_status" {
		t.Errorf("tool_use block = %+v", toolUse)
	}
	input, ok := toolUse.Input.(map[string]any)
	if !ok || input["verbose"] != true {
		t.Errorf("tool_use input = %#v", toolUse.Input)
	}

	// The tool result folds into a user-role message.
	if string(converted[2].Role) != "user" {
		t.Errorf("tool result role = %q, want user", converted[2].Role)
	}
}

func TestConvertToAnthropicTools(t *testing.T) {
	tools := []ToolDefinition{{
		Name:        "set_config",
		Description: "Store a value.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key":   map[string]any{"type": "string"},
				"value": map[string]any{"type": "string"},
			},
			"required": []string{"key", "value"},
		},
	}}

	converted := convertToAnthropicTools(tools)
	if len(converted) != 1 {
		t.Fatalf("got %d tools, want 1", len(converted))
	}
	tool := converted[0].OfTool
	if tool == nil {
		t.Fatal("expected plain tool param")
	}
	if tool.Name != "set_config" {
		t.Errorf("name = %q", tool.Name)
	}
	if len(tool.InputSchema.Required) != 2 {
		t.Errorf("required = %v", tool.InputSchema.Required)
	}
}

func TestSchemaRequired(t *testing.T) {
	if got := schemaRequired(map[string]any{"required": []string{"a", "b"}}); len(got) != 2 {
		t.Errorf("[]string form: got %v", got)
	}
	// The []any form appears after a schema round-trips through JSON.
	if got := schemaRequired(map[string]any{"required": []any{"a", "b"}}); len(got) != 2 {
		t.Errorf("[]any form: got %v", got)
	}
	if got := schemaRequired(map[string]any{}); got != nil {
		t.Errorf("missing field: got %v", got)
	}
	if got := schemaRequired(map[string]any{"required": "oops"}); got != nil {
		t.Errorf("wrong type: got %v", got)
	}
}
