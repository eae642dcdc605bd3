// Anthropic family provider using the official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Anthropic Messages API: a
//   distinguished top-level system string, tool results folded into
//   user-role content blocks tagged tool_result
// - Normalization of content-block start/delta/stop stream frames

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model string, maxTokens uint32, temperature float32) *AnthropicProvider {
	return NewAnthropicProviderWithBaseURL(apiKey, model, maxTokens, temperature, "")
}

// NewAnthropicProviderWithBaseURL creates a provider pointed at a
// non-default endpoint. Used by tests against fake servers.
func NewAnthropicProviderWithBaseURL(apiKey, model string, maxTokens uint32, temperature float32, baseURL string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicProvider{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: float64(temperature),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// StreamTurn sends one model turn and normalizes the streamed response.
func (p *AnthropicProvider) StreamTurn(ctx context.Context, messages []Message, tools []ToolDefinition) (Stream, error) {
	anthropicMessages, systemPrompt := convertToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    anthropicMessages,
		Temperature: anthropic.Float(p.temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}
	if len(tools) > 0 {
		params.Tools = convertToAnthropicTools(tools)
	}

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		stream := p.client.Messages.NewStreaming(ctx, params)

		// Tool-use blocks are introduced by an explicit start frame
		// carrying id and name; only indexes seen on such frames get
		// canonical tool-call events.
		toolIndexes := make(map[int64]bool)
		opened := 0

		for stream.Next() {
			event := stream.Current()

			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				switch block := eventVariant.ContentBlock.AsAny().(type) {
				case anthropic.ToolUseBlock:
					toolIndexes[eventVariant.Index] = true
					opened++
					emit(ctx, events, Event{
						Type:  EventToolCallStart,
						Index: int(eventVariant.Index),
						ID:    block.ID,
						Name:  block.Name,
					})
				}
			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if deltaVariant.Text != "" {
						emit(ctx, events, Event{Type: EventTextDelta, Text: deltaVariant.Text})
					}
				case anthropic.InputJSONDelta:
					if deltaVariant.PartialJSON != "" && toolIndexes[eventVariant.Index] {
						emit(ctx, events, Event{
							Type:     EventToolCallArgDelta,
							Index:    int(eventVariant.Index),
							Fragment: deltaVariant.PartialJSON,
						})
					}
				}
			case anthropic.ContentBlockStopEvent:
				if toolIndexes[eventVariant.Index] {
					emit(ctx, events, Event{Type: EventToolCallEnd, Index: int(eventVariant.Index)})
				}
			}
		}

		if err := stream.Err(); err != nil {
			return fmt.Errorf("stream error: %w", err)
		}

		emit(ctx, events, Event{Type: EventTurnComplete, Reason: turnReason(opened)})
		return nil
	}), nil
}

// convertToAnthropicMessages converts canonical messages to Anthropic
// format. The system message is extracted and returned separately; tool
// results become tool_result blocks inside user messages.
func convertToAnthropicMessages(messages []Message) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				content := &anthropic.MessageParam{
					Role: anthropic.MessageParamRoleAssistant,
				}
				if msg.Content != "" {
					content.Content = append(content.Content, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					var input map[string]any
					_ = json.Unmarshal([]byte(tc.Arguments), &input)
					content.Content = append(content.Content, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    tc.ID,
							Name:  tc.Name,
							Input: input,
						},
					})
				}
				anthropicMessages = append(anthropicMessages, *content)
			} else {
				anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}
		case RoleTool:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

// convertToAnthropicTools converts tool definitions to Anthropic format.
func convertToAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		properties, _ := t.Parameters["properties"].(map[string]any)
		required := schemaRequired(t.Parameters)

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

// schemaRequired extracts the required field from a JSON schema,
// tolerating both []string and the []any produced by unmarshaling.
func schemaRequired(schema map[string]any) []string {
	if req, ok := schema["required"].([]string); ok {
		return req
	}
	req, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	var result []string
	for _, r := range req {
		if s, ok := r.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
