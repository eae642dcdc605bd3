// Chat-completions family provider using the go-openai library.
//
// This single implementation serves every backend that speaks the flat
// chat-completions schema: the OpenAI API itself, the local inference
// servers (Ollama, LM Studio, llama.cpp), a user-supplied custom
// endpoint, and the managed companion server. Non-OpenAI backends are
// reached by overriding the client base URL.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Chat Completions API
// - Index-addressed tool-call delta accumulation during streaming

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for chat-completions
// style backends.
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a provider for the OpenAI API.
func NewOpenAIProvider(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		name:        "openai",
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// NewOpenAICompatProvider creates a provider for an OpenAI-compatible
// server at a custom base URL (including the /v1 prefix). Most local
// servers ignore the API key.
func NewOpenAICompatProvider(name, baseURL, apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/")

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		name:        name,
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// StreamTurn sends one model turn and normalizes the streamed response.
func (p *OpenAIProvider) StreamTurn(ctx context.Context, messages []Message, tools []ToolDefinition) (Stream, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Tools:       convertToOpenAITools(tools),
		Stream:      true,
	}

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return fmt.Errorf("stream creation failed: %w", err)
		}
		defer stream.Close()

		acc := newIndexedCallAccumulator()
		finished := false
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("stream recv failed: %w", err)
			}

			for _, choice := range response.Choices {
				if choice.Delta.Content != "" {
					emit(ctx, events, Event{Type: EventTextDelta, Text: choice.Delta.Content})
				}
				for i, tc := range choice.Delta.ToolCalls {
					index := i
					if tc.Index != nil {
						index = *tc.Index
					}
					acc.add(ctx, events, index, tc.ID, tc.Function.Name, tc.Function.Arguments)
				}
				if choice.FinishReason != "" {
					finished = true
				}
			}
			if finished {
				break
			}
		}

		// A stream that ends without an explicit finish_reason is
		// treated the same as finish_reason stop.
		opened := acc.closeAll(ctx, events)
		emit(ctx, events, Event{Type: EventTurnComplete, Reason: turnReason(opened)})
		return nil
	}), nil
}

// indexedCallAccumulator assembles tool calls streamed as
// index-addressed deltas. A slot is initialized lazily on first sight
// of its index; the name field is appended to in case a backend splits
// it across frames; argument fragments are forwarded in arrival order
// and never parsed here.
type indexedCallAccumulator struct {
	byIndex map[int]*indexedCall
	order   []int
}

type indexedCall struct {
	id      string
	name    strings.Builder
	started bool
}

func newIndexedCallAccumulator() *indexedCallAccumulator {
	return &indexedCallAccumulator{byIndex: make(map[int]*indexedCall)}
}

func (a *indexedCallAccumulator) add(ctx context.Context, events chan<- Event, index int, id, name, args string) {
	call, ok := a.byIndex[index]
	if !ok {
		call = &indexedCall{}
		a.byIndex[index] = call
		a.order = append(a.order, index)
	}
	if id != "" {
		call.id = id
	}
	if name != "" {
		call.name.WriteString(name)
	}
	if args == "" {
		return
	}
	// The start event is withheld until the first argument fragment so
	// that it carries the fully assembled call name.
	if !call.started {
		call.started = true
		emit(ctx, events, Event{Type: EventToolCallStart, Index: index, ID: call.id, Name: call.name.String()})
	}
	emit(ctx, events, Event{Type: EventToolCallArgDelta, Index: index, Fragment: args})
}

// closeAll emits start events for calls that never received arguments,
// then an end event per open call in slot order. Returns the number of
// calls opened during the turn.
func (a *indexedCallAccumulator) closeAll(ctx context.Context, events chan<- Event) int {
	sort.Ints(a.order)
	for _, index := range a.order {
		call := a.byIndex[index]
		if !call.started {
			call.started = true
			emit(ctx, events, Event{Type: EventToolCallStart, Index: index, ID: call.id, Name: call.name.String()})
		}
		emit(ctx, events, Event{Type: EventToolCallEnd, Index: index})
	}
	return len(a.order)
}

// convertToOpenAIMessages converts canonical messages to the flat
// chat-completions message list, preserving tool call linkage.
func convertToOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}

		result[i] = oaiMsg
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
