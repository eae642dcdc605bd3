// Package chat runs the conversation loop between the user, the
// model, and the tool registry.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"minder/llm"
	"minder/tools"
)

// Hooks receives progress callbacks while a response is being
// produced. Any field may be nil.
type Hooks struct {
	OnText       func(delta string)
	OnToolCall   func(call llm.ToolCall)
	OnToolResult func(call llm.ToolCall, result tools.Result)
}

// Session holds an append-only conversation and answers user input by
// streaming model turns, dispatching tool calls between them.
type Session struct {
	provider      llm.Provider
	registry      *tools.Registry
	maxModelTurns int
	hooks         Hooks
	messages      []llm.Message
}

func NewSession(provider llm.Provider, registry *tools.Registry, systemPrompt string, maxModelTurns int, hooks Hooks) *Session {
	if maxModelTurns <= 0 {
		maxModelTurns = 5
	}
	return &Session{
		provider:      provider,
		registry:      registry,
		maxModelTurns: maxModelTurns,
		hooks:         hooks,
		messages:      []llm.Message{llm.SystemMessage(systemPrompt)},
	}
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Respond answers one user input. It runs at most maxModelTurns model
// turns, executing requested tools between turns, and returns the
// assistant text produced along the way. The conversation history is
// only extended when the whole exchange succeeds.
func (s *Session) Respond(ctx context.Context, input string) (string, error) {
	pending := make([]llm.Message, len(s.messages), len(s.messages)+2)
	copy(pending, s.messages)
	pending = append(pending, llm.UserMessage(input))

	var reply strings.Builder

	for turn := 0; turn < s.maxModelTurns; turn++ {
		result, err := s.runModelTurn(ctx, pending)
		if err != nil {
			return "", err
		}

		if reply.Len() > 0 && result.text != "" {
			reply.WriteString("\n")
		}
		reply.WriteString(result.text)

		assistant := llm.AssistantMessage(result.text)
		assistant.ToolCalls = result.calls
		pending = append(pending, assistant)

		if result.reason != llm.ReasonToolCalls {
			s.messages = pending
			return reply.String(), nil
		}

		for _, call := range result.calls {
			if s.hooks.OnToolCall != nil {
				s.hooks.OnToolCall(call)
			}
			outcome := s.registry.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
			if s.hooks.OnToolResult != nil {
				s.hooks.OnToolResult(call, outcome)
			}
			pending = append(pending, llm.ToolResultMessage(call.ID, call.Name, outcome.JSON()))
		}
	}

	// Ceiling reached with the model still asking for tools. Stop
	// here rather than looping forever on a confused model.
	notice := fmt.Sprintf("[stopped after %d model turns; ask again to continue]", s.maxModelTurns)
	if s.hooks.OnText != nil {
		s.hooks.OnText("\n" + notice)
	}
	if reply.Len() > 0 {
		reply.WriteString("\n")
	}
	reply.WriteString(notice)
	pending = append(pending, llm.AssistantMessage(notice))
	s.messages = pending
	return reply.String(), nil
}

type turnResult struct {
	text   string
	calls  []llm.ToolCall
	reason llm.StopReason
}

// runModelTurn streams one model turn and assembles its text and tool
// calls from the event sequence.
func (s *Session) runModelTurn(ctx context.Context, messages []llm.Message) (turnResult, error) {
	stream, err := s.provider.StreamTurn(ctx, messages, s.registry.Definitions())
	if err != nil {
		return turnResult{}, fmt.Errorf("starting model turn: %w", err)
	}
	defer stream.Close()

	var (
		text     strings.Builder
		builders = map[int]*callBuilder{}
		order    []int
		reason   = llm.ReasonStop
	)

	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return turnResult{}, fmt.Errorf("streaming model turn: %w", err)
		}

		switch event.Type {
		case llm.EventTextDelta:
			text.WriteString(event.Text)
			if s.hooks.OnText != nil {
				s.hooks.OnText(event.Text)
			}
		case llm.EventToolCallStart:
			builders[event.Index] = &callBuilder{id: event.ID, name: event.Name}
			order = append(order, event.Index)
		case llm.EventToolCallArgDelta:
			if b, ok := builders[event.Index]; ok {
				b.args.WriteString(event.Fragment)
			}
		case llm.EventToolCallEnd:
			// Arguments are validated once the turn completes.
		case llm.EventTurnComplete:
			reason = event.Reason
		}
	}

	calls := make([]llm.ToolCall, 0, len(order))
	for _, index := range order {
		b := builders[index]
		args := b.args.String()
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return turnResult{}, fmt.Errorf("tool call %s produced invalid JSON arguments", b.name)
		}
		calls = append(calls, llm.ToolCall{ID: b.id, Name: b.name, Arguments: args})
	}

	return turnResult{text: text.String(), calls: calls, reason: reason}, nil
}

type callBuilder struct {
	id   string
	name string
	args strings.Builder
}
