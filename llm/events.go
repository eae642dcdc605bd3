// Canonical stream events.
//
// Every backend's native incremental response representation is
// normalized into this single tagged union before anything else in the
// process consumes it. Events are produced in strict network arrival
// order; the normalizers never reorder across event kinds and never
// buffer beyond what is needed to assemble one event.

package llm

import (
	"context"
	"io"
)

// EventType describes canonical stream events.
type EventType string

const (
	EventTextDelta        EventType = "text_delta"
	EventToolCallStart    EventType = "tool_call_start"
	EventToolCallArgDelta EventType = "tool_call_arg_delta"
	EventToolCallEnd      EventType = "tool_call_end"
	EventTurnComplete     EventType = "turn_complete"
)

// StopReason explains why a turn completed.
type StopReason string

const (
	// ReasonStop means the model finished its reply.
	ReasonStop StopReason = "stop"
	// ReasonToolCalls means at least one tool call was opened this turn.
	ReasonToolCalls StopReason = "tool_calls"
)

// Event is one canonical stream event. The populated fields depend on Type:
//   - EventTextDelta: Text
//   - EventToolCallStart: Index, ID, Name
//   - EventToolCallArgDelta: Index, Fragment
//   - EventToolCallEnd: Index
//   - EventTurnComplete: Reason
type Event struct {
	Type     EventType
	Text     string
	Index    int
	ID       string
	Name     string
	Fragment string
	Reason   StopReason
}

// turnReason maps the number of tool calls opened during a turn to the
// uniform completion reason: tool_calls if and only if at least one
// call was opened.
func turnReason(opened int) StopReason {
	if opened > 0 {
		return ReasonToolCalls
	}
	return ReasonStop
}

// eventStream adapts a producer goroutine to the Stream interface.
// The producer writes canonical events to the channel and returns when
// the turn is fully consumed or fails; Recv surfaces the producer's
// error, or io.EOF after a clean end.
type eventStream struct {
	events chan Event
	errc   chan error
	cancel context.CancelFunc
	err    error
	done   bool
}

func newEventStream(ctx context.Context, run func(ctx context.Context, events chan<- Event) error) *eventStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event, 16),
		errc:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		err := run(ctx, s.events)
		close(s.events)
		s.errc <- err
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	if s.done {
		if s.err != nil {
			return Event{}, s.err
		}
		return Event{}, io.EOF
	}
	event, ok := <-s.events
	if !ok {
		s.done = true
		if err := <-s.errc; err != nil {
			s.err = err
			return Event{}, err
		}
		return Event{}, io.EOF
	}
	return event, nil
}

// Close cancels the underlying request and drains any buffered events
// so the producer goroutine can exit.
func (s *eventStream) Close() error {
	s.cancel()
	if !s.done {
		go func() {
			for range s.events {
			}
		}()
	}
	return nil
}

// emit sends an event unless the consumer has gone away.
func emit(ctx context.Context, events chan<- Event, event Event) {
	select {
	case events <- event:
	case <-ctx.Done():
	}
}
