package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// callsFromEvents assembles tool calls from a canonical event sequence
// the way a consumer would: a start opens a slot, argument fragments
// are concatenated in arrival order, calls are returned in open order.
func callsFromEvents(events []Event) []ToolCall {
	type builder struct {
		id   string
		name string
		args strings.Builder
	}
	byIndex := map[int]*builder{}
	var order []int
	for _, event := range events {
		switch event.Type {
		case EventToolCallStart:
			byIndex[event.Index] = &builder{id: event.ID, name: event.Name}
			order = append(order, event.Index)
		case EventToolCallArgDelta:
			if b, ok := byIndex[event.Index]; ok {
				b.args.WriteString(event.Fragment)
			}
		}
	}
	calls := make([]ToolCall, 0, len(order))
	for _, index := range order {
		b := byIndex[index]
		calls = append(calls, ToolCall{ID: b.id, Name: b.name, Arguments: b.args.String()})
	}
	return calls
}

// sameParsedArgs reports whether two argument strings decode to equal
// JSON objects.
func sameParsedArgs(t *testing.T, a, b string) bool {
	t.Helper()
	var objA, objB map[string]any
	if err := json.Unmarshal([]byte(a), &objA); err != nil {
		t.Fatalf("bad JSON %q: %v", a, err)
	}
	if err := json.Unmarshal([]byte(b), &objB); err != nil {
		t.Fatalf("bad JSON %q: %v", b, err)
	}
	return reflect.DeepEqual(objA, objB)
}

func TestTurnReason(t *testing.T) {
	if got := turnReason(0); got != ReasonStop {
		t.Errorf("turnReason(0) = %q, want %q", got, ReasonStop)
	}
	if got := turnReason(1); got != ReasonToolCalls {
		t.Errorf("turnReason(1) = %q, want %q", got, ReasonToolCalls)
	}
	if got := turnReason(3); got != ReasonToolCalls {
		t.Errorf("turnReason(3) = %q, want %q", got, ReasonToolCalls)
	}
}

func TestEventStreamDeliversInOrder(t *testing.T) {
	want := []Event{
		{Type: EventTextDelta, Text: "a"},
		{Type: EventToolCallStart, Index: 0, ID: "call_1", Name: "get_status"},
		{Type: EventToolCallArgDelta, Index: 0, Fragment: "{}"},
		{Type: EventToolCallEnd, Index: 0},
		{Type: EventTurnComplete, Reason: ReasonToolCalls},
	}

	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		for _, event := range want {
			emit(ctx, events, event)
		}
		return nil
	})
	defer s.Close()

	for i, wantEvent := range want {
		got, err := s.Recv()
		if err != nil {
			t.Fatalf("Recv %d: unexpected error: %v", i, err)
		}
		if got != wantEvent {
			t.Errorf("event %d = %+v, want %+v", i, got, wantEvent)
		}
	}

	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("expected io.EOF after clean end, got %v", err)
	}
	// EOF is sticky.
	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("expected io.EOF on repeated Recv, got %v", err)
	}
}

func TestEventStreamSurfacesProducerError(t *testing.T) {
	wantErr := errors.New("upstream broke")

	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		emit(ctx, events, Event{Type: EventTextDelta, Text: "partial"})
		return wantErr
	})
	defer s.Close()

	if _, err := s.Recv(); err != nil {
		t.Fatalf("first Recv should deliver the buffered event, got %v", err)
	}
	if _, err := s.Recv(); !errors.Is(err, wantErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
	// The error is sticky too.
	if _, err := s.Recv(); !errors.Is(err, wantErr) {
		t.Fatalf("expected producer error on repeated Recv, got %v", err)
	}
}

func TestEventStreamCloseUnblocksProducer(t *testing.T) {
	producerDone := make(chan struct{})

	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		defer close(producerDone)
		// More events than the channel buffers; Close must drain or
		// cancel so this loop can finish.
		for i := 0; i < 100; i++ {
			emit(ctx, events, Event{Type: EventTextDelta, Text: "x"})
		}
		return nil
	})

	if _, err := s.Recv(); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	<-producerDone
}

func TestIndexedCallAccumulatorAssemblesSplitName(t *testing.T) {
	ctx := context.Background()
	events := make(chan Event, 16)
	acc := newIndexedCallAccumulator()

	// Name arrives split across frames before any arguments.
	acc.add(ctx, events, 0, "call_9", "get_", "")
	acc.add(ctx, events, 0, "", "config", "")
	acc.add(ctx, events, 0, "", "", `{"key":`)
	acc.add(ctx, events, 0, "", "", `"port"}`)
	opened := acc.closeAll(ctx, events)
	close(events)

	if opened != 1 {
		t.Fatalf("opened = %d, want 1", opened)
	}

	var got []Event
	for event := range events {
		got = append(got, event)
	}
	want := []Event{
		{Type: EventToolCallStart, Index: 0, ID: "call_9", Name: "get_config"},
		{Type: EventToolCallArgDelta, Index: 0, Fragment: `{"key":`},
		{Type: EventToolCallArgDelta, Index: 0, Fragment: `"port"}`},
		{Type: EventToolCallEnd, Index: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestIndexedCallAccumulatorArglessCall(t *testing.T) {
	ctx := context.Background()
	events := make(chan Event, 16)
	acc := newIndexedCallAccumulator()

	acc.add(ctx, events, 0, "call_1", "get_status", "")
	opened := acc.closeAll(ctx, events)
	close(events)

	if opened != 1 {
		t.Fatalf("opened = %d, want 1", opened)
	}

	var got []Event
	for event := range events {
		got = append(got, event)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want start and end: %+v", len(got), got)
	}
	if got[0].Type != EventToolCallStart || got[0].Name != "get_status" {
		t.Errorf("first event = %+v, want start with assembled name", got[0])
	}
	if got[1].Type != EventToolCallEnd {
		t.Errorf("second event = %+v, want end", got[1])
	}
}

func TestIndexedCallAccumulatorParallelCalls(t *testing.T) {
	ctx := context.Background()
	events := make(chan Event, 32)
	acc := newIndexedCallAccumulator()

	// Two calls interleaved by index, as chat-completions streams them.
	acc.add(ctx, events, 0, "call_a", "get_config", "")
	acc.add(ctx, events, 0, "", "", `{"key":"host"}`)
	acc.add(ctx, events, 1, "call_b", "get_logs", "")
	acc.add(ctx, events, 1, "", "", `{"lines":10}`)
	opened := acc.closeAll(ctx, events)
	close(events)

	if opened != 2 {
		t.Fatalf("opened = %d, want 2", opened)
	}

	var ends []int
	for event := range events {
		if event.Type == EventToolCallEnd {
			ends = append(ends, event.Index)
		}
	}
	if len(ends) != 2 || ends[0] != 0 || ends[1] != 1 {
		t.Errorf("end events in index order expected, got %v", ends)
	}
}
