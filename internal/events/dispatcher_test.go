package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type chanSink struct {
	got chan LifecycleEvent
	err error
}

func (s *chanSink) Publish(_ context.Context, event LifecycleEvent) error {
	s.got <- event
	return s.err
}

func TestDispatchFansOutToAllSinks(t *testing.T) {
	first := &chanSink{got: make(chan LifecycleEvent, 1)}
	second := &chanSink{got: make(chan LifecycleEvent, 1)}
	d := NewDispatcher(first, second)

	event := LifecycleEvent{
		OrderID:        "abc123",
		PreviousStatus: "Pending",
		NewStatus:      "Preparing",
		TriggerType:    TriggerStatusChange,
		Actor:          Actor{ID: "admin1", Role: "admin"},
	}
	d.Dispatch(event)

	for _, sink := range []*chanSink{first, second} {
		select {
		case got := <-sink.got:
			if got != event {
				t.Fatalf("sink received %+v, want %+v", got, event)
			}
		case <-time.After(time.Second):
			t.Fatal("sink never received the event")
		}
	}
}

func TestDispatchFailingSinkDoesNotBlockOthers(t *testing.T) {
	failing := &chanSink{got: make(chan LifecycleEvent, 1), err: errors.New("broker down")}
	healthy := &chanSink{got: make(chan LifecycleEvent, 1)}
	d := NewDispatcher(failing, healthy)

	d.Dispatch(LifecycleEvent{OrderID: "abc123", NewStatus: "Pending", TriggerType: TriggerOrderCreated})

	select {
	case <-healthy.got:
	case <-time.After(time.Second):
		t.Fatal("healthy sink never received the event after a failing sink")
	}
}

func TestDispatchWithoutSinksIsNoop(t *testing.T) {
	d := NewDispatcher()
	// Must not panic or spawn anything.
	d.Dispatch(LifecycleEvent{OrderID: "abc123"})
}
