package events

import (
	"context"
	"log"
	"time"
)

// Trigger types carried on lifecycle events.
const (
	TriggerOrderCreated  = "order_created"
	TriggerStatusChange  = "status_change"
	TriggerPaymentUpdate = "payment_update"
	TriggerAgentAssigned = "agent_assigned"
	TriggerAgentRemoved  = "agent_removed"
)

// Actor identifies who triggered a lifecycle event.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// LifecycleEvent is emitted after every committed order mutation and consumed
// by the broadcast/notification collaborators.
type LifecycleEvent struct {
	OrderID        string `json:"orderId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	TriggerType    string `json:"triggerType"`
	Actor          Actor  `json:"actor"`
}

// Sink receives lifecycle events. Implementations must tolerate being called
// after the order mutation has already committed: an error here is logged by
// the dispatcher and goes nowhere else.
type Sink interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// Dispatcher fans lifecycle events out to all registered sinks. Dispatch is
// fire-and-forget: it runs in a goroutine after the mutation commits, and a
// failing sink can never roll back or block the state change it describes.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

func (d *Dispatcher) Dispatch(event LifecycleEvent) {
	if len(d.sinks) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, sink := range d.sinks {
			if err := sink.Publish(ctx, event); err != nil {
				log.Printf("[EVENTS] [ERROR] sink publish failed for order %s: %v", event.OrderID, err)
			}
		}
	}()
}
