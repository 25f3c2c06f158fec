package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/events"
	"backend/internal/models"
	"backend/internal/repository"
)

// ETA applied when an order goes out for delivery without one.
const defaultDeliveryWindow = 30 * time.Minute

// LifecycleService enforces the role-gated order status state machine.
//
// Graph: Pending -> Preparing -> Out for delivery -> Delivered, with
// Cancelled reachable from Pending or Preparing. Delivered and Cancelled are
// terminal for every role, admin included.
type LifecycleService struct {
	orders repository.OrderRepository
	users  repository.UserRepository
	events *events.Dispatcher
}

func NewLifecycleService(orders repository.OrderRepository, users repository.UserRepository, dispatcher *events.Dispatcher) *LifecycleService {
	return &LifecycleService{orders: orders, users: users, events: dispatcher}
}

// Transition moves an order to target on behalf of actor. The persisted write
// is guarded on the status the order had when loaded, so two racing actors
// cannot both win; the loser gets a StateError instead of silently clobbering.
func (s *LifecycleService) Transition(ctx context.Context, actor Actor, orderID primitive.ObjectID, target, note string) (*models.Order, error) {
	if !models.IsValidStatus(target) {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown status %q", target)}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}

	if err := validateTransition(actor, order, target); err != nil {
		return nil, err
	}

	if note == "" {
		note = fmt.Sprintf("Status updated to %s by %s", target, actor.Role)
	}
	update := repository.StatusUpdate{
		Status: target,
		HistoryEntry: models.StatusHistoryEntry{
			Status:    target,
			Timestamp: time.Now(),
			Note:      note,
		},
	}
	if target == models.StatusOutForDelivery && order.EstimatedDeliveryTime == nil {
		eta := time.Now().Add(defaultDeliveryWindow)
		update.EstimatedDeliveryTime = &eta
	}

	updated, err := s.orders.UpdateStatusGuarded(ctx, orderID, order.Status, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Guard miss: the order moved underneath us between load and write.
		current, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, &NotFoundError{Resource: "order"}
		}
		return nil, &StateError{Msg: fmt.Sprintf("order status changed concurrently (now %s)", current.Status)}
	}

	s.events.Dispatch(events.LifecycleEvent{
		OrderID:        updated.ID.Hex(),
		PreviousStatus: order.Status,
		NewStatus:      updated.Status,
		TriggerType:    events.TriggerStatusChange,
		Actor:          actor.eventActor(),
	})
	return updated, nil
}

// validateTransition applies the role-gated transition table. Ownership and
// assignment problems surface as AuthorizationError; an allowed role asking
// for an impossible move surfaces as StateError.
func validateTransition(actor Actor, order *models.Order, target string) error {
	if models.IsTerminalStatus(order.Status) {
		return &StateError{Msg: fmt.Sprintf("order is already %s", order.Status)}
	}

	switch {
	case actor.IsAdmin():
		// Operational override: any non-terminal order, any target.
		return nil

	case actor.IsCustomer():
		if order.CustomerID != actor.ID {
			return &AuthorizationError{Msg: "order belongs to another customer"}
		}
		if target != models.StatusCancelled {
			return &AuthorizationError{Msg: "customers may only cancel orders"}
		}
		if order.Status != models.StatusPending && order.Status != models.StatusPreparing {
			return &StateError{Msg: fmt.Sprintf("cannot cancel an order that is %s", order.Status)}
		}
		return nil

	case actor.IsDeliveryAgent():
		if !order.AssignedTo(actor.ID) {
			return &AuthorizationError{Msg: "order is not assigned to this delivery agent"}
		}
		switch target {
		case models.StatusOutForDelivery:
			if order.Status != models.StatusPreparing {
				return &StateError{Msg: fmt.Sprintf("cannot start delivery from %s", order.Status)}
			}
		case models.StatusDelivered:
			if order.Status != models.StatusOutForDelivery {
				return &StateError{Msg: fmt.Sprintf("cannot deliver from %s", order.Status)}
			}
			if order.PaymentMethod == models.MethodCashOnDelivery && order.PaymentStatus != models.PaymentCompleted {
				return &StateError{Msg: "cash on delivery payment must be completed before delivery"}
			}
		default:
			return &StateError{Msg: fmt.Sprintf("delivery agents cannot set status %s", target)}
		}
		return nil
	}

	return &AuthorizationError{Msg: "unknown role"}
}

// AssignAgent attaches a delivery agent to the order (admin only, enforced at
// the route). Reassignment of an already-assigned order is allowed.
func (s *LifecycleService) AssignAgent(ctx context.Context, actor Actor, orderID, agentID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}
	if models.IsTerminalStatus(order.Status) {
		return nil, &StateError{Msg: fmt.Sprintf("cannot assign an agent to a %s order", order.Status)}
	}

	agent, err := s.users.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, &NotFoundError{Resource: "delivery agent"}
	}
	if agent.Role != models.RoleDeliveryAgent {
		return nil, &ValidationError{Msg: "user is not a delivery agent"}
	}

	updated, err := s.orders.UpdateAssignment(ctx, orderID, repository.AssignmentUpdate{
		AgentID:   &agentID,
		AgentName: agent.Name,
		HistoryEntry: models.StatusHistoryEntry{
			Status:    order.Status,
			Timestamp: time.Now(),
			Note:      fmt.Sprintf("Delivery agent %s assigned", agent.Name),
		},
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &NotFoundError{Resource: "order"}
	}

	s.events.Dispatch(events.LifecycleEvent{
		OrderID:        updated.ID.Hex(),
		PreviousStatus: order.Status,
		NewStatus:      updated.Status,
		TriggerType:    events.TriggerAgentAssigned,
		Actor:          actor.eventActor(),
	})
	return updated, nil
}

// UnassignAgent clears the order's delivery agent (admin only).
func (s *LifecycleService) UnassignAgent(ctx context.Context, actor Actor, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}
	if order.DeliveryAgentID == nil {
		return nil, &StateError{Msg: "order has no delivery agent assigned"}
	}

	updated, err := s.orders.UpdateAssignment(ctx, orderID, repository.AssignmentUpdate{
		HistoryEntry: models.StatusHistoryEntry{
			Status:    order.Status,
			Timestamp: time.Now(),
			Note:      fmt.Sprintf("Delivery agent %s removed", order.DeliveryAgentName),
		},
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &NotFoundError{Resource: "order"}
	}

	s.events.Dispatch(events.LifecycleEvent{
		OrderID:        updated.ID.Hex(),
		PreviousStatus: order.Status,
		NewStatus:      updated.Status,
		TriggerType:    events.TriggerAgentRemoved,
		Actor:          actor.eventActor(),
	})
	return updated, nil
}

// RateOrder records the customer's one-time rating of a delivered order.
func (s *LifecycleService) RateOrder(ctx context.Context, actor Actor, orderID primitive.ObjectID, rating int) (*models.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Msg: "rating must be between 1 and 5"}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}
	if order.CustomerID != actor.ID {
		return nil, &AuthorizationError{Msg: "order belongs to another customer"}
	}
	if order.Status != models.StatusDelivered {
		return nil, &StateError{Msg: "only delivered orders can be rated"}
	}
	if order.Rating != 0 {
		return nil, &StateError{Msg: "order has already been rated"}
	}

	updated, err := s.orders.UpdateRatingGuarded(ctx, orderID, rating)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &StateError{Msg: "order can no longer be rated"}
	}
	return updated, nil
}
