package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/events"
	"backend/internal/models"
	"backend/internal/pricing"
	"backend/internal/repository"
)

// CreateOrderInput is the validated input for placing an order. Item prices
// arrive resolved from the catalog collaborator.
type CreateOrderInput struct {
	Items           []pricing.Item
	DeliveryAddress string
	PaymentMethod   string
	CouponCode      string
	CustomerName    string
	CustomerPhone   string
}

// ListOrdersInput narrows the role-scoped order listing.
type ListOrdersInput struct {
	Status        string
	PaymentStatus string
	CustomerID    string
	AgentID       string
	Page          int64
	Limit         int64
}

// OrderService handles order creation and role-scoped reads.
type OrderService struct {
	orders   repository.OrderRepository
	coupons  repository.CouponRepository
	settings repository.SettingsRepository
	events   *events.Dispatcher
}

func NewOrderService(orders repository.OrderRepository, coupons repository.CouponRepository, settings repository.SettingsRepository, dispatcher *events.Dispatcher) *OrderService {
	return &OrderService{orders: orders, coupons: coupons, settings: settings, events: dispatcher}
}

// CreateOrder computes the pricing breakdown from a settings snapshot taken
// at this instant, freezes both onto the order, and persists it as Pending.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Msg: "at least one item is required"}
	}
	if !models.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, &ValidationError{Msg: "invalid payment method"}
	}
	if in.DeliveryAddress == "" {
		return nil, &ValidationError{Msg: "delivery address is required"}
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		log.Println("[ORDER] [ERROR] settings read failed:", err)
		return nil, err
	}

	discount, err := s.resolveDiscount(ctx, in.CouponCode)
	if err != nil {
		return nil, err
	}

	breakdown, items, err := pricing.Compute(in.Items, settings, discount)
	if err != nil {
		// Everything the engine rejects is an input problem.
		return nil, &ValidationError{Msg: err.Error()}
	}

	now := time.Now()
	order := &models.Order{
		CustomerID:      actor.ID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		DeliveryAddress: in.DeliveryAddress,
		Items:           items,
		Status:          models.StatusPending,
		StatusHistory: []models.StatusHistoryEntry{{
			Status:    models.StatusPending,
			Timestamp: now,
			Note:      "Order created",
		}},
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		Pricing:         breakdown,
		AppliedSettings: settings,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	s.events.Dispatch(events.LifecycleEvent{
		OrderID:     order.ID.Hex(),
		NewStatus:   models.StatusPending,
		TriggerType: events.TriggerOrderCreated,
		Actor:       actor.eventActor(),
	})
	return order, nil
}

func (s *OrderService) resolveDiscount(ctx context.Context, code string) (*pricing.DiscountInput, error) {
	if code == "" {
		return nil, nil
	}
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown discount code %q", code)}
	}
	return &pricing.DiscountInput{
		Amount:        coupon.Amount,
		Percentage:    coupon.Percentage,
		MaxAmount:     coupon.MaxDiscountAmount,
		MinOrderValue: coupon.MinOrderValue,
		Code:          coupon.Code,
		Description:   coupon.Description,
	}, nil
}

// GetOrder returns one order, scoped by role: customers see their own orders,
// agents their assigned ones, admins any.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}
	if err := canReadOrder(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func canReadOrder(actor Actor, order *models.Order) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsCustomer() && order.CustomerID == actor.ID:
		return nil
	case actor.IsDeliveryAgent() && order.AssignedTo(actor.ID):
		return nil
	}
	return &AuthorizationError{Msg: "no access to this order"}
}

// ListOrders returns a filtered page of orders plus the total match count.
// Non-admin callers are always pinned to their own slice of the data; filter
// parameters cannot widen it.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, in ListOrdersInput) ([]models.Order, int64, error) {
	filter := repository.OrderFilter{
		Status:        in.Status,
		PaymentStatus: in.PaymentStatus,
	}
	if in.Status != "" && !models.IsValidStatus(in.Status) {
		return nil, 0, &ValidationError{Msg: "invalid status filter"}
	}

	switch {
	case actor.IsCustomer():
		id := actor.ID
		filter.CustomerID = &id
	case actor.IsDeliveryAgent():
		id := actor.ID
		filter.DeliveryAgentID = &id
	default:
		if in.CustomerID != "" {
			id, err := primitive.ObjectIDFromHex(in.CustomerID)
			if err != nil {
				return nil, 0, &ValidationError{Msg: "invalid customer id"}
			}
			filter.CustomerID = &id
		}
		if in.AgentID != "" {
			id, err := primitive.ObjectIDFromHex(in.AgentID)
			if err != nil {
				return nil, 0, &ValidationError{Msg: "invalid agent id"}
			}
			filter.DeliveryAgentID = &id
		}
	}

	orders, err := s.orders.Find(ctx, filter, in.Page, in.Limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
