package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// OrderFilter narrows list/count queries. Zero values mean "no constraint".
type OrderFilter struct {
	Status          string
	PaymentStatus   string
	CustomerID      *primitive.ObjectID
	DeliveryAgentID *primitive.ObjectID
}

// StatusUpdate describes a guarded status transition to persist. The history
// entry is appended, never merged into existing entries.
type StatusUpdate struct {
	Status                string
	HistoryEntry          models.StatusHistoryEntry
	EstimatedDeliveryTime *time.Time
}

// PaymentUpdate describes a guarded payment reconciliation to persist. Empty
// string fields are left untouched. When Status is set, ExpectedStatus is the
// order status the write is additionally guarded on, so a reconcile carrying a
// status change cannot overwrite a transition committed in between.
type PaymentUpdate struct {
	PaymentStatus  string
	PaymentMethod  string
	PaymentDetails *models.PaymentDetails
	Status         string
	ExpectedStatus string
	HistoryEntry   models.StatusHistoryEntry
}

// AssignmentUpdate sets or clears the order's delivery agent.
type AssignmentUpdate struct {
	AgentID      *primitive.ObjectID
	AgentName    string
	HistoryEntry models.StatusHistoryEntry
}

// OrderRepository persists the full Order aggregate (items, history, pricing,
// payment fields inline). Find methods return (nil, nil) when no document
// matches. The guarded update methods perform atomic conditional writes: the
// update applies only if the persisted status (or payment status) still equals
// the expected value, and they return (nil, nil) when the guard does not
// match. This is what makes concurrent multi-role mutation race-safe.
type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Find(ctx context.Context, filter OrderFilter, page, limit int64) ([]models.Order, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, expectedStatus string, update StatusUpdate) (*models.Order, error)
	UpdatePaymentGuarded(ctx context.Context, id primitive.ObjectID, expectedPaymentStatus string, update PaymentUpdate) (*models.Order, error)
	UpdateAssignment(ctx context.Context, id primitive.ObjectID, update AssignmentUpdate) (*models.Order, error)
	UpdateRatingGuarded(ctx context.Context, id primitive.ObjectID, rating int) (*models.Order, error)
}

// TransactionRepository is the insert-only settlement ledger.
type TransactionRepository interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	FindByOrderID(ctx context.Context, orderID primitive.ObjectID) ([]models.Transaction, error)
	ExistsForOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error)
}

// SettingsRepository exposes the business-settings collaborator. Current is
// called once per order creation; the returned value is frozen into the order.
type SettingsRepository interface {
	Current(ctx context.Context) (models.Settings, error)
}

// CouponRepository evaluates discount codes at the order-input boundary.
// FindByCode returns (nil, nil) for unknown codes.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// UserRepository resolves actors referenced by orders (delivery agents,
// customer display fields). FindByID returns (nil, nil) when absent.
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
