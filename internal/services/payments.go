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

// ReconcileInput is the payment reconciliation request. Gateway signature
// verification happens at the payment gateway before this call; Details carry
// only the opaque reference identifiers to record.
type ReconcileInput struct {
	PaymentStatus     string
	PaymentMethod     string
	Details           *models.PaymentDetails
	Status            string
	CreateTransaction bool
}

// ReconcileResult is returned on success. Transaction is nil unless this call
// created a ledger entry.
type ReconcileResult struct {
	Order       *models.Order
	Transaction *models.Transaction
}

// PaymentService owns paymentStatus/paymentMethod/paymentDetails updates and
// the exactly-once creation of Transaction ledger entries.
type PaymentService struct {
	orders       repository.OrderRepository
	transactions repository.TransactionRepository
	events       *events.Dispatcher
}

func NewPaymentService(orders repository.OrderRepository, transactions repository.TransactionRepository, dispatcher *events.Dispatcher) *PaymentService {
	return &PaymentService{orders: orders, transactions: transactions, events: dispatcher}
}

// Reconcile applies the payment mutation and, when the call settles the
// order, appends exactly one ledger entry.
//
// The write guard is the paymentStatus persisted before this mutation, not
// anything the caller claims: the status flip is a conditional update on that
// prior value, so of two racing completions only one matches and only that
// one inserts a Transaction. A call against an already-Completed order may
// still update fields but never produces a second ledger row.
func (s *PaymentService) Reconcile(ctx context.Context, actor Actor, orderID primitive.ObjectID, in ReconcileInput) (*ReconcileResult, error) {
	if err := validateReconcileInput(in); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}

	method := order.PaymentMethod
	if in.PaymentMethod != "" {
		method = in.PaymentMethod
	}

	if err := authorizeReconcile(actor, order, in); err != nil {
		return nil, err
	}

	if in.Status != "" {
		// A reconcile-carried status change obeys the same role-gated
		// transition table as a direct transition, evaluated against the
		// payment state this call is writing.
		effective := *order
		if in.PaymentStatus != "" {
			effective.PaymentStatus = in.PaymentStatus
		}
		if in.PaymentMethod != "" {
			effective.PaymentMethod = in.PaymentMethod
		}
		if err := validateTransition(actor, &effective, in.Status); err != nil {
			return nil, err
		}
	}

	if in.PaymentStatus == models.PaymentCompleted && method == models.MethodOnline {
		if in.Details == nil || in.Details.GatewayPaymentID == "" || in.Details.GatewayOrderID == "" || in.Details.GatewaySignature == "" {
			return nil, &ValidationError{Msg: "online payment completion requires gateway payment, order and signature identifiers"}
		}
	}

	wasCompleted := order.PaymentStatus == models.PaymentCompleted

	note := fmt.Sprintf("Payment updated by %s", actor.Role)
	if in.PaymentStatus != "" {
		note = fmt.Sprintf("Payment marked %s via %s by %s", in.PaymentStatus, method, actor.Role)
	}

	status := order.Status
	if in.Status != "" {
		status = in.Status
	}
	updated, err := s.orders.UpdatePaymentGuarded(ctx, orderID, order.PaymentStatus, repository.PaymentUpdate{
		PaymentStatus:  in.PaymentStatus,
		PaymentMethod:  in.PaymentMethod,
		PaymentDetails: in.Details,
		Status:         in.Status,
		ExpectedStatus: order.Status,
		HistoryEntry: models.StatusHistoryEntry{
			Status:    status,
			Timestamp: time.Now(),
			Note:      note,
		},
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Guard miss: the order moved between load and write. The racing
		// caller won; this one must not double-settle or clobber its status.
		current, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, &NotFoundError{Resource: "order"}
		}
		return nil, &StateError{Msg: fmt.Sprintf("order changed concurrently (status %s, payment %s)", current.Status, current.PaymentStatus)}
	}

	result := &ReconcileResult{Order: updated}

	if s.shouldCreateTransaction(actor, in, method, wasCompleted) {
		tx := buildTransaction(updated, actor, method, in.Details)
		if err := s.transactions.Insert(ctx, tx); err != nil {
			return nil, err
		}
		result.Transaction = tx
	}

	s.events.Dispatch(events.LifecycleEvent{
		OrderID:        updated.ID.Hex(),
		PreviousStatus: order.Status,
		NewStatus:      updated.Status,
		TriggerType:    events.TriggerPaymentUpdate,
		Actor:          actor.eventActor(),
	})
	return result, nil
}

func validateReconcileInput(in ReconcileInput) error {
	if in.PaymentStatus == "" && in.PaymentMethod == "" && in.Details == nil && in.Status == "" {
		return &ValidationError{Msg: "no payment fields to update"}
	}
	if in.PaymentStatus != "" && !models.IsValidPaymentStatus(in.PaymentStatus) {
		return &ValidationError{Msg: fmt.Sprintf("unknown payment status %q", in.PaymentStatus)}
	}
	if in.PaymentMethod != "" && !models.IsValidPaymentMethod(in.PaymentMethod) {
		return &ValidationError{Msg: fmt.Sprintf("unknown payment method %q", in.PaymentMethod)}
	}
	if in.Status != "" && !models.IsValidStatus(in.Status) {
		return &ValidationError{Msg: fmt.Sprintf("unknown status %q", in.Status)}
	}
	return nil
}

// authorizeReconcile applies the reconciliation permission matrix: admin any
// order, agent assigned orders, customer own order and online payments only.
// The customer checks run against the payment method persisted on the order,
// never one named in the request, so a customer can neither confirm receipt of
// their own cash nor convert a cash order into an online one.
func authorizeReconcile(actor Actor, order *models.Order, in ReconcileInput) error {
	switch {
	case actor.IsAdmin():
		return nil

	case actor.IsDeliveryAgent():
		if !order.AssignedTo(actor.ID) {
			return &AuthorizationError{Msg: "order is not assigned to this delivery agent"}
		}
		return nil

	case actor.IsCustomer():
		if order.CustomerID != actor.ID {
			return &AuthorizationError{Msg: "order belongs to another customer"}
		}
		if in.PaymentMethod != "" && in.PaymentMethod != order.PaymentMethod {
			return &AuthorizationError{Msg: "customers cannot change the payment method"}
		}
		if order.PaymentMethod != models.MethodOnline {
			return &AuthorizationError{Msg: "customers may only report online gateway payments"}
		}
		if in.Status != "" {
			return &AuthorizationError{Msg: "customers cannot change order status here"}
		}
		return nil
	}

	return &AuthorizationError{Msg: "unknown role"}
}

// shouldCreateTransaction implements the ledger-creation policy: an explicit
// request, or the automatic entry when a delivery agent confirms a cash/UPI
// settlement. wasCompleted reflects the paymentStatus persisted before this
// mutation and is the write-once guard.
func (s *PaymentService) shouldCreateTransaction(actor Actor, in ReconcileInput, method string, wasCompleted bool) bool {
	if wasCompleted || in.PaymentStatus != models.PaymentCompleted {
		return false
	}
	if in.CreateTransaction {
		return true
	}
	if actor.IsDeliveryAgent() && (method == models.MethodCashOnDelivery || method == models.MethodUPI) {
		return true
	}
	return false
}

func buildTransaction(order *models.Order, actor Actor, method string, details *models.PaymentDetails) *models.Transaction {
	tx := &models.Transaction{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Amount:          order.Pricing.Total,
		PaymentMethod:   method,
		ConfirmedByID:   actor.ID,
		ConfirmedByRole: actor.Role,
		CreatedAt:       time.Now(),
	}
	if details != nil {
		tx.UPITransactionID = details.UPITransactionID
		tx.GatewayPaymentID = details.GatewayPaymentID
		tx.GatewayOrderID = details.GatewayOrderID
		tx.GatewaySignature = details.GatewaySignature
	}
	return tx
}

// LedgerForOrder lists the order's settlement history (admin reporting).
func (s *PaymentService) LedgerForOrder(ctx context.Context, actor Actor, orderID primitive.ObjectID) ([]models.Transaction, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}
	if err := canReadOrder(actor, order); err != nil {
		return nil, err
	}
	return s.transactions.FindByOrderID(ctx, orderID)
}
