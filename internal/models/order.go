package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. These strings are part of the API contract.
const (
	StatusPending        = "Pending"
	StatusPreparing      = "Preparing"
	StatusOutForDelivery = "Out for delivery"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
)

// Payment status values.
const (
	PaymentPending   = "Pending"
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
	PaymentRefunded  = "Refunded"
)

// Payment methods.
const (
	MethodOnline         = "Online"
	MethodCashOnDelivery = "CashOnDelivery"
	MethodUPI            = "UPI"
)

// IsTerminalStatus reports whether no further transition is allowed out of s.
func IsTerminalStatus(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// IsValidPaymentMethod reports whether m is a supported payment method.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case MethodOnline, MethodCashOnDelivery, MethodUPI:
		return true
	}
	return false
}

// ItemModifier is a priced customization (add-on, topping) on an order item.
type ItemModifier struct {
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
}

// OrderItem is a single line of an order. Prices are snapshots taken at
// order time; the catalog may change afterwards without affecting them.
type OrderItem struct {
	Name          string         `bson:"name" json:"name"`
	Quantity      int            `bson:"quantity" json:"quantity"`
	UnitBasePrice float64        `bson:"unitBasePrice" json:"unitBasePrice"`
	Modifiers     []ItemModifier `bson:"modifiers,omitempty" json:"modifiers,omitempty"`
	LineTotal     float64        `bson:"lineTotal" json:"lineTotal"`
}

// StatusHistoryEntry is one step of the order's audit trail. Entries are
// append-only and never rewritten.
type StatusHistoryEntry struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Discount is the normalized discount applied to an order.
type Discount struct {
	Amount      float64  `bson:"amount" json:"amount"`
	Percentage  *float64 `bson:"percentage,omitempty" json:"percentage,omitempty"`
	Code        string   `bson:"code,omitempty" json:"code,omitempty"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
}

// Pricing is the order's financial breakdown, computed once at creation and
// immutable thereafter. Invariant: Total == Subtotal + Tax + DeliveryFee -
// Discount.Amount, clamped to >= 0.
type Pricing struct {
	Subtotal      float64  `bson:"subtotal" json:"subtotal"`
	Tax           float64  `bson:"tax" json:"tax"`
	TaxPercentage float64  `bson:"taxPercentage" json:"taxPercentage"`
	DeliveryFee   float64  `bson:"deliveryFee" json:"deliveryFee"`
	Discount      Discount `bson:"discount" json:"discount"`
	Total         float64  `bson:"total" json:"total"`
}

// PaymentDetails carries opaque gateway reference identifiers. Verification
// of these values happens at the payment gateway, not here.
type PaymentDetails struct {
	UPITransactionID string `bson:"upiTransactionId,omitempty" json:"upiTransactionId,omitempty"`
	GatewayPaymentID string `bson:"gatewayPaymentId,omitempty" json:"gatewayPaymentId,omitempty"`
	GatewayOrderID   string `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	GatewaySignature string `bson:"gatewaySignature,omitempty" json:"gatewaySignature,omitempty"`
}

// Order defines the persisted order document. Orders are never physically
// deleted; Cancelled and Delivered orders are retained for audit.
type Order struct {
	ID                    primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CustomerID            primitive.ObjectID   `bson:"customerId" json:"customerId"`
	CustomerName          string               `bson:"customerName" json:"customerName"`
	CustomerPhone         string               `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	DeliveryAddress       string               `bson:"deliveryAddress" json:"deliveryAddress"`
	Items                 []OrderItem          `bson:"items" json:"items"`
	Status                string               `bson:"status" json:"status"`
	StatusHistory         []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	DeliveryAgentID       *primitive.ObjectID  `bson:"deliveryAgentId,omitempty" json:"deliveryAgentId,omitempty"`
	DeliveryAgentName     string               `bson:"deliveryAgentName,omitempty" json:"deliveryAgentName,omitempty"`
	EstimatedDeliveryTime *time.Time           `bson:"estimatedDeliveryTime,omitempty" json:"estimatedDeliveryTime,omitempty"`
	PaymentMethod         string               `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus         string               `bson:"paymentStatus" json:"paymentStatus"`
	PaymentDetails        PaymentDetails       `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	Pricing               Pricing              `bson:"pricing" json:"pricing"`
	AppliedSettings       Settings             `bson:"appliedSettings" json:"appliedSettings"`
	Rating                int                  `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt             time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AssignedTo reports whether the order is assigned to the given delivery agent.
func (o *Order) AssignedTo(agentID primitive.ObjectID) bool {
	return o.DeliveryAgentID != nil && *o.DeliveryAgentID == agentID
}
