package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction is an immutable ledger entry recording one completed settlement
// against an order. Transactions are insert-only: never updated, never deleted.
type Transaction struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID          primitive.ObjectID `bson:"orderId" json:"orderId"`
	CustomerID       primitive.ObjectID `bson:"customerId" json:"customerId"`
	Amount           float64            `bson:"amount" json:"amount"`
	PaymentMethod    string             `bson:"paymentMethod" json:"paymentMethod"`
	ConfirmedByID    primitive.ObjectID `bson:"confirmedById" json:"confirmedById"`
	ConfirmedByRole  string             `bson:"confirmedByRole" json:"confirmedByRole"`
	UPITransactionID string             `bson:"upiTransactionId,omitempty" json:"upiTransactionId,omitempty"`
	GatewayPaymentID string             `bson:"gatewayPaymentId,omitempty" json:"gatewayPaymentId,omitempty"`
	GatewayOrderID   string             `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	GatewaySignature string             `bson:"gatewaySignature,omitempty" json:"gatewaySignature,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}
