package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon is a discount code definition. Authoring lives in the admin catalog
// tooling; orders only evaluate codes at creation time.
type Coupon struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code              string             `bson:"code" json:"code"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Amount            float64            `bson:"amount,omitempty" json:"amount,omitempty"`
	Percentage        float64            `bson:"percentage,omitempty" json:"percentage,omitempty"`
	MaxDiscountAmount float64            `bson:"maxDiscountAmount,omitempty" json:"maxDiscountAmount,omitempty"`
	MinOrderValue     float64            `bson:"minOrderValue,omitempty" json:"minOrderValue,omitempty"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}
