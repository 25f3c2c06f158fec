package models

// Settings is the business configuration relevant to order pricing. A copy is
// frozen onto every order at creation time (appliedSettings), so later
// configuration changes never alter already-persisted breakdowns.
type Settings struct {
	GSTPercentage         float64 `bson:"gstPercentage" json:"gstPercentage"`
	ApplyGST              bool    `bson:"applyGST" json:"applyGST"`
	DeliveryFixedCharge   float64 `bson:"deliveryFixedCharge" json:"deliveryFixedCharge"`
	FreeDeliveryThreshold float64 `bson:"freeDeliveryThreshold" json:"freeDeliveryThreshold"`
	ApplyToAllOrders      bool    `bson:"applyToAllOrders" json:"applyToAllOrders"`
	MinimumOrderValue     float64 `bson:"minimumOrderValue" json:"minimumOrderValue"`
}
