package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
	"backend/internal/repository"
)

const ordersCollection = "orders"

// OrderRepo is the MongoDB implementation of repository.OrderRepository.
// Guarded updates use findOneAndUpdate with the expected prior state in the
// filter, so a racing writer that already moved the order simply fails to
// match instead of overwriting.
type OrderRepo struct {
	db *mongo.Database
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) collection() *mongo.Collection {
	return r.db.Collection(ordersCollection)
}

func (r *OrderRepo) Insert(ctx context.Context, order *models.Order) error {
	res, err := r.collection().InsertOne(ctx, order)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func buildFilter(filter repository.OrderFilter) bson.M {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		q["paymentStatus"] = filter.PaymentStatus
	}
	if filter.CustomerID != nil {
		q["customerId"] = *filter.CustomerID
	}
	if filter.DeliveryAgentID != nil {
		q["deliveryAgentId"] = *filter.DeliveryAgentID
	}
	return q
}

func (r *OrderRepo) Find(ctx context.Context, filter repository.OrderFilter, page, limit int64) ([]models.Order, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection().Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) Count(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	return r.collection().CountDocuments(ctx, buildFilter(filter))
}

// findOneAndUpdate returning the post-update document; (nil, nil) when the
// guard filter matched nothing.
func (r *OrderRepo) guardedUpdate(ctx context.Context, filter bson.M, update bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, expectedStatus string, update repository.StatusUpdate) (*models.Order, error) {
	set := bson.M{
		"status":    update.Status,
		"updatedAt": time.Now(),
	}
	if update.EstimatedDeliveryTime != nil {
		set["estimatedDeliveryTime"] = *update.EstimatedDeliveryTime
	}

	return r.guardedUpdate(ctx,
		bson.M{"_id": id, "status": expectedStatus},
		bson.M{
			"$set":  set,
			"$push": bson.M{"statusHistory": update.HistoryEntry},
		},
	)
}

func (r *OrderRepo) UpdatePaymentGuarded(ctx context.Context, id primitive.ObjectID, expectedPaymentStatus string, update repository.PaymentUpdate) (*models.Order, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.PaymentStatus != "" {
		set["paymentStatus"] = update.PaymentStatus
	}
	if update.PaymentMethod != "" {
		set["paymentMethod"] = update.PaymentMethod
	}
	if update.Status != "" {
		set["status"] = update.Status
	}
	if update.PaymentDetails != nil {
		if update.PaymentDetails.UPITransactionID != "" {
			set["paymentDetails.upiTransactionId"] = update.PaymentDetails.UPITransactionID
		}
		if update.PaymentDetails.GatewayPaymentID != "" {
			set["paymentDetails.gatewayPaymentId"] = update.PaymentDetails.GatewayPaymentID
		}
		if update.PaymentDetails.GatewayOrderID != "" {
			set["paymentDetails.gatewayOrderId"] = update.PaymentDetails.GatewayOrderID
		}
		if update.PaymentDetails.GatewaySignature != "" {
			set["paymentDetails.gatewaySignature"] = update.PaymentDetails.GatewaySignature
		}
	}

	filter := bson.M{"_id": id, "paymentStatus": expectedPaymentStatus}
	if update.Status != "" {
		filter["status"] = update.ExpectedStatus
	}

	return r.guardedUpdate(ctx,
		filter,
		bson.M{
			"$set":  set,
			"$push": bson.M{"statusHistory": update.HistoryEntry},
		},
	)
}

func (r *OrderRepo) UpdateAssignment(ctx context.Context, id primitive.ObjectID, update repository.AssignmentUpdate) (*models.Order, error) {
	var mutation bson.M
	if update.AgentID != nil {
		mutation = bson.M{
			"$set": bson.M{
				"deliveryAgentId":   *update.AgentID,
				"deliveryAgentName": update.AgentName,
				"updatedAt":         time.Now(),
			},
			"$push": bson.M{"statusHistory": update.HistoryEntry},
		}
	} else {
		mutation = bson.M{
			"$set":   bson.M{"updatedAt": time.Now()},
			"$unset": bson.M{"deliveryAgentId": "", "deliveryAgentName": ""},
			"$push":  bson.M{"statusHistory": update.HistoryEntry},
		}
	}
	return r.guardedUpdate(ctx, bson.M{"_id": id}, mutation)
}

// UpdateRatingGuarded writes the rating only while the order is Delivered and
// unrated, making the rating effectively write-once.
func (r *OrderRepo) UpdateRatingGuarded(ctx context.Context, id primitive.ObjectID, rating int) (*models.Order, error) {
	return r.guardedUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": models.StatusDelivered,
			"rating": bson.M{"$in": bson.A{nil, 0}},
		},
		bson.M{"$set": bson.M{"rating": rating, "updatedAt": time.Now()}},
	)
}
