package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

const transactionsCollection = "transactions"

// TransactionRepo is the MongoDB settlement ledger. Insert-only: there is no
// update or delete path on purpose.
type TransactionRepo struct {
	db *mongo.Database
}

func NewTransactionRepo(db *mongo.Database) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) collection() *mongo.Collection {
	return r.db.Collection(transactionsCollection)
}

func (r *TransactionRepo) Insert(ctx context.Context, tx *models.Transaction) error {
	res, err := r.collection().InsertOne(ctx, tx)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		tx.ID = id
	}
	return nil
}

func (r *TransactionRepo) FindByOrderID(ctx context.Context, orderID primitive.ObjectID) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{"orderId": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *TransactionRepo) ExistsForOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, bson.M{"orderId": orderID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
