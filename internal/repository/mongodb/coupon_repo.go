package mongodb

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

const couponsCollection = "coupons"

// CouponRepo looks up discount codes authored by the admin tooling.
type CouponRepo struct {
	db *mongo.Database
}

func NewCouponRepo(db *mongo.Database) *CouponRepo {
	return &CouponRepo{db: db}
}

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.Collection(couponsCollection).FindOne(ctx, bson.M{
		"code":     strings.ToUpper(strings.TrimSpace(code)),
		"isActive": true,
	}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
