package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

const (
	settingsCollection = "settings"
	settingsCacheKey   = "settings:current"
	settingsCacheTTL   = time.Minute
)

// SettingsRepo reads the business-settings document maintained by the admin
// configuration tooling. Reads go through a Redis cache-aside layer when a
// client is configured; cache failures are logged and fall through to Mongo,
// never failing the order.
type SettingsRepo struct {
	db    *mongo.Database
	redis *redis.Client
}

func NewSettingsRepo(db *mongo.Database, redisClient *redis.Client) *SettingsRepo {
	return &SettingsRepo{db: db, redis: redisClient}
}

func (r *SettingsRepo) Current(ctx context.Context) (models.Settings, error) {
	if r.redis != nil {
		cached, err := r.redis.Get(ctx, settingsCacheKey).Result()
		if err == nil {
			var settings models.Settings
			if err := json.Unmarshal([]byte(cached), &settings); err == nil {
				return settings, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Println("[SETTINGS] [WARN] cache read failed:", err)
		}
	}

	var settings models.Settings
	err := r.db.Collection(settingsCollection).FindOne(ctx, bson.M{}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// No settings document yet: zero values, pricing falls back to its
		// built-in GST default and charges no delivery fee.
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(settings); err == nil {
			if err := r.redis.Set(ctx, settingsCacheKey, data, settingsCacheTTL).Err(); err != nil {
				log.Println("[SETTINGS] [WARN] cache write failed:", err)
			}
		}
	}
	return settings, nil
}
