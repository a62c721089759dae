package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

const restaurantKeyPrefix = "tablereserve:restaurant:slug:"

// RestaurantCache is a read-through cache for slug lookups. With a nil Redis
// client every call goes to the database.
type RestaurantCache struct {
	db    *gorm.DB
	redis *redis.Client
	ttl   time.Duration
}

func NewRestaurantCache(db *gorm.DB, client *redis.Client, ttl time.Duration) *RestaurantCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RestaurantCache{db: db, redis: client, ttl: ttl}
}

// BySlug returns gorm.ErrRecordNotFound when no restaurant has the slug.
func (c *RestaurantCache) BySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	slug = models.NormalizeSlug(slug)

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, restaurantKeyPrefix+slug).Bytes()
		switch {
		case err == nil:
			var restaurant models.Restaurant
			if jsonErr := json.Unmarshal(raw, &restaurant); jsonErr == nil {
				return &restaurant, nil
			}
			utils.ErrorLogger.Printf("Discarding unreadable cache entry for restaurant %s", slug)
		case err != redis.Nil:
			utils.ErrorLogger.Printf("Restaurant cache read failed for %s: %v", slug, err)
		}
	}

	var restaurant models.Restaurant
	if err := c.db.WithContext(ctx).Where("slug = ?", slug).First(&restaurant).Error; err != nil {
		return nil, err
	}

	if c.redis != nil {
		if raw, err := json.Marshal(restaurant); err == nil {
			if err := c.redis.Set(ctx, restaurantKeyPrefix+slug, raw, c.ttl).Err(); err != nil {
				utils.ErrorLogger.Printf("Restaurant cache write failed for %s: %v", slug, err)
			}
		}
	}
	return &restaurant, nil
}

func (c *RestaurantCache) Invalidate(ctx context.Context, slugs ...string) {
	if c.redis == nil || len(slugs) == 0 {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		keys = append(keys, restaurantKeyPrefix+models.NormalizeSlug(s))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		utils.ErrorLogger.Printf("Restaurant cache invalidation failed: %v", err)
	}
}
