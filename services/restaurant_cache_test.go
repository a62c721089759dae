package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablereserve/reservation-app/models"
	"gorm.io/gorm"
)

func setupCache(t *testing.T) (*RestaurantCache, *miniredis.Miniredis, *gorm.DB) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db := setupTestDB(t)
	return NewRestaurantCache(db, client, time.Minute), mr, db
}

func TestRestaurantCacheReadThrough(t *testing.T) {
	cache, mr, db := setupCache(t)
	restaurant := seedRestaurant(t, db, 4)
	ctx := context.Background()

	got, err := cache.BySlug(ctx, " Carmelitas ")
	require.NoError(t, err)
	assert.Equal(t, restaurant.ID, got.ID)
	assert.True(t, mr.Exists(restaurantKeyPrefix+"carmelitas"))

	// Served from Redis even after the row changes.
	require.NoError(t, db.Model(restaurant).Update("name", "Renamed").Error)
	got, err = cache.BySlug(ctx, "carmelitas")
	require.NoError(t, err)
	assert.Equal(t, "Carmelitas", got.Name)
	assert.Equal(t, []string{"5:00 PM", "6:00 PM", "7:30 PM"}, []string(got.TimeSlots))

	cache.Invalidate(ctx, "carmelitas")
	assert.False(t, mr.Exists(restaurantKeyPrefix+"carmelitas"))

	got, err = cache.BySlug(ctx, "carmelitas")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestRestaurantCacheMissingSlug(t *testing.T) {
	cache, mr, _ := setupCache(t)

	_, err := cache.BySlug(context.Background(), "nowhere")

	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.False(t, mr.Exists(restaurantKeyPrefix+"nowhere"))
}

func TestRestaurantCacheFallsBackWhenRedisDown(t *testing.T) {
	cache, mr, db := setupCache(t)
	seedRestaurant(t, db, 4)
	mr.Close()

	got, err := cache.BySlug(context.Background(), "carmelitas")
	require.NoError(t, err)
	assert.Equal(t, "Carmelitas", got.Name)
}

func TestRestaurantCacheWithoutRedis(t *testing.T) {
	db := setupTestDB(t)
	seedRestaurant(t, db, 4)
	cache := NewRestaurantCache(db, nil, 0)

	got, err := cache.BySlug(context.Background(), "carmelitas")
	require.NoError(t, err)
	assert.Equal(t, "Carmelitas", got.Name)
	cache.Invalidate(context.Background(), "carmelitas")

	var count int64
	db.Model(&models.Restaurant{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
