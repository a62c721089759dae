package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/realtime"
	"github.com/tablereserve/reservation-app/services"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RestaurantController struct {
	DB    *gorm.DB
	Cache *services.RestaurantCache
}

func NewRestaurantController(db *gorm.DB, cache *services.RestaurantCache) *RestaurantController {
	return &RestaurantController{DB: db, Cache: cache}
}

type restaurantBody struct {
	Name                   *string         `json:"name"`
	Slug                   *string         `json:"slug"`
	Address                *string         `json:"address"`
	Phone                  *string         `json:"phone"`
	Description            *string         `json:"description"`
	TimeSlots              json.RawMessage `json:"time_slots"`
	MaxPartySize           *int            `json:"max_party_size"`
	MaxReservationsPerSlot *int            `json:"max_reservations_per_slot"`
}

// parseTimeSlotsField accepts ["5:00 PM", ...] or "5:00 PM, 6:00 PM".
func parseTimeSlotsField(raw json.RawMessage) ([]string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		slots := make([]string, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				slots = append(slots, s)
			}
		}
		return slots, true, nil
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err != nil {
		return nil, false, errors.New("time_slots must be an array or a comma separated string")
	}
	return models.ParseTimeSlots(csv), true, nil
}

func validateLimits(body restaurantBody) error {
	if body.MaxPartySize != nil && *body.MaxPartySize < 0 {
		return errors.New("max_party_size cannot be negative")
	}
	if body.MaxReservationsPerSlot != nil && *body.MaxReservationsPerSlot < 0 {
		return errors.New("max_reservations_per_slot cannot be negative")
	}
	return nil
}

// GetAllRestaurants -> newest first
func (rc *RestaurantController) GetAllRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := rc.DB.WithContext(c.Request.Context()).Order("created_at DESC").Find(&restaurants).Error; err != nil {
		respondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of restaurants", restaurants)
}

func (rc *RestaurantController) GetRestaurantBySlug(c *gin.Context) {
	restaurant, err := rc.Cache.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, ErrRestaurantNotFound)
			return
		}
		respondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}

// CreateRestaurant -> super admin only
func (rc *RestaurantController) CreateRestaurant(c *gin.Context) {
	var body restaurantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	if err := validateLimits(body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	slots, _, err := parseTimeSlotsField(body.TimeSlots)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurant := models.Restaurant{
		Name:                   strings.TrimSpace(*body.Name),
		TimeSlots:              datatypes.JSONSlice[string](slots),
		MaxPartySize:           models.DefaultMaxPartySize,
		MaxReservationsPerSlot: models.DefaultMaxReservationsPerSlot,
	}
	restaurant.Slug = models.NormalizeSlug(restaurant.Name)
	if body.Slug != nil && strings.TrimSpace(*body.Slug) != "" {
		restaurant.Slug = models.NormalizeSlug(*body.Slug)
	}
	if body.Address != nil {
		restaurant.Address = *body.Address
	}
	if body.Phone != nil {
		restaurant.Phone = *body.Phone
	}
	if body.Description != nil {
		restaurant.Description = *body.Description
	}
	if body.MaxPartySize != nil && *body.MaxPartySize > 0 {
		restaurant.MaxPartySize = *body.MaxPartySize
	}
	if body.MaxReservationsPerSlot != nil && *body.MaxReservationsPerSlot > 0 {
		restaurant.MaxReservationsPerSlot = *body.MaxReservationsPerSlot
	}

	if err := rc.DB.WithContext(c.Request.Context()).Create(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, http.StatusConflict, fmt.Errorf("slug %q already in use", restaurant.Slug))
			return
		}
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("New restaurant created: %s (slug=%s)", restaurant.Name, restaurant.Slug)
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created successfully", restaurant)
}

// UpdateRestaurant -> admins may edit their own restaurant
func (rc *RestaurantController) UpdateRestaurant(c *gin.Context) {
	actor, ok := requireActor(rc.DB, c)
	if !ok {
		return
	}

	var restaurant models.Restaurant
	if err := rc.DB.WithContext(c.Request.Context()).Where("slug = ?", models.NormalizeSlug(c.Param("slug"))).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, ErrRestaurantNotFound)
			return
		}
		respondInternal(c, err)
		return
	}
	if !actor.CanManage(restaurant.ID) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var body restaurantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := validateLimits(body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]interface{}{}
	if body.Name != nil {
		if strings.TrimSpace(*body.Name) == "" {
			utils.RespondError(c, http.StatusBadRequest, errors.New("name cannot be empty"))
			return
		}
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Slug != nil && strings.TrimSpace(*body.Slug) != "" {
		updates["slug"] = models.NormalizeSlug(*body.Slug)
	}
	if body.Address != nil {
		updates["address"] = *body.Address
	}
	if body.Phone != nil {
		updates["phone"] = *body.Phone
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.MaxPartySize != nil {
		updates["max_party_size"] = *body.MaxPartySize
	}
	if body.MaxReservationsPerSlot != nil {
		updates["max_reservations_per_slot"] = *body.MaxReservationsPerSlot
	}
	slots, present, err := parseTimeSlotsField(body.TimeSlots)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if present {
		updates["time_slots"] = datatypes.JSONSlice[string](slots)
	}

	oldSlug := restaurant.Slug
	if len(updates) > 0 {
		if err := rc.DB.WithContext(c.Request.Context()).Model(&restaurant).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.RespondError(c, http.StatusConflict, errors.New("slug already in use"))
				return
			}
			respondInternal(c, err)
			return
		}
	}
	if err := rc.DB.WithContext(c.Request.Context()).First(&restaurant, restaurant.ID).Error; err != nil {
		respondInternal(c, err)
		return
	}
	rc.Cache.Invalidate(c.Request.Context(), oldSlug, restaurant.Slug)

	realtime.BroadcastRestaurant(realtime.EventRestaurantUpdated, restaurant)
	utils.InfoLogger.Printf("Restaurant %d updated by user %d", restaurant.ID, actor.UserID)
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", restaurant)
}

// DeleteRestaurant -> refused while reservations reference the restaurant
func (rc *RestaurantController) DeleteRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := rc.DB.WithContext(c.Request.Context()).Where("slug = ?", models.NormalizeSlug(c.Param("slug"))).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, ErrRestaurantNotFound)
			return
		}
		respondInternal(c, err)
		return
	}

	var count int64
	if err := rc.DB.WithContext(c.Request.Context()).Model(&models.Reservation{}).Where("restaurant_id = ?", restaurant.ID).Count(&count).Error; err != nil {
		respondInternal(c, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, ErrRestaurantHasBooking)
		return
	}

	err := rc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", restaurant.ID).Delete(&models.SlotLock{}).Error; err != nil {
			return err
		}
		return tx.Delete(&restaurant).Error
	})
	if err != nil {
		respondInternal(c, err)
		return
	}
	rc.Cache.Invalidate(c.Request.Context(), restaurant.Slug)

	realtime.BroadcastRestaurant(realtime.EventRestaurantDeleted, restaurant)
	utils.InfoLogger.Printf("Restaurant %s deleted", restaurant.Slug)
	utils.RespondJSON(c, http.StatusOK, "Restaurant deleted", gin.H{"slug": restaurant.Slug})
}
