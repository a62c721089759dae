package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureSuperAdmin creates the bootstrap super admin, or promotes the
// existing account with that email. The password is only set on creation.
func EnsureSuperAdmin(ctx context.Context, db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	var user models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.Role == models.RoleSuperAdmin && user.RestaurantID == nil {
			return nil
		}
		utils.InfoLogger.Printf("Promoting %s to super admin", email)
		return db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
			"role":          models.RoleSuperAdmin,
			"restaurant_id": nil,
		}).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if password == "" {
		return errors.New("SUPER_ADMIN_PASSWORD is required to create the super admin")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user = models.User{
		Name:     "Super Admin",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleSuperAdmin,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Super admin %s created", email)
	return nil
}

// DefaultTimeSlots are offered by the seeded restaurant.
var DefaultTimeSlots = []string{"5:00 PM", "5:30 PM", "6:00 PM", "6:30 PM", "7:00 PM", "7:30 PM", "8:00 PM", "8:30 PM"}

// EnsureDefaultRestaurant seeds one restaurant on an empty database.
func EnsureDefaultRestaurant(ctx context.Context, db *gorm.DB, slug string) (*models.Restaurant, error) {
	slug = models.NormalizeSlug(slug)
	if slug == "" {
		return nil, nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Restaurant{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	restaurant := &models.Restaurant{
		Name:                   titleFromSlug(slug),
		Slug:                   slug,
		TimeSlots:              datatypes.JSONSlice[string](DefaultTimeSlots),
		MaxPartySize:           models.DefaultMaxPartySize,
		MaxReservationsPerSlot: models.DefaultMaxReservationsPerSlot,
	}
	if err := db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Seeded default restaurant %s", slug)
	return restaurant, nil
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
