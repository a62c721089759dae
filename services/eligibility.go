package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tablereserve/reservation-app/models"
	"gorm.io/gorm"
)

// AdvanceNotice is the minimum lead time for a same-day booking.
const AdvanceNotice = time.Hour

// EligibilityChecker applies the booking rules in order; the first failure wins:
// required input, advance notice (same day only), per-slot capacity, then the
// restaurant's party size limit. A full slot is reported as full whatever the
// party size.
type EligibilityChecker struct{}

// Check runs every rule. db is used for the capacity count and may be a transaction.
func (ec EligibilityChecker) Check(ctx context.Context, db *gorm.DB, restaurant *models.Restaurant, date, timeSlot string, partySize int, now time.Time) error {
	if err := ec.validate(restaurant, date, timeSlot, partySize); err != nil {
		return err
	}
	if err := ec.checkAdvanceNotice(date, timeSlot, now); err != nil {
		return err
	}
	if err := ec.checkCapacity(ctx, db, restaurant, date, timeSlot); err != nil {
		return err
	}
	return ec.checkPartyLimit(restaurant, partySize)
}

func (ec EligibilityChecker) validate(restaurant *models.Restaurant, date, timeSlot string, partySize int) error {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(timeSlot) == "" {
		return ErrDateAndSlotRequired
	}
	if _, err := ParseDate(date); err != nil {
		return &ValidationError{Message: "invalid date, expected YYYY-MM-DD"}
	}
	if !restaurant.OffersSlot(timeSlot) {
		return &ValidationError{Message: "time slot not offered by this restaurant"}
	}
	if partySize < 1 {
		return &ValidationError{Message: "party size must be at least 1"}
	}
	return nil
}

func (ec EligibilityChecker) checkPartyLimit(restaurant *models.Restaurant, partySize int) error {
	if limit := restaurant.PartySizeLimit(); partySize > limit {
		return &ValidationError{Message: fmt.Sprintf("party size cannot exceed %d", limit)}
	}
	return nil
}

// checkAdvanceNotice only looks at bookings for today's date; future dates pass.
func (ec EligibilityChecker) checkAdvanceNotice(date, timeSlot string, now time.Time) error {
	day, err := ParseDate(date)
	if err != nil {
		return &ValidationError{Message: "invalid date, expected YYYY-MM-DD"}
	}
	if day.Format(models.DateLayout) != now.Format(models.DateLayout) {
		return nil
	}

	hour, minute, err := ParseTimeSlot(timeSlot)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if slotInstant(day, hour, minute, now.Location()).Before(now.Add(AdvanceNotice)) {
		return ErrTooLateToBook
	}
	return nil
}

func (ec EligibilityChecker) checkCapacity(ctx context.Context, db *gorm.DB, restaurant *models.Restaurant, date, timeSlot string) error {
	count, err := countConfirmed(ctx, db, models.SlotKey{RestaurantID: restaurant.ID, Date: date, TimeSlot: timeSlot})
	if err != nil {
		return &PersistenceError{Err: err}
	}
	if count >= int64(restaurant.SlotCapacity()) {
		return ErrSlotFullyBooked
	}
	return nil
}

func countConfirmed(ctx context.Context, db *gorm.DB, key models.SlotKey) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("restaurant_id = ? AND date = ? AND time_slot = ? AND status = ?",
			key.RestaurantID, key.Date, key.TimeSlot, models.ReservationConfirmed).
		Count(&count).Error
	return count, err
}

// SlotAvailability describes one configured slot on a given date.
type SlotAvailability struct {
	TimeSlot  string `json:"time_slot"`
	Confirmed int64  `json:"confirmed"`
	Remaining int64  `json:"remaining"`
	Bookable  bool   `json:"bookable"`
	Reason    string `json:"reason,omitempty"`
}
