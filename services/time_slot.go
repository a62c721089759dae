package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/tablereserve/reservation-app/models"
)

const timeSlotLayout = "3:04 PM"

// ParseTimeSlot parses a 12-hour label such as "6:30 PM" into hour and minute.
func ParseTimeSlot(label string) (hour, minute int, err error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(label), " "))
	t, err := time.Parse(timeSlotLayout, normalized)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time slot %q", label)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseDate parses a naive calendar date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(s))
}

// slotInstant places the slot on the given calendar date in loc.
func slotInstant(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}
