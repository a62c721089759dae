package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultMaxPartySize           = 10
	DefaultMaxReservationsPerSlot = 10
)

type Restaurant struct {
	ID                     uint                        `gorm:"primaryKey" json:"id"`
	Name                   string                      `gorm:"type:varchar(255);not null" json:"name"`
	Slug                   string                      `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Address                string                      `gorm:"type:varchar(255)" json:"address"`
	Phone                  string                      `gorm:"type:varchar(50)" json:"phone"`
	Description            string                      `gorm:"type:text" json:"description"`
	TimeSlots              datatypes.JSONSlice[string] `json:"time_slots"`
	MaxPartySize           int                         `gorm:"not null;default:10" json:"max_party_size"`
	MaxReservationsPerSlot int                         `gorm:"not null;default:10" json:"max_reservations_per_slot"`
	CreatedAt              time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time                   `gorm:"not null" json:"updated_at"`
}

// SlotCapacity returns the per-slot cap, falling back to the default when unset.
func (r *Restaurant) SlotCapacity() int {
	if r.MaxReservationsPerSlot <= 0 {
		return DefaultMaxReservationsPerSlot
	}
	return r.MaxReservationsPerSlot
}

func (r *Restaurant) PartySizeLimit() int {
	if r.MaxPartySize <= 0 {
		return DefaultMaxPartySize
	}
	return r.MaxPartySize
}

// OffersSlot matches the label exactly against the configured list.
// A restaurant without a configured list accepts any label.
func (r *Restaurant) OffersSlot(label string) bool {
	if len(r.TimeSlots) == 0 {
		return true
	}
	for _, s := range r.TimeSlots {
		if s == label {
			return true
		}
	}
	return false
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeSlug lowercases and hyphenates a slug.
func NormalizeSlug(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// ParseTimeSlots splits a comma separated slot list, dropping empties.
func ParseTimeSlots(raw string) []string {
	slots := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			slots = append(slots, s)
		}
	}
	return slots
}
