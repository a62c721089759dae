package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationNoShow    ReservationStatus = "no_show"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return true
	}
	return false
}

// ReservationSource tells guest bookings apart from admin overrides,
// which skip the capacity and advance-notice rules.
type ReservationSource string

const (
	SourceGuest    ReservationSource = "guest"
	SourceOverride ReservationSource = "override"
)

// DateLayout is the naive calendar date format used for Reservation.Date.
const DateLayout = "2006-01-02"

type Reservation struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Code         string            `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"`
	RestaurantID uint              `gorm:"not null;index:idx_reservation_slot,priority:1" json:"restaurant_id"`
	Restaurant   *Restaurant       `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"restaurant,omitempty"`
	UserID       *uint             `gorm:"index" json:"user_id"`
	GuestName    string            `gorm:"type:varchar(255);not null" json:"guest_name"`
	GuestEmail   string            `gorm:"type:varchar(255);not null" json:"guest_email"`
	GuestPhone   *string           `gorm:"type:varchar(50)" json:"guest_phone"`
	Date         string            `gorm:"type:varchar(10);not null;index:idx_reservation_slot,priority:2" json:"date"`
	TimeSlot     string            `gorm:"type:varchar(20);not null;index:idx_reservation_slot,priority:3" json:"time_slot"`
	PartySize    int               `gorm:"not null" json:"party_size"`
	Status       ReservationStatus `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	Notes        *string           `gorm:"type:text" json:"notes"`
	Source       ReservationSource `gorm:"type:varchar(20);not null;default:'guest'" json:"source"`
	CreatedBy    *uint             `json:"created_by,omitempty"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// SlotKey identifies one (restaurant, date, time slot) capacity bucket.
type SlotKey struct {
	RestaurantID uint
	Date         string
	TimeSlot     string
}

func (r *Reservation) Slot() SlotKey {
	return SlotKey{RestaurantID: r.RestaurantID, Date: r.Date, TimeSlot: r.TimeSlot}
}
