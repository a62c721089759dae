package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"

	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// NotificationLog records one delivery attempt for a reservation confirmation.
type NotificationLog struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReservationID *string   `gorm:"type:varchar(36);index" json:"reservation_id"`
	RestaurantID  *uint     `gorm:"index" json:"restaurant_id"`
	Channel       string    `gorm:"type:varchar(10);not null" json:"channel"`
	Destination   string    `gorm:"type:varchar(255);not null" json:"destination"`
	Status        string    `gorm:"type:varchar(10);not null" json:"status"`
	ProviderID    string    `gorm:"type:varchar(100)" json:"provider_id,omitempty"`
	Error         string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
