package models

import "time"

// SlotLock is a per-slot row that booking transactions update before counting,
// so concurrent count-then-insert sequences for the same slot serialise on it.
type SlotLock struct {
	ID           uint      `gorm:"primaryKey"`
	RestaurantID uint      `gorm:"not null;uniqueIndex:idx_slot_lock_key,priority:1"`
	Date         string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_slot_lock_key,priority:2"`
	TimeSlot     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_slot_lock_key,priority:3"`
	Version      int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}
