package models

import "time"

const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User is the account/profile. An admin with a RestaurantID only manages that
// restaurant; a nil RestaurantID grants access to all of them.
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Name         string      `gorm:"type:varchar(255);not null" json:"name"`
	Email        string      `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"`
	Phone        string      `gorm:"type:varchar(50)" json:"phone"`
	Role         string      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	RestaurantID *uint       `gorm:"index" json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"restaurant,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
