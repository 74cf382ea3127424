package models

import (
	"strings"
	"time"
)

// User is a member of the HubTC workforce directory
type User struct {
	ID              int64     `json:"id" db:"id" example:"1"`
	Email           string    `json:"email" db:"email" example:"ayse.kaya@hubtc.travel"`
	FirstName       string    `json:"firstName" db:"first_name" example:"Ayse"`
	LastName        string    `json:"lastName" db:"last_name" example:"Kaya"`
	RoleType        RoleType  `json:"roleType" db:"role_type" example:"EMPLOYEE"`
	HubName         *string   `json:"hubName,omitempty" db:"hub_name" example:"Antalya"`
	ProfilePhotoURL *string   `json:"profilePhotoUrl,omitempty" db:"profile_photo_url"`
	IsActive        bool      `json:"isActive" db:"is_active"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
