package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ROLE_INVESTOR = "investor"
	ROLE_BUSINESS = "business"

	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User is the local identity record investments and campaigns reference.
// Authentication and registration live in the external account service; this
// table only mirrors what the platform needs for attribution.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email     string    `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Role      string    `gorm:"type:varchar(50);default:'investor'" json:"role" validate:"oneof=investor business"`
	Status    string    `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func (u *User) IsBusiness() bool {
	return u.Role == ROLE_BUSINESS
}
