package models

import (
	"time"
)

// RefreshToken stores refresh tokens for JWT authentication
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"size:255;uniqueIndex" json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
