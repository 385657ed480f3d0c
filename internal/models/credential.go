package models

import "time"

// Credential holds the login identity of a user. It is never serialized.
type Credential struct {
	UserID       string    `gorm:"type:varchar(36);primaryKey"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
