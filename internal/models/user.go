package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleReadOnly UserRole = "READ_ONLY"
	RoleEditor   UserRole = "EDITOR"
)

type User struct {
	gorm.Model

	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`

	// Password reset state; cleared once the reset succeeds.
	PasswordResetOTP     string `gorm:"size:64"`
	PasswordResetExpires *time.Time

	// Relationships
	OwnedProjects []Project `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
