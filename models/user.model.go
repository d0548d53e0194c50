package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values. SUPERADMIN is the top administrative tier: uploads by it are
// auto-approved and it may delete content it did not upload.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

type User struct {
	gorm.Model
	ProfileImage string     `gorm:"default:''"`
	Name         string     `gorm:"default:''"`
	Email        string     `gorm:"unique;not null"`
	Mobile       string     `gorm:"default:''"`
	Role         string     `gorm:"default:'USER'"` // USER, ADMIN, SUPERADMIN
	LastLogin    *time.Time `json:"last_login"`
	IsDeleted    bool       `gorm:"default:false"`
}
