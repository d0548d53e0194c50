package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionStatus enum values
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)

// Subscription tracks a user's paid access to a course for one academic year.
// Access checks are always scoped to the year: a year-2 subscription never
// unlocks year-3 premium content in the same course.
type Subscription struct {
	gorm.Model
	UserID       uint       `gorm:"not null;index" json:"userId"`
	CourseID     uint       `gorm:"not null;index" json:"courseId"`
	Year         int        `gorm:"not null" json:"year"`
	Price        float64    `gorm:"not null;default:0" json:"price"`
	Status       string     `gorm:"not null;type:varchar(20);default:'ACTIVE'" json:"status"`
	SubscribedAt time.Time  `json:"subscribedAt"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	PaymentID    string     `json:"paymentId"`
	IsDeleted    bool       `gorm:"default:false" json:"isDeleted"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
