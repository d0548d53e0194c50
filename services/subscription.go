package services

import (
	"errors"
	"time"

	"elimu/models"

	"gorm.io/gorm"
)

// HasActiveSubscription reports whether the user holds a live subscription
// for this course and academic year. Access checks are always year-scoped.
func HasActiveSubscription(db *gorm.DB, userID, courseID uint, year int) bool {
	sub, err := GetUserSubscription(db, userID, courseID, year)
	if err != nil || sub == nil {
		return false
	}
	if sub.ExpiresAt != nil && sub.ExpiresAt.Before(time.Now()) {
		return false
	}
	return sub.Status == models.SubscriptionActive
}

// GetUserSubscription loads the user's subscription for (course, year), or
// nil when none exists.
func GetUserSubscription(db *gorm.DB, userID, courseID uint, year int) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("user_id = ? AND course_id = ? AND year = ? AND is_deleted = ?",
		userID, courseID, year, false).
		Order("id DESC").First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ActiveSubscriptionYears lists the academic years the user can currently
// unlock premium content for in this course.
func ActiveSubscriptionYears(db *gorm.DB, userID, courseID uint) ([]int, error) {
	var subs []models.Subscription
	err := db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?",
		userID, courseID, models.SubscriptionActive, false).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	now := time.Now()
	seen := make(map[int]bool)
	var years []int
	for i := range subs {
		if subs[i].ExpiresAt != nil && subs[i].ExpiresAt.Before(now) {
			continue
		}
		if !seen[subs[i].Year] {
			seen[subs[i].Year] = true
			years = append(years, subs[i].Year)
		}
	}
	return years, nil
}
