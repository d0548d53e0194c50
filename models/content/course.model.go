package content

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course represents a taught course. New content lives in the normalized
// Unit/Topic/ContentAsset/Assessment tables; LegacyUnits carries the old
// denormalized units/topics/content tree exactly as it was embedded before
// the cutover. That tree is immutable history except for review actions.
type Course struct {
	gorm.Model
	Name              string         `json:"name"`
	Code              string         `json:"code" gorm:"index"`
	Institution       string         `json:"institution" gorm:"index"`
	Description       string         `json:"description"`
	SubscriptionPrice float64        `json:"subscription_price" gorm:"default:0"`
	ThumbnailURL      string         `json:"thumbnail_url"`
	IsPublished       bool           `json:"is_published" gorm:"default:true"`
	LegacyUnits       datatypes.JSON `json:"-"`
	IsDeleted         bool           `gorm:"default:false"`
}

func (Course) TableName() string {
	return "courses"
}
