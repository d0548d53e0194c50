package content

import "gorm.io/gorm"

// Topic represents a normalized topic within a unit. A topic holds at most
// one video asset and one notes asset; uploads upsert on (topic, type) so the
// pointers never fan out into duplicates.
type Topic struct {
	gorm.Model
	UnitID       uint   `json:"unit_id" gorm:"index;not null"`
	CourseID     uint   `json:"course_id" gorm:"index;not null"`
	Title        string `json:"title"`
	OrderIndex   int    `json:"order_index" gorm:"default:0"`
	VideoAssetID *uint  `json:"video_asset_id"`
	NotesAssetID *uint  `json:"notes_asset_id"`
	IsDeleted    bool   `gorm:"default:false"`
}

func (Topic) TableName() string {
	return "topics"
}
