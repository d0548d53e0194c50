package content

import (
	"time"

	"gorm.io/gorm"
)

// Review status enum values. Extended exam states live on Assessment only.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// ContentAsset kind enum values
const (
	KindVideo    = "VIDEO"
	KindNotes    = "NOTES"
	KindDocument = "DOCUMENT"
	KindImage    = "IMAGE"
	KindAudio    = "AUDIO"
	KindLink     = "LINK"
)

// Asset owner enum values
const (
	OwnerTopic  = "TOPIC"
	OwnerUnit   = "UNIT"
	OwnerCourse = "COURSE"
)

// ContentAsset represents an uploaded binary (or external link) in the
// normalized path. Rejection is soft: status REJECTED plus IsActive=false,
// the row is kept for auditing.
type ContentAsset struct {
	gorm.Model
	Type        string     `json:"type" gorm:"index;not null"`                // VIDEO, NOTES, DOCUMENT, IMAGE, AUDIO, LINK
	OwnerType   string     `json:"owner_type" gorm:"default:'TOPIC'"`         // TOPIC, UNIT, COURSE
	OwnerID     uint       `json:"owner_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	UnitID      uint       `json:"unit_id" gorm:"index;not null"`
	TopicID     *uint      `json:"topic_id" gorm:"index"`
	Title       string     `json:"title"`
	Status      string     `json:"status" gorm:"index;default:'PENDING'"`
	IsPremium   bool       `json:"is_premium" gorm:"default:false"`
	UploadedBy  uint       `json:"uploaded_by" gorm:"index"`
	Filename    string     `json:"filename"`
	FileID      string     `json:"file_id"` // blob-store identifier
	FileURL     string     `json:"file_url"`
	UploadDate  *time.Time `json:"upload_date"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewNotes string     `json:"review_notes"`
	IsDeleted   bool       `gorm:"default:false"`
}

func (ContentAsset) TableName() string {
	return "content_assets"
}
