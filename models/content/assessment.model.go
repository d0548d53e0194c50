package content

import (
	"time"

	"gorm.io/gorm"
)

// Assessment kind enum values
const (
	KindCat        = "CAT"
	KindAssignment = "ASSIGNMENT"
	KindPastExam   = "PAST_EXAM"
	KindExam       = "EXAM"
)

// Extended exam-window states, reachable only from APPROVED and only for EXAM.
const (
	ExamScheduled = "SCHEDULED"
	ExamActive    = "ACTIVE"
	ExamExpired   = "EXPIRED"
	ExamCompleted = "COMPLETED"
)

// Assessment represents a cat, assignment, past exam or scheduled exam in the
// normalized path. Multiple assessments of the same kind legitimately coexist
// per unit, so uploads always insert.
type Assessment struct {
	gorm.Model
	Type        string     `json:"type" gorm:"index;not null"` // CAT, ASSIGNMENT, PAST_EXAM, EXAM
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	UnitID      uint       `json:"unit_id" gorm:"index;not null"`
	Title       string     `json:"title"`
	Status      string     `json:"status" gorm:"index;default:'PENDING'"`
	ExamState   string     `json:"exam_state"` // SCHEDULED, ACTIVE, EXPIRED, COMPLETED (exam-window tracking)
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	DueDate     *time.Time `json:"due_date"`
	IsPremium   bool       `json:"is_premium" gorm:"default:true"`
	UploadedBy  uint       `json:"uploaded_by" gorm:"index"`
	ImageName   string     `json:"image_name"`
	ImageSize   int64      `json:"image_size"`
	ImageMime   string     `json:"image_mime"`
	FileID      string     `json:"file_id"`
	UploadDate  *time.Time `json:"upload_date"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	ReviewedBy  *uint      `json:"reviewed_by"`
	ReviewNotes string     `json:"review_notes"`
	IsDeleted   bool       `gorm:"default:false"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// IsAssessmentKind reports whether kind names an assessment rather than a
// topic media or extra resource.
func IsAssessmentKind(kind string) bool {
	switch kind {
	case KindCat, KindAssignment, KindPastExam, KindExam:
		return true
	}
	return false
}

// DefaultPremium returns the premium policy default for a kind: assignments
// ship open, cats/exams/past exams default premium, topic media default open.
func DefaultPremium(kind string) bool {
	switch kind {
	case KindCat, KindExam, KindPastExam:
		return true
	}
	return false
}
