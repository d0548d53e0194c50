package content

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Unit represents a normalized unit within a course, tied to one academic
// year and semester. TopicIDs and AssessmentIDs keep the ordered reference
// lists for bidirectional navigation.
type Unit struct {
	gorm.Model
	CourseID      uint                       `json:"course_id" gorm:"index;not null"`
	Name          string                     `json:"name"`
	Year          int                        `json:"year" gorm:"default:1"`
	Semester      int                        `json:"semester" gorm:"default:1"`
	OrderIndex    int                        `json:"order_index" gorm:"default:0"`
	TopicIDs      datatypes.JSONSlice[uint]  `json:"topic_ids"`
	AssessmentIDs datatypes.JSONSlice[uint]  `json:"assessment_ids"`
	IsDeleted     bool                       `gorm:"default:false"`
}

func (Unit) TableName() string {
	return "units"
}

// LinkTopic appends id to the ordered topic list if not already present.
func (u *Unit) LinkTopic(id uint) bool {
	for _, existing := range u.TopicIDs {
		if existing == id {
			return false
		}
	}
	u.TopicIDs = append(u.TopicIDs, id)
	return true
}

// LinkAssessment appends id to the ordered assessment list if not already present.
func (u *Unit) LinkAssessment(id uint) bool {
	for _, existing := range u.AssessmentIDs {
		if existing == id {
			return false
		}
	}
	u.AssessmentIDs = append(u.AssessmentIDs, id)
	return true
}

// UnlinkAssessment removes id from the assessment list.
func (u *Unit) UnlinkAssessment(id uint) bool {
	for i, existing := range u.AssessmentIDs {
		if existing == id {
			u.AssessmentIDs = append(u.AssessmentIDs[:i], u.AssessmentIDs[i+1:]...)
			return true
		}
	}
	return false
}
