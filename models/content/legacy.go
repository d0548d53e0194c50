package content

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Legacy embedded tree, stored as JSON on the course row. Field sets vary
// between historical records, so file identity may sit in any of Filename,
// Path, URL or FileID.

type LegacyUnit struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Semester    int               `json:"semester"`
	Topics      []LegacyTopic     `json:"topics"`
	Assessments LegacyAssessments `json:"assessments"`
}

type LegacyTopic struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Video *LegacyMedia `json:"video,omitempty"`
	Notes *LegacyMedia `json:"notes,omitempty"`
}

type LegacyMedia struct {
	Title       string     `json:"title"`
	Filename    string     `json:"filename,omitempty"`
	Path        string     `json:"path,omitempty"`
	URL         string     `json:"url,omitempty"`
	FileID      string     `json:"fileId,omitempty"`
	Status      string     `json:"status"`
	IsPremium   *bool      `json:"isPremium,omitempty"`
	UploadedBy  uint       `json:"uploadedBy,omitempty"`
	UploadDate  *time.Time `json:"uploadDate,omitempty"`
	ReviewedBy  uint       `json:"reviewedBy,omitempty"`
	ReviewNotes string     `json:"reviewNotes,omitempty"`
}

// HasFileRef reports whether any of the historical file-identity keys is set.
// A media subfield with none of them is an empty placeholder, not content.
func (m *LegacyMedia) HasFileRef() bool {
	if m == nil {
		return false
	}
	return m.Filename != "" || m.Path != "" || m.URL != "" || m.FileID != ""
}

type LegacyAssessments struct {
	Cats        []LegacyAssessment `json:"cats"`
	Assignments []LegacyAssessment `json:"assignments"`
	PastExams   []LegacyAssessment `json:"pastExams"`
}

type LegacyAssessment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	IsPremium   *bool      `json:"isPremium,omitempty"`
	ImageName   string     `json:"imageName,omitempty"`
	ImageSize   int64      `json:"imageSize,omitempty"`
	ImageMime   string     `json:"imageMime,omitempty"`
	FileID      string     `json:"fileId,omitempty"`
	Path        string     `json:"path,omitempty"`
	UploadedBy  uint       `json:"uploadedBy,omitempty"`
	UploadDate  *time.Time `json:"uploadDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ReviewedBy  uint       `json:"reviewedBy,omitempty"`
	ReviewNotes string     `json:"reviewNotes,omitempty"`
}

func (a *LegacyAssessment) HasFileRef() bool {
	if a == nil {
		return false
	}
	return a.ImageName != "" || a.Path != "" || a.FileID != ""
}

// DecodeLegacyUnits unmarshals the embedded tree from a course row. An empty
// column decodes to no units.
func DecodeLegacyUnits(raw datatypes.JSON) ([]LegacyUnit, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var units []LegacyUnit
	if err := json.Unmarshal(raw, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// EncodeLegacyUnits marshals the tree back for a wholesale save of the column.
func EncodeLegacyUnits(units []LegacyUnit) (datatypes.JSON, error) {
	b, err := json.Marshal(units)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
