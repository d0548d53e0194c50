package repository

import (
	"strings"
	"time"

	contentModels "elimu/models/content"
)

// Content sources
const (
	SourceLegacy     = "legacy"
	SourceNormalized = "normalized"
)

// ReviewItem is the unified review-queue row. Items from the legacy embedded
// tree and from the normalized tables project into the same shape so the
// reconciliation engine and the controllers never branch on storage.
type ReviewItem struct {
	Source string `json:"source"` // legacy | normalized
	Kind   string `json:"kind"`

	// Normalized addressing
	AssessmentID uint  `json:"assessmentId,omitempty"`
	AssetID      uint  `json:"assetId,omitempty"`
	TopicID      *uint `json:"topicId,omitempty"`

	// Legacy addressing
	LegacyUnitID       string `json:"legacyUnitId,omitempty"`
	LegacyTopicID      string `json:"legacyTopicId,omitempty"`
	LegacyAssessmentID string `json:"legacyAssessmentId,omitempty"`

	CourseID     uint       `json:"courseId"`
	CourseName   string     `json:"courseName,omitempty"`
	Institution  string     `json:"institution,omitempty"`
	UnitID       uint       `json:"unitId,omitempty"`
	UnitName     string     `json:"unitName,omitempty"`
	Year         int        `json:"year,omitempty"`
	Semester     int        `json:"semester,omitempty"`
	TopicTitle   string     `json:"topicTitle,omitempty"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	IsPremium    bool       `json:"isPremium"`
	UploadedBy   uint       `json:"uploadedBy"`
	UploaderName string     `json:"uploaderName"`
	UploadDate   *time.Time `json:"uploadDate"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Filename     string     `json:"filename,omitempty"`
	FileID       string     `json:"fileId,omitempty"`
}

// Ref rebuilds the resolved address of the item.
func (it *ReviewItem) Ref() ContentRef {
	if it.Source == SourceLegacy {
		return ByEmbeddedLegacy{
			CourseID:     it.CourseID,
			UnitID:       it.LegacyUnitID,
			TopicID:      it.LegacyTopicID,
			AssessmentID: it.LegacyAssessmentID,
			ContentType:  it.Kind,
		}
	}
	if it.AssessmentID != 0 {
		return ByAssessmentID{AssessmentID: it.AssessmentID}
	}
	var topicID uint
	if it.TopicID != nil {
		topicID = *it.TopicID
	}
	return ByTopicContent{TopicID: topicID, ContentType: it.Kind}
}

// ContentFilter narrows a content scan. Zero values mean "no filter".
type ContentFilter struct {
	Institution    string
	CourseID       uint
	UnitID         uint // normalized units only; the legacy tree predates unit rows
	UploadedBy     *uint
	Kind           string
	AssessmentType string
}

func (f ContentFilter) matchKind(kind string) bool {
	if f.Kind != "" && f.Kind != kind {
		return false
	}
	if f.AssessmentType != "" && contentModels.IsAssessmentKind(kind) && f.AssessmentType != kind {
		return false
	}
	return true
}

func (f ContentFilter) matchUploader(uploadedBy uint) bool {
	return f.UploadedBy == nil || *f.UploadedBy == uploadedBy
}

// ReviewMeta carries reviewer action details into a status transition.
type ReviewMeta struct {
	ReviewerID        uint
	Notes             string
	IsPremiumOverride *bool
}

// DeletedItem reports what a delete removed, so callers can clean up blobs.
type DeletedItem struct {
	FileID   string
	Filename string
}

// ContentRepository is the single interface both storage shapes implement.
// The reconciliation engine and the approval state machine depend only on
// this; retiring the legacy path means retiring one implementation.
type ContentRepository interface {
	Source() string
	ListContent(f ContentFilter) ([]ReviewItem, error)
	Approve(ref ContentRef, meta ReviewMeta) error
	Reject(ref ContentRef, meta ReviewMeta) error
	Delete(ref ContentRef) (DeletedItem, error)
}

// NormalizeStatus maps historical status spellings onto the enum. Legacy
// records predating the workflow carry no status at all; they are pending.
// Every reader of a legacy status goes through here so the review queue and
// the student feed never disagree on a spelling.
func NormalizeStatus(s string) string {
	switch strings.ToUpper(s) {
	case contentModels.StatusApproved:
		return contentModels.StatusApproved
	case contentModels.StatusRejected:
		return contentModels.StatusRejected
	default:
		return contentModels.StatusPending
	}
}

func premiumOrDefault(p *bool, kind string) bool {
	if p != nil {
		return *p
	}
	return contentModels.DefaultPremium(kind)
}

func assessmentItem(a *contentModels.Assessment) ReviewItem {
	return ReviewItem{
		Source:       SourceNormalized,
		Kind:         a.Type,
		AssessmentID: a.ID,
		CourseID:     a.CourseID,
		UnitID:       a.UnitID,
		Title:        a.Title,
		Status:       a.Status,
		IsPremium:    a.IsPremium,
		UploadedBy:   a.UploadedBy,
		UploadDate:   a.UploadDate,
		DueDate:      a.DueDate,
		Filename:     a.ImageName,
		FileID:       a.FileID,
	}
}

func assetItem(a *contentModels.ContentAsset) ReviewItem {
	return ReviewItem{
		Source:     SourceNormalized,
		Kind:       a.Type,
		AssetID:    a.ID,
		TopicID:    a.TopicID,
		CourseID:   a.CourseID,
		UnitID:     a.UnitID,
		Title:      a.Title,
		Status:     a.Status,
		IsPremium:  a.IsPremium,
		UploadedBy: a.UploadedBy,
		UploadDate: a.UploadDate,
		Filename:   a.Filename,
		FileID:     a.FileID,
	}
}

func legacyMediaItem(course *contentModels.Course, unit *contentModels.LegacyUnit, topic *contentModels.LegacyTopic, media *contentModels.LegacyMedia, kind string) ReviewItem {
	filename := media.Filename
	if filename == "" {
		filename = media.Path
	}
	if filename == "" {
		filename = media.URL
	}
	return ReviewItem{
		Source:        SourceLegacy,
		Kind:          kind,
		LegacyUnitID:  unit.ID,
		LegacyTopicID: topic.ID,
		CourseID:      course.ID,
		CourseName:    course.Name,
		Institution:   course.Institution,
		UnitName:      unit.Name,
		Year:          unit.Year,
		Semester:      unit.Semester,
		TopicTitle:    topic.Title,
		Title:         media.Title,
		Status:        NormalizeStatus(media.Status),
		IsPremium:     premiumOrDefault(media.IsPremium, kind),
		UploadedBy:    media.UploadedBy,
		UploadDate:    media.UploadDate,
		Filename:      filename,
		FileID:        media.FileID,
	}
}

func legacyAssessmentItem(course *contentModels.Course, unit *contentModels.LegacyUnit, a *contentModels.LegacyAssessment, kind string) ReviewItem {
	filename := a.ImageName
	if filename == "" {
		filename = a.Path
	}
	return ReviewItem{
		Source:             SourceLegacy,
		Kind:               kind,
		LegacyUnitID:       unit.ID,
		LegacyAssessmentID: a.ID,
		CourseID:           course.ID,
		CourseName:         course.Name,
		Institution:        course.Institution,
		UnitName:           unit.Name,
		Year:               unit.Year,
		Semester:           unit.Semester,
		Title:              a.Title,
		Status:             NormalizeStatus(a.Status),
		IsPremium:          premiumOrDefault(a.IsPremium, kind),
		UploadedBy:         a.UploadedBy,
		UploadDate:         a.UploadDate,
		DueDate:            a.DueDate,
		Filename:           filename,
		FileID:             a.FileID,
	}
}
