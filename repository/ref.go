package repository

import (
	"errors"
	"fmt"

	contentModels "elimu/models/content"

	"gorm.io/gorm"
)

// ContentRef is the resolved address of one logical content item. Exactly one
// of the three concrete types below satisfies it, so approve/reject/delete
// dispatch is an exhaustive type switch rather than a chain of nullable
// lookups.
type ContentRef interface {
	refSource() string
}

// ByAssessmentID addresses a normalized assessment row.
type ByAssessmentID struct {
	AssessmentID uint
}

// ByTopicContent addresses a normalized topic media asset by (topic, type).
type ByTopicContent struct {
	TopicID     uint
	ContentType string
}

// ByEmbeddedLegacy addresses a subfield of the legacy tree embedded in a
// course row. TopicID+ContentType locates topic media; AssessmentID locates
// an embedded assessment.
type ByEmbeddedLegacy struct {
	CourseID     uint
	UnitID       string
	TopicID      string
	AssessmentID string
	ContentType  string
}

func (ByAssessmentID) refSource() string   { return SourceNormalized }
func (ByTopicContent) refSource() string   { return SourceNormalized }
func (ByEmbeddedLegacy) refSource() string { return SourceLegacy }

// ErrMissingAddressing is returned when a raw ref carries no complete
// addressing mode at all.
var ErrMissingAddressing = errors.New("missing required addressing fields")

// ErrForeignRef is returned by a repository handed a ref that belongs to the
// other storage path.
var ErrForeignRef = errors.New("ref does not belong to this repository")

// NotFoundError reports that no addressing mode resolved, echoing every
// identifier that was attempted so operators can see what was asked for.
type NotFoundError struct {
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content not found (tried %v)", e.Tried)
}

// RawRef is the wire shape of a review request. It may carry fields for more
// than one addressing mode; Resolve tries them in strict priority order.
type RawRef struct {
	AssessmentID       *uint  `json:"assessmentId"`
	TopicID            *uint  `json:"topicId"`
	ContentType        string `json:"contentType"`
	CourseID           *uint  `json:"courseId"`
	LegacyUnitID       string `json:"legacyUnitId"`
	LegacyTopicID      string `json:"legacyTopicId"`
	LegacyAssessmentID string `json:"legacyAssessmentId"`
}

func (r RawRef) hasAssessmentMode() bool {
	return r.AssessmentID != nil && *r.AssessmentID != 0
}

func (r RawRef) hasTopicMode() bool {
	if r.TopicID == nil || *r.TopicID == 0 {
		return false
	}
	return r.ContentType == contentModels.KindVideo || r.ContentType == contentModels.KindNotes
}

func (r RawRef) hasLegacyMode() bool {
	if r.CourseID == nil || *r.CourseID == 0 || r.LegacyUnitID == "" {
		return false
	}
	return r.LegacyTopicID != "" || r.LegacyAssessmentID != ""
}

// Identifiers renders every identifier present on the raw ref, for not-found
// diagnostics.
func (r RawRef) Identifiers() []string {
	var ids []string
	if r.AssessmentID != nil && *r.AssessmentID != 0 {
		ids = append(ids, fmt.Sprintf("assessmentId=%d", *r.AssessmentID))
	}
	if r.TopicID != nil && *r.TopicID != 0 {
		ids = append(ids, fmt.Sprintf("topicId=%d", *r.TopicID))
	}
	if r.CourseID != nil && *r.CourseID != 0 {
		ids = append(ids, fmt.Sprintf("courseId=%d", *r.CourseID))
	}
	if r.LegacyUnitID != "" {
		ids = append(ids, "legacyUnitId="+r.LegacyUnitID)
	}
	if r.LegacyTopicID != "" {
		ids = append(ids, "legacyTopicId="+r.LegacyTopicID)
	}
	if r.LegacyAssessmentID != "" {
		ids = append(ids, "legacyAssessmentId="+r.LegacyAssessmentID)
	}
	if r.ContentType != "" {
		ids = append(ids, "contentType="+r.ContentType)
	}
	return ids
}

// Resolve locates the content item a raw ref points at. The three addressing
// modes are tried in strict priority order, stopping at the first match:
//
//	(a) assessment id against the assessments table
//	(b) topic id + content type against content assets
//	(c) course/unit/topic-or-assessment id against the legacy embedded tree
//
// The ordering prevents double-processing a logical item that exists under
// more than one storage path. Returns the resolved ref plus a snapshot of the
// item for ownership and status checks.
func Resolve(db *gorm.DB, raw RawRef) (ContentRef, *ReviewItem, error) {
	if !raw.hasAssessmentMode() && !raw.hasTopicMode() && !raw.hasLegacyMode() {
		return nil, nil, ErrMissingAddressing
	}

	if raw.hasAssessmentMode() {
		var a contentModels.Assessment
		err := db.Where("id = ? AND is_deleted = ?", *raw.AssessmentID, false).First(&a).Error
		if err == nil {
			item := assessmentItem(&a)
			return ByAssessmentID{AssessmentID: a.ID}, &item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	if raw.hasTopicMode() {
		var asset contentModels.ContentAsset
		err := db.Where("topic_id = ? AND type = ? AND is_deleted = ?", *raw.TopicID, raw.ContentType, false).
			Order("id DESC").First(&asset).Error
		if err == nil {
			item := assetItem(&asset)
			return ByTopicContent{TopicID: *raw.TopicID, ContentType: raw.ContentType}, &item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	if raw.hasLegacyMode() {
		ref, item, err := resolveLegacy(db, raw)
		if err == nil {
			return ref, item, nil
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			return nil, nil, err
		}
	}

	return nil, nil, &NotFoundError{Tried: raw.Identifiers()}
}

func resolveLegacy(db *gorm.DB, raw RawRef) (ContentRef, *ReviewItem, error) {
	var course contentModels.Course
	err := db.Where("id = ? AND is_deleted = ?", *raw.CourseID, false).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Tried: raw.Identifiers()}
		}
		return nil, nil, err
	}

	units, err := contentModels.DecodeLegacyUnits(course.LegacyUnits)
	if err != nil {
		return nil, nil, err
	}

	for i := range units {
		unit := &units[i]
		if unit.ID != raw.LegacyUnitID {
			continue
		}
		if raw.LegacyTopicID != "" {
			for j := range unit.Topics {
				topic := &unit.Topics[j]
				if topic.ID != raw.LegacyTopicID {
					continue
				}
				media, kind := legacyTopicMedia(topic, raw.ContentType)
				if media == nil {
					break
				}
				item := legacyMediaItem(&course, unit, topic, media, kind)
				return ByEmbeddedLegacy{
					CourseID:    course.ID,
					UnitID:      unit.ID,
					TopicID:     topic.ID,
					ContentType: kind,
				}, &item, nil
			}
		}
		if raw.LegacyAssessmentID != "" {
			if a, kind := findLegacyAssessment(unit, raw.LegacyAssessmentID, raw.ContentType); a != nil {
				item := legacyAssessmentItem(&course, unit, a, kind)
				return ByEmbeddedLegacy{
					CourseID:     course.ID,
					UnitID:       unit.ID,
					AssessmentID: a.ID,
					ContentType:  kind,
				}, &item, nil
			}
		}
	}

	return nil, nil, &NotFoundError{Tried: raw.Identifiers()}
}

func legacyTopicMedia(topic *contentModels.LegacyTopic, contentType string) (*contentModels.LegacyMedia, string) {
	switch contentType {
	case contentModels.KindVideo:
		if topic.Video.HasFileRef() {
			return topic.Video, contentModels.KindVideo
		}
	case contentModels.KindNotes:
		if topic.Notes.HasFileRef() {
			return topic.Notes, contentModels.KindNotes
		}
	}
	return nil, ""
}

func findLegacyAssessment(unit *contentModels.LegacyUnit, id, contentType string) (*contentModels.LegacyAssessment, string) {
	search := func(list []contentModels.LegacyAssessment, kind string) (*contentModels.LegacyAssessment, string) {
		for i := range list {
			if list[i].ID == id {
				return &list[i], kind
			}
		}
		return nil, ""
	}

	switch contentType {
	case contentModels.KindCat:
		return search(unit.Assessments.Cats, contentModels.KindCat)
	case contentModels.KindAssignment:
		return search(unit.Assessments.Assignments, contentModels.KindAssignment)
	case contentModels.KindPastExam:
		return search(unit.Assessments.PastExams, contentModels.KindPastExam)
	}

	// No content type supplied: the id is unique enough across the three
	// embedded lists in practice, search them all.
	if a, kind := search(unit.Assessments.Cats, contentModels.KindCat); a != nil {
		return a, kind
	}
	if a, kind := search(unit.Assessments.Assignments, contentModels.KindAssignment); a != nil {
		return a, kind
	}
	return search(unit.Assessments.PastExams, contentModels.KindPastExam)
}
