package repository

import (
	"errors"
	"fmt"

	contentModels "elimu/models/content"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LegacyRepository serves the denormalized units/topics/content tree embedded
// in course rows. The tree is loaded wholesale, mutated as a value tree in
// memory and persisted back in one column write; there is no dirty tracking
// to manage.
type LegacyRepository struct {
	db *gorm.DB
}

func NewLegacyRepository(db *gorm.DB) *LegacyRepository {
	return &LegacyRepository{db: db}
}

func (r *LegacyRepository) Source() string {
	return SourceLegacy
}

// LegacyScan is the result of one pass over every course's embedded tree.
// Unit tallies and course counts come out of the same pass as the items.
type LegacyScan struct {
	Items                   []ReviewItem
	UnitsWithAssessments    int
	UnitsMissingAssessments int
	CourseCount             int
}

// Scan walks every matching course's embedded tree and projects review items
// for each topic media subfield holding a real file reference and each
// embedded assessment. All statuses are returned; callers filter.
func (r *LegacyRepository) Scan(f ContentFilter) (*LegacyScan, error) {
	q := r.db.Where("is_deleted = ?", false)
	if f.CourseID != 0 {
		q = q.Where("id = ?", f.CourseID)
	}
	if f.Institution != "" {
		q = q.Where("institution = ?", f.Institution)
	}

	var courses []contentModels.Course
	if err := q.Find(&courses).Error; err != nil {
		return nil, err
	}

	scan := &LegacyScan{CourseCount: len(courses)}
	for i := range courses {
		course := &courses[i]
		units, err := contentModels.DecodeLegacyUnits(course.LegacyUnits)
		if err != nil {
			// One corrupt aggregate must not hide every other course from
			// the queue; log it and keep going.
			log.Printf("[RECONCILE] decode legacy tree for course %d failed: %v", course.ID, err)
			continue
		}
		for j := range units {
			unit := &units[j]
			assessmentCount := len(unit.Assessments.Cats) +
				len(unit.Assessments.Assignments) +
				len(unit.Assessments.PastExams)
			if assessmentCount > 0 {
				scan.UnitsWithAssessments++
			} else {
				scan.UnitsMissingAssessments++
			}

			for k := range unit.Topics {
				topic := &unit.Topics[k]
				if topic.Video.HasFileRef() {
					item := legacyMediaItem(course, unit, topic, topic.Video, contentModels.KindVideo)
					if f.matchKind(item.Kind) && f.matchUploader(item.UploadedBy) {
						scan.Items = append(scan.Items, item)
					}
				}
				if topic.Notes.HasFileRef() {
					item := legacyMediaItem(course, unit, topic, topic.Notes, contentModels.KindNotes)
					if f.matchKind(item.Kind) && f.matchUploader(item.UploadedBy) {
						scan.Items = append(scan.Items, item)
					}
				}
			}

			appendAssessments := func(list []contentModels.LegacyAssessment, kind string) {
				for l := range list {
					item := legacyAssessmentItem(course, unit, &list[l], kind)
					if f.matchKind(item.Kind) && f.matchUploader(item.UploadedBy) {
						scan.Items = append(scan.Items, item)
					}
				}
			}
			appendAssessments(unit.Assessments.Cats, contentModels.KindCat)
			appendAssessments(unit.Assessments.Assignments, contentModels.KindAssignment)
			appendAssessments(unit.Assessments.PastExams, contentModels.KindPastExam)
		}
	}

	return scan, nil
}

func (r *LegacyRepository) ListContent(f ContentFilter) ([]ReviewItem, error) {
	scan, err := r.Scan(f)
	if err != nil {
		return nil, err
	}
	return scan.Items, nil
}

// MutateAggregate loads one course aggregate, hands the decoded tree to fn,
// and saves the whole column back iff fn reports a change. A batch touching
// several items in the same course goes through a single call so the
// aggregate is written once.
func (r *LegacyRepository) MutateAggregate(courseID uint, fn func(units []contentModels.LegacyUnit) ([]contentModels.LegacyUnit, bool, error)) error {
	var course contentModels.Course
	if err := r.db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Tried: []string{fmt.Sprintf("courseId=%d", courseID)}}
		}
		return err
	}

	units, err := contentModels.DecodeLegacyUnits(course.LegacyUnits)
	if err != nil {
		return err
	}

	mutated, changed, err := fn(units)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	raw, err := contentModels.EncodeLegacyUnits(mutated)
	if err != nil {
		return err
	}
	return r.db.Model(&course).Update("legacy_units", raw).Error
}

func (r *LegacyRepository) Approve(ref ContentRef, meta ReviewMeta) error {
	legacy, ok := ref.(ByEmbeddedLegacy)
	if !ok {
		return ErrForeignRef
	}
	return r.MutateAggregate(legacy.CourseID, func(units []contentModels.LegacyUnit) ([]contentModels.LegacyUnit, bool, error) {
		return applyLegacyReview(units, legacy, meta, contentModels.StatusApproved)
	})
}

// Reject deletes the subfield outright: legacy content has no rejected
// resting state, unlike the normalized path's soft status change.
func (r *LegacyRepository) Reject(ref ContentRef, meta ReviewMeta) error {
	legacy, ok := ref.(ByEmbeddedLegacy)
	if !ok {
		return ErrForeignRef
	}
	return r.MutateAggregate(legacy.CourseID, func(units []contentModels.LegacyUnit) ([]contentModels.LegacyUnit, bool, error) {
		units, _, removed := RemoveLegacyItem(units, legacy)
		if !removed {
			return units, false, &NotFoundError{Tried: legacyTried(legacy)}
		}
		return units, true, nil
	})
}

func (r *LegacyRepository) Delete(ref ContentRef) (DeletedItem, error) {
	legacy, ok := ref.(ByEmbeddedLegacy)
	if !ok {
		return DeletedItem{}, ErrForeignRef
	}
	var deleted DeletedItem
	err := r.MutateAggregate(legacy.CourseID, func(units []contentModels.LegacyUnit) ([]contentModels.LegacyUnit, bool, error) {
		units, item, removed := RemoveLegacyItem(units, legacy)
		if !removed {
			return units, false, &NotFoundError{Tried: legacyTried(legacy)}
		}
		deleted = item
		return units, true, nil
	})
	return deleted, err
}

func legacyTried(ref ByEmbeddedLegacy) []string {
	tried := []string{
		fmt.Sprintf("courseId=%d", ref.CourseID),
		"legacyUnitId=" + ref.UnitID,
	}
	if ref.TopicID != "" {
		tried = append(tried, "legacyTopicId="+ref.TopicID)
	}
	if ref.AssessmentID != "" {
		tried = append(tried, "legacyAssessmentId="+ref.AssessmentID)
	}
	if ref.ContentType != "" {
		tried = append(tried, "contentType="+ref.ContentType)
	}
	return tried
}

// applyLegacyReview sets review status in place. Only approval goes through
// here: rejection removes the subfield instead.
func applyLegacyReview(units []contentModels.LegacyUnit, ref ByEmbeddedLegacy, meta ReviewMeta, status string) ([]contentModels.LegacyUnit, bool, error) {
	for i := range units {
		unit := &units[i]
		if unit.ID != ref.UnitID {
			continue
		}
		if ref.TopicID != "" {
			for j := range unit.Topics {
				topic := &unit.Topics[j]
				if topic.ID != ref.TopicID {
					continue
				}
				media, _ := legacyTopicMedia(topic, ref.ContentType)
				if media == nil {
					return units, false, &NotFoundError{Tried: legacyTried(ref)}
				}
				media.Status = status
				media.ReviewedBy = meta.ReviewerID
				media.ReviewNotes = meta.Notes
				if meta.IsPremiumOverride != nil {
					v := *meta.IsPremiumOverride
					media.IsPremium = &v
				}
				return units, true, nil
			}
			return units, false, &NotFoundError{Tried: legacyTried(ref)}
		}
		if a, _ := findLegacyAssessment(unit, ref.AssessmentID, ref.ContentType); a != nil {
			a.Status = status
			a.ReviewedBy = meta.ReviewerID
			a.ReviewNotes = meta.Notes
			if meta.IsPremiumOverride != nil {
				v := *meta.IsPremiumOverride
				a.IsPremium = &v
			}
			return units, true, nil
		}
		return units, false, &NotFoundError{Tried: legacyTried(ref)}
	}
	return units, false, &NotFoundError{Tried: legacyTried(ref)}
}

// RemoveLegacyItem deletes the addressed subfield from the value tree and
// reports what was removed. Exported so a batch delete can apply several
// removals to one in-memory copy before a single save.
func RemoveLegacyItem(units []contentModels.LegacyUnit, ref ByEmbeddedLegacy) ([]contentModels.LegacyUnit, DeletedItem, bool) {
	for i := range units {
		unit := &units[i]
		if unit.ID != ref.UnitID {
			continue
		}
		if ref.TopicID != "" {
			for j := range unit.Topics {
				topic := &unit.Topics[j]
				if topic.ID != ref.TopicID {
					continue
				}
				switch ref.ContentType {
				case contentModels.KindVideo:
					if topic.Video.HasFileRef() {
						item := DeletedItem{FileID: topic.Video.FileID, Filename: topic.Video.Filename}
						topic.Video = nil
						return units, item, true
					}
				case contentModels.KindNotes:
					if topic.Notes.HasFileRef() {
						item := DeletedItem{FileID: topic.Notes.FileID, Filename: topic.Notes.Filename}
						topic.Notes = nil
						return units, item, true
					}
				}
				return units, DeletedItem{}, false
			}
			return units, DeletedItem{}, false
		}
		if ref.AssessmentID != "" {
			lists := []*[]contentModels.LegacyAssessment{
				&unit.Assessments.Cats,
				&unit.Assessments.Assignments,
				&unit.Assessments.PastExams,
			}
			for _, list := range lists {
				for j := range *list {
					if (*list)[j].ID == ref.AssessmentID {
						item := DeletedItem{FileID: (*list)[j].FileID, Filename: (*list)[j].ImageName}
						*list = append((*list)[:j], (*list)[j+1:]...)
						return units, item, true
					}
				}
			}
		}
		return units, DeletedItem{}, false
	}
	return units, DeletedItem{}, false
}
