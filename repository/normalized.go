package repository

import (
	"errors"
	"fmt"

	contentModels "elimu/models/content"

	"gorm.io/gorm"
)

// NormalizedRepository serves the Unit/Topic/ContentAsset/Assessment tables.
// This is the write path for all new content; the legacy tree only shrinks.
type NormalizedRepository struct {
	db *gorm.DB
}

func NewNormalizedRepository(db *gorm.DB) *NormalizedRepository {
	return &NormalizedRepository{db: db}
}

func (r *NormalizedRepository) Source() string {
	return SourceNormalized
}

// courseScope returns the course ids a filter allows, or nil for "all".
func (r *NormalizedRepository) courseScope(f ContentFilter) ([]uint, error) {
	if f.Institution == "" {
		return nil, nil
	}
	var ids []uint
	q := r.db.Model(&contentModels.Course{}).
		Where("institution = ? AND is_deleted = ?", f.Institution, false)
	if f.CourseID != 0 {
		q = q.Where("id = ?", f.CourseID)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = []uint{0} // no matching course; match nothing
	}
	return ids, nil
}

// ListAssessmentItems projects all (non-deleted) assessment rows matching the
// filter, every status included.
func (r *NormalizedRepository) ListAssessmentItems(f ContentFilter) ([]ReviewItem, error) {
	scope, err := r.courseScope(f)
	if err != nil {
		return nil, err
	}

	q := r.db.Where("is_deleted = ?", false)
	if scope != nil {
		q = q.Where("course_id IN ?", scope)
	} else if f.CourseID != 0 {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if f.UnitID != 0 {
		q = q.Where("unit_id = ?", f.UnitID)
	}
	if f.UploadedBy != nil {
		q = q.Where("uploaded_by = ?", *f.UploadedBy)
	}
	if f.AssessmentType != "" {
		q = q.Where("type = ?", f.AssessmentType)
	} else if f.Kind != "" && contentModels.IsAssessmentKind(f.Kind) {
		q = q.Where("type = ?", f.Kind)
	} else if f.Kind != "" {
		return nil, nil // kind filter names topic media; no assessments match
	}

	var rows []contentModels.Assessment
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]ReviewItem, 0, len(rows))
	for i := range rows {
		items = append(items, assessmentItem(&rows[i]))
	}
	if err := r.enrich(items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListAssetItems projects all (non-deleted) content asset rows matching the
// filter, every status included.
func (r *NormalizedRepository) ListAssetItems(f ContentFilter) ([]ReviewItem, error) {
	if f.AssessmentType != "" {
		return nil, nil
	}

	scope, err := r.courseScope(f)
	if err != nil {
		return nil, err
	}

	q := r.db.Where("is_deleted = ?", false)
	if scope != nil {
		q = q.Where("course_id IN ?", scope)
	} else if f.CourseID != 0 {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if f.UnitID != 0 {
		q = q.Where("unit_id = ?", f.UnitID)
	}
	if f.UploadedBy != nil {
		q = q.Where("uploaded_by = ?", *f.UploadedBy)
	}
	if f.Kind != "" {
		if contentModels.IsAssessmentKind(f.Kind) {
			return nil, nil
		}
		q = q.Where("type = ?", f.Kind)
	}

	var rows []contentModels.ContentAsset
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]ReviewItem, 0, len(rows))
	for i := range rows {
		items = append(items, assetItem(&rows[i]))
	}
	if err := r.enrich(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *NormalizedRepository) ListContent(f ContentFilter) ([]ReviewItem, error) {
	assessments, err := r.ListAssessmentItems(f)
	if err != nil {
		return nil, err
	}
	assets, err := r.ListAssetItems(f)
	if err != nil {
		return nil, err
	}
	return append(assessments, assets...), nil
}

// UnitTally counts normalized units with and without registered assessments,
// using the units' ordered assessment reference lists.
func (r *NormalizedRepository) UnitTally(f ContentFilter) (withAssessments, missing int, err error) {
	scope, scopeErr := r.courseScope(f)
	if scopeErr != nil {
		return 0, 0, scopeErr
	}

	q := r.db.Where("is_deleted = ?", false)
	if scope != nil {
		q = q.Where("course_id IN ?", scope)
	} else if f.CourseID != 0 {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if f.UnitID != 0 {
		q = q.Where("id = ?", f.UnitID)
	}

	var units []contentModels.Unit
	if err := q.Find(&units).Error; err != nil {
		return 0, 0, err
	}
	for i := range units {
		if len(units[i].AssessmentIDs) > 0 {
			withAssessments++
		} else {
			missing++
		}
	}
	return withAssessments, missing, nil
}

// enrich fills course, unit and topic display fields on the items in bulk.
func (r *NormalizedRepository) enrich(items []ReviewItem) error {
	if len(items) == 0 {
		return nil
	}

	courseIDs := make([]uint, 0, len(items))
	unitIDs := make([]uint, 0, len(items))
	topicIDs := make([]uint, 0, len(items))
	for i := range items {
		courseIDs = append(courseIDs, items[i].CourseID)
		unitIDs = append(unitIDs, items[i].UnitID)
		if items[i].TopicID != nil {
			topicIDs = append(topicIDs, *items[i].TopicID)
		}
	}

	var courses []contentModels.Course
	if err := r.db.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
		return err
	}
	courseByID := make(map[uint]*contentModels.Course, len(courses))
	for i := range courses {
		courseByID[courses[i].ID] = &courses[i]
	}

	var units []contentModels.Unit
	if err := r.db.Where("id IN ?", unitIDs).Find(&units).Error; err != nil {
		return err
	}
	unitByID := make(map[uint]*contentModels.Unit, len(units))
	for i := range units {
		unitByID[units[i].ID] = &units[i]
	}

	topicByID := make(map[uint]*contentModels.Topic)
	if len(topicIDs) > 0 {
		var topics []contentModels.Topic
		if err := r.db.Where("id IN ?", topicIDs).Find(&topics).Error; err != nil {
			return err
		}
		for i := range topics {
			topicByID[topics[i].ID] = &topics[i]
		}
	}

	for i := range items {
		if c := courseByID[items[i].CourseID]; c != nil {
			items[i].CourseName = c.Name
			items[i].Institution = c.Institution
		}
		if u := unitByID[items[i].UnitID]; u != nil {
			items[i].UnitName = u.Name
			items[i].Year = u.Year
			items[i].Semester = u.Semester
		}
		if items[i].TopicID != nil {
			if t := topicByID[*items[i].TopicID]; t != nil {
				items[i].TopicTitle = t.Title
			}
		}
	}
	return nil
}

func (r *NormalizedRepository) Approve(ref ContentRef, meta ReviewMeta) error {
	return r.review(ref, meta, contentModels.StatusApproved)
}

// Reject is a soft status change on the normalized path: the row stays for
// auditing with IsActive off.
func (r *NormalizedRepository) Reject(ref ContentRef, meta ReviewMeta) error {
	return r.review(ref, meta, contentModels.StatusRejected)
}

func (r *NormalizedRepository) review(ref ContentRef, meta ReviewMeta, status string) error {
	updates := map[string]interface{}{
		"status":       status,
		"reviewed_by":  meta.ReviewerID,
		"review_notes": meta.Notes,
	}
	if status == contentModels.StatusRejected {
		updates["is_active"] = false
	}
	if meta.IsPremiumOverride != nil {
		updates["is_premium"] = *meta.IsPremiumOverride
	}

	switch target := ref.(type) {
	case ByAssessmentID:
		res := r.db.Model(&contentModels.Assessment{}).
			Where("id = ? AND is_deleted = ?", target.AssessmentID, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Tried: []string{assessmentTried(target)}}
		}
		return nil
	case ByTopicContent:
		res := r.db.Model(&contentModels.ContentAsset{}).
			Where("topic_id = ? AND type = ? AND is_deleted = ?", target.TopicID, target.ContentType, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Tried: topicTried(target)}
		}
		return nil
	default:
		return ErrForeignRef
	}
}

func (r *NormalizedRepository) Delete(ref ContentRef) (DeletedItem, error) {
	switch target := ref.(type) {
	case ByAssessmentID:
		var a contentModels.Assessment
		err := r.db.Where("id = ? AND is_deleted = ?", target.AssessmentID, false).First(&a).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return DeletedItem{}, &NotFoundError{Tried: []string{assessmentTried(target)}}
			}
			return DeletedItem{}, err
		}
		if err := r.db.Model(&a).Update("is_deleted", true).Error; err != nil {
			return DeletedItem{}, err
		}
		// Keep the owning unit's reference list navigable both ways.
		var unit contentModels.Unit
		if err := r.db.Where("id = ?", a.UnitID).First(&unit).Error; err == nil {
			if unit.UnlinkAssessment(a.ID) {
				if err := r.db.Model(&unit).Update("assessment_ids", unit.AssessmentIDs).Error; err != nil {
					return DeletedItem{}, err
				}
			}
		}
		return DeletedItem{FileID: a.FileID, Filename: a.ImageName}, nil

	case ByTopicContent:
		var asset contentModels.ContentAsset
		err := r.db.Where("topic_id = ? AND type = ? AND is_deleted = ?", target.TopicID, target.ContentType, false).
			Order("id DESC").First(&asset).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return DeletedItem{}, &NotFoundError{Tried: topicTried(target)}
			}
			return DeletedItem{}, err
		}
		if err := r.db.Model(&asset).Update("is_deleted", true).Error; err != nil {
			return DeletedItem{}, err
		}
		clearTopicPointer(r.db, &asset)
		return DeletedItem{FileID: asset.FileID, Filename: asset.Filename}, nil

	default:
		return DeletedItem{}, ErrForeignRef
	}
}

func clearTopicPointer(db *gorm.DB, asset *contentModels.ContentAsset) {
	if asset.TopicID == nil {
		return
	}
	var topic contentModels.Topic
	if err := db.Where("id = ?", *asset.TopicID).First(&topic).Error; err != nil {
		return
	}
	switch asset.Type {
	case contentModels.KindVideo:
		if topic.VideoAssetID != nil && *topic.VideoAssetID == asset.ID {
			db.Model(&topic).Update("video_asset_id", nil)
		}
	case contentModels.KindNotes:
		if topic.NotesAssetID != nil && *topic.NotesAssetID == asset.ID {
			db.Model(&topic).Update("notes_asset_id", nil)
		}
	}
}

func assessmentTried(ref ByAssessmentID) string {
	return fmt.Sprintf("assessmentId=%d", ref.AssessmentID)
}

func topicTried(ref ByTopicContent) []string {
	return []string{fmt.Sprintf("topicId=%d", ref.TopicID), "contentType=" + ref.ContentType}
}
