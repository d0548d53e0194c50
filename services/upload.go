package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"elimu/models"
	contentModels "elimu/models/content"
	"elimu/repository"
	"elimu/utils"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var uploadValidator = validator.New()

// UploadRequest is one binary-plus-metadata submission addressed to an
// explicit (course, unit[, topic]) location.
type UploadRequest struct {
	CourseID uint   `validate:"required"`
	UnitID   uint   `validate:"required"`
	TopicID  *uint  // required for VIDEO/NOTES
	Kind     string `validate:"required"`
	Title    string `validate:"required,min=3"`

	IsPremium *bool
	DueDate   *time.Time
	StartsAt  *time.Time
	EndsAt    *time.Time
	URL       string // for LINK kind instead of a binary

	UploaderID   uint `validate:"required"`
	UploaderRole string

	File *multipart.FileHeader
}

// CreatedUpload reports what the gateway wrote.
type CreatedUpload struct {
	AssetID      uint   `json:"assetId,omitempty"`
	AssessmentID uint   `json:"assessmentId,omitempty"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	FileID       string `json:"fileId,omitempty"`
	Replaced     bool   `json:"replaced"`
}

func validKind(kind string) bool {
	switch kind {
	case contentModels.KindVideo, contentModels.KindNotes, contentModels.KindDocument,
		contentModels.KindImage, contentModels.KindAudio, contentModels.KindLink,
		contentModels.KindCat, contentModels.KindAssignment, contentModels.KindPastExam,
		contentModels.KindExam:
		return true
	}
	return false
}

// IngestUpload writes a new submission into the normalized path and links it
// back into the owning entities. Everything is created pending except uploads
// by the top administrative tier, which are auto-approved on the spot; that
// self-publishing trust bypass is deliberate.
func IngestUpload(db *gorm.DB, store utils.Store, req UploadRequest) (*CreatedUpload, error) {
	if err := uploadValidator.Struct(req); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if !validKind(req.Kind) {
		return nil, &ValidationError{Reason: "unknown content kind: " + req.Kind}
	}
	if req.Kind == contentModels.KindLink {
		if req.URL == "" {
			return nil, &ValidationError{Reason: "link content requires a url"}
		}
	} else if req.File == nil {
		return nil, &ValidationError{Reason: "no file supplied"}
	}

	var course contentModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", req.CourseID, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &repository.NotFoundError{Tried: []string{fmt.Sprintf("courseId=%d", req.CourseID)}}
		}
		return nil, &BackendError{Op: "upload: load course", Err: err}
	}
	var unit contentModels.Unit
	if err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", req.UnitID, req.CourseID, false).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &repository.NotFoundError{Tried: []string{fmt.Sprintf("unitId=%d", req.UnitID)}}
		}
		return nil, &BackendError{Op: "upload: load unit", Err: err}
	}

	status := contentModels.StatusPending
	if req.UploaderRole == models.RoleSuperAdmin {
		status = contentModels.StatusApproved
	}

	premium := contentModels.DefaultPremium(req.Kind)
	if req.IsPremium != nil {
		premium = *req.IsPremium
	}

	var fileID, filename string
	if req.File != nil {
		id, err := store.Save(req.File)
		if err != nil {
			return nil, &BackendError{Op: "upload: save blob", Err: err}
		}
		fileID = id
		filename = req.File.Filename
	}

	if contentModels.IsAssessmentKind(req.Kind) {
		return insertAssessment(db, &unit, req, status, premium, fileID, filename)
	}
	return upsertAsset(db, store, &unit, req, status, premium, fileID, filename)
}

// insertAssessment always creates a new record: multiple cats or exams
// legitimately coexist per unit.
func insertAssessment(db *gorm.DB, unit *contentModels.Unit, req UploadRequest, status string, premium bool, fileID, filename string) (*CreatedUpload, error) {
	uploadDate := time.Now()
	assessment := contentModels.Assessment{
		Type:       req.Kind,
		CourseID:   req.CourseID,
		UnitID:     req.UnitID,
		Title:      req.Title,
		Status:     status,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		DueDate:    req.DueDate,
		IsPremium:  premium,
		UploadedBy: req.UploaderID,
		FileID:     fileID,
		ImageName:  filename,
		UploadDate: &uploadDate,
		IsActive:   true,
	}
	if req.File != nil {
		assessment.ImageSize = req.File.Size
		assessment.ImageMime = req.File.Header.Get("Content-Type")
	}

	if err := db.Create(&assessment).Error; err != nil {
		return nil, &BackendError{Op: "upload: create assessment", Err: err}
	}

	// Idempotent link maintenance keeps the unit navigable both ways.
	if unit.LinkAssessment(assessment.ID) {
		if err := db.Model(unit).Update("assessment_ids", unit.AssessmentIDs).Error; err != nil {
			return nil, &BackendError{Op: "upload: link assessment", Err: err}
		}
	}

	log.Printf("[UPLOAD] user %d uploaded %s %d (%s)", req.UploaderID, req.Kind, assessment.ID, status)
	return &CreatedUpload{
		AssessmentID: assessment.ID,
		Kind:         req.Kind,
		Status:       status,
		FileID:       fileID,
	}, nil
}

// upsertAsset writes a topic media or extra resource. Video and notes upsert
// on (topic, type): a re-upload replaces the existing asset of that type and
// resets it for review rather than accumulating duplicates.
func upsertAsset(db *gorm.DB, store utils.Store, unit *contentModels.Unit, req UploadRequest, status string, premium bool, fileID, filename string) (*CreatedUpload, error) {
	isTopicMedia := req.Kind == contentModels.KindVideo || req.Kind == contentModels.KindNotes
	if isTopicMedia && (req.TopicID == nil || *req.TopicID == 0) {
		return nil, &ValidationError{Reason: "video and notes uploads require a topicId"}
	}

	var topic *contentModels.Topic
	if req.TopicID != nil && *req.TopicID != 0 {
		var t contentModels.Topic
		if err := db.Where("id = ? AND unit_id = ? AND is_deleted = ?", *req.TopicID, req.UnitID, false).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &repository.NotFoundError{Tried: []string{fmt.Sprintf("topicId=%d", *req.TopicID)}}
			}
			return nil, &BackendError{Op: "upload: load topic", Err: err}
		}
		topic = &t
	}

	uploadDate := time.Now()
	ownerType := contentModels.OwnerUnit
	ownerID := req.UnitID
	if topic != nil {
		ownerType = contentModels.OwnerTopic
		ownerID = topic.ID
	}

	if isTopicMedia {
		var existing contentModels.ContentAsset
		err := db.Where("topic_id = ? AND type = ? AND is_deleted = ?", *req.TopicID, req.Kind, false).
			Order("id DESC").First(&existing).Error
		if err == nil {
			oldFileID := existing.FileID
			updates := map[string]interface{}{
				"title":        req.Title,
				"status":       status,
				"is_premium":   premium,
				"uploaded_by":  req.UploaderID,
				"filename":     filename,
				"file_id":      fileID,
				"file_url":     req.URL,
				"upload_date":  &uploadDate,
				"is_active":    true,
				"reviewed_by":  nil,
				"review_notes": "",
			}
			if err := db.Model(&existing).Updates(updates).Error; err != nil {
				return nil, &BackendError{Op: "upload: replace asset", Err: err}
			}
			if store != nil && oldFileID != "" && oldFileID != fileID {
				if rmErr := store.Remove(oldFileID); rmErr != nil {
					log.Printf("[UPLOAD] failed to remove replaced blob %s: %v", oldFileID, rmErr)
				}
			}
			if err := pointTopicAt(db, topic, req.Kind, existing.ID); err != nil {
				return nil, err
			}
			log.Printf("[UPLOAD] user %d replaced %s for topic %d (%s)", req.UploaderID, req.Kind, *req.TopicID, status)
			return &CreatedUpload{
				AssetID:  existing.ID,
				Kind:     req.Kind,
				Status:   status,
				FileID:   fileID,
				Replaced: true,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BackendError{Op: "upload: find existing asset", Err: err}
		}
	}

	asset := contentModels.ContentAsset{
		Type:       req.Kind,
		OwnerType:  ownerType,
		OwnerID:    ownerID,
		CourseID:   req.CourseID,
		UnitID:     req.UnitID,
		TopicID:    req.TopicID,
		Title:      req.Title,
		Status:     status,
		IsPremium:  premium,
		UploadedBy: req.UploaderID,
		Filename:   filename,
		FileID:     fileID,
		FileURL:    req.URL,
		UploadDate: &uploadDate,
		IsActive:   true,
	}
	if err := db.Create(&asset).Error; err != nil {
		return nil, &BackendError{Op: "upload: create asset", Err: err}
	}

	if isTopicMedia {
		if err := pointTopicAt(db, topic, req.Kind, asset.ID); err != nil {
			return nil, err
		}
	}
	if topic != nil && unit.LinkTopic(topic.ID) {
		if err := db.Model(unit).Update("topic_ids", unit.TopicIDs).Error; err != nil {
			return nil, &BackendError{Op: "upload: link topic", Err: err}
		}
	}

	log.Printf("[UPLOAD] user %d uploaded %s %d (%s)", req.UploaderID, req.Kind, asset.ID, status)
	return &CreatedUpload{
		AssetID: asset.ID,
		Kind:    req.Kind,
		Status:  status,
		FileID:  fileID,
	}, nil
}

func pointTopicAt(db *gorm.DB, topic *contentModels.Topic, kind string, assetID uint) error {
	var column string
	switch kind {
	case contentModels.KindVideo:
		if topic.VideoAssetID != nil && *topic.VideoAssetID == assetID {
			return nil
		}
		column = "video_asset_id"
	case contentModels.KindNotes:
		if topic.NotesAssetID != nil && *topic.NotesAssetID == assetID {
			return nil
		}
		column = "notes_asset_id"
	default:
		return nil
	}
	if err := db.Model(topic).Update(column, assetID).Error; err != nil {
		return &BackendError{Op: "upload: update topic pointer", Err: err}
	}
	return nil
}
