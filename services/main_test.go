package services

import (
	"path/filepath"
	"testing"
	"time"

	"elimu/database"
	"elimu/models"
	contentModels "elimu/models/content"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "elimu_test.db")), &gorm.Config{})
	require.NoError(t, err)
	database.RunMigrations(db)
	return db
}

func uintPtr(v uint) *uint { return &v }
func boolPtr(v bool) *bool { return &v }

func seedUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, name string, legacy []contentModels.LegacyUnit) contentModels.Course {
	t.Helper()
	course := contentModels.Course{Name: name, Code: name, Institution: "Nairobi Tech", IsPublished: true}
	if legacy != nil {
		raw, err := contentModels.EncodeLegacyUnits(legacy)
		require.NoError(t, err)
		course.LegacyUnits = raw
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedUnit(t *testing.T, db *gorm.DB, courseID uint, name string, year, semester int) contentModels.Unit {
	t.Helper()
	unit := contentModels.Unit{CourseID: courseID, Name: name, Year: year, Semester: semester}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func seedTopic(t *testing.T, db *gorm.DB, unit contentModels.Unit, title string) contentModels.Topic {
	t.Helper()
	topic := contentModels.Topic{UnitID: unit.ID, CourseID: unit.CourseID, Title: title}
	require.NoError(t, db.Create(&topic).Error)
	return topic
}

func seedAsset(t *testing.T, db *gorm.DB, unit contentModels.Unit, topicID *uint, kind, status string, uploadedBy uint, uploaded time.Time) contentModels.ContentAsset {
	t.Helper()
	asset := contentModels.ContentAsset{
		Type:       kind,
		OwnerType:  contentModels.OwnerTopic,
		CourseID:   unit.CourseID,
		UnitID:     unit.ID,
		TopicID:    topicID,
		Title:      kind + " upload",
		Status:     status,
		UploadedBy: uploadedBy,
		Filename:   "lecture.mp4",
		FileID:     "blob-" + kind,
		UploadDate: &uploaded,
		IsActive:   status != contentModels.StatusRejected,
	}
	if topicID != nil {
		asset.OwnerID = *topicID
	} else {
		asset.OwnerType = contentModels.OwnerUnit
		asset.OwnerID = unit.ID
	}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func seedAssessment(t *testing.T, db *gorm.DB, unit contentModels.Unit, kind, status string, premium bool, uploadedBy uint, uploaded time.Time) contentModels.Assessment {
	t.Helper()
	assessment := contentModels.Assessment{
		Type:       kind,
		CourseID:   unit.CourseID,
		UnitID:     unit.ID,
		Title:      kind + " paper",
		Status:     status,
		IsPremium:  premium,
		UploadedBy: uploadedBy,
		ImageName:  "paper.jpg",
		FileID:     "blob-" + kind,
		UploadDate: &uploaded,
		IsActive:   status != contentModels.StatusRejected,
	}
	require.NoError(t, db.Create(&assessment).Error)
	// Keep the owning unit's reference list linked, as the upload gateway does.
	var owner contentModels.Unit
	require.NoError(t, db.First(&owner, unit.ID).Error)
	if owner.LinkAssessment(assessment.ID) {
		require.NoError(t, db.Model(&owner).Update("assessment_ids", owner.AssessmentIDs).Error)
	}
	return assessment
}

// legacyFixture builds a legacy unit with one pending video, one approved
// notes and one pending cat, mirroring the pre-cutover embedded shape.
func legacyFixture(uploadedBy uint, uploaded time.Time) []contentModels.LegacyUnit {
	return []contentModels.LegacyUnit{
		{
			ID:       "legacy-unit-1",
			Name:     "Unit One",
			Year:     1,
			Semester: 1,
			Topics: []contentModels.LegacyTopic{
				{
					ID:    "legacy-topic-1",
					Title: "Introduction",
					Video: &contentModels.LegacyMedia{
						Title:      "Intro video",
						Filename:   "intro.mp4",
						Status:     "pending",
						UploadedBy: uploadedBy,
						UploadDate: &uploaded,
					},
					Notes: &contentModels.LegacyMedia{
						Title:      "Intro notes",
						Path:       "/var/uploads/intro.pdf",
						Status:     "approved",
						UploadedBy: uploadedBy,
						UploadDate: &uploaded,
					},
				},
			},
			Assessments: contentModels.LegacyAssessments{
				Cats: []contentModels.LegacyAssessment{
					{
						ID:         "legacy-cat-1",
						Title:      "CAT 1",
						Status:     "pending",
						ImageName:  "cat1.jpg",
						UploadedBy: uploadedBy,
						UploadDate: &uploaded,
					},
				},
			},
		},
	}
}
