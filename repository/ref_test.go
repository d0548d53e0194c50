package repository

import (
	"path/filepath"
	"testing"
	"time"

	"elimu/database"
	contentModels "elimu/models/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo_test.db")), &gorm.Config{})
	require.NoError(t, err)
	database.RunMigrations(db)
	return db
}

func up(v uint) *uint { return &v }

func seedLegacyCourse(t *testing.T, db *gorm.DB) contentModels.Course {
	t.Helper()
	uploaded := time.Now().AddDate(0, 0, -2)
	units := []contentModels.LegacyUnit{
		{
			ID:   "u-old",
			Name: "Old Unit",
			Year: 1, Semester: 1,
			Topics: []contentModels.LegacyTopic{
				{
					ID:    "t-old",
					Title: "Old Topic",
					Video: &contentModels.LegacyMedia{
						Title: "Old video", Filename: "old.mp4",
						Status: "pending", UploadedBy: 7, UploadDate: &uploaded,
					},
				},
			},
			Assessments: contentModels.LegacyAssessments{
				Cats: []contentModels.LegacyAssessment{
					{ID: "c-old", Title: "Old CAT", Status: "pending", ImageName: "old.jpg", UploadedBy: 7, UploadDate: &uploaded},
				},
			},
		},
	}
	raw, err := contentModels.EncodeLegacyUnits(units)
	require.NoError(t, err)
	course := contentModels.Course{Name: "Legacy Course", Code: "LC100", LegacyUnits: raw, IsPublished: true}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func TestResolveRequiresSomeAddressing(t *testing.T) {
	db := newRepoTestDB(t)
	_, _, err := Resolve(db, RawRef{})
	assert.ErrorIs(t, err, ErrMissingAddressing)

	// A content type alone is not an address.
	_, _, err = Resolve(db, RawRef{ContentType: contentModels.KindVideo})
	assert.ErrorIs(t, err, ErrMissingAddressing)
}

func TestResolveFallsThroughDeadModes(t *testing.T) {
	db := newRepoTestDB(t)
	course := seedLegacyCourse(t, db)

	// The assessment id matches nothing; the legacy address on the same raw
	// ref must still resolve.
	ref, item, err := Resolve(db, RawRef{
		AssessmentID:       up(5555),
		CourseID:           &course.ID,
		LegacyUnitID:       "u-old",
		LegacyAssessmentID: "c-old",
	})
	require.NoError(t, err)
	legacy, ok := ref.(ByEmbeddedLegacy)
	require.True(t, ok)
	assert.Equal(t, "c-old", legacy.AssessmentID)
	assert.Equal(t, contentModels.KindCat, legacy.ContentType, "kind is inferred from the list the id was found in")
	assert.Equal(t, "Old CAT", item.Title)
	assert.Equal(t, contentModels.StatusPending, item.Status)
}

func TestResolveNotFoundEchoesEveryIdentifier(t *testing.T) {
	db := newRepoTestDB(t)
	course := seedLegacyCourse(t, db)

	_, _, err := Resolve(db, RawRef{
		AssessmentID:       up(5555),
		CourseID:           &course.ID,
		LegacyUnitID:       "u-old",
		LegacyAssessmentID: "no-such-id",
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Tried, "assessmentId=5555")
	assert.Contains(t, nf.Tried, "legacyUnitId=u-old")
	assert.Contains(t, nf.Tried, "legacyAssessmentId=no-such-id")
}

func TestResolveLegacyTopicMediaNeedsRealFileRef(t *testing.T) {
	db := newRepoTestDB(t)
	course := seedLegacyCourse(t, db)

	ref, _, err := Resolve(db, RawRef{
		CourseID:      &course.ID,
		LegacyUnitID:  "u-old",
		LegacyTopicID: "t-old",
		ContentType:   contentModels.KindVideo,
	})
	require.NoError(t, err)
	assert.Equal(t, SourceLegacy, ref.(ByEmbeddedLegacy).refSource())

	// The topic has no notes subfield, so the notes address does not exist.
	_, _, err = Resolve(db, RawRef{
		CourseID:      &course.ID,
		LegacyUnitID:  "u-old",
		LegacyTopicID: "t-old",
		ContentType:   contentModels.KindNotes,
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, contentModels.StatusApproved, NormalizeStatus("approved"))
	assert.Equal(t, contentModels.StatusApproved, NormalizeStatus("APPROVED"))
	assert.Equal(t, contentModels.StatusApproved, NormalizeStatus("Approved"))
	assert.Equal(t, contentModels.StatusRejected, NormalizeStatus("Rejected"))
	assert.Equal(t, contentModels.StatusPending, NormalizeStatus(""))
	assert.Equal(t, contentModels.StatusPending, NormalizeStatus("weird"))
}
