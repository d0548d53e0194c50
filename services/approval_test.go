package services

import (
	"errors"
	"testing"
	"time"

	contentModels "elimu/models/content"
	"elimu/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestApproveResolvesAssessmentIDFirst(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Wairimu", "USER")
	reviewer := seedUser(t, db, "Admin", "ADMIN")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS220", legacyFixture(uploader.ID, recent))
	unit := seedUnit(t, db, course.ID, "Algorithms", 2, 1)
	assessment := seedAssessment(t, db, unit, contentModels.KindCat, contentModels.StatusPending, true, uploader.ID, recent)

	// The raw ref carries a valid legacy address too; the assessment id must
	// win so the same logical action never touches two items.
	raw := repository.RawRef{
		AssessmentID:       &assessment.ID,
		CourseID:           &course.ID,
		LegacyUnitID:       "legacy-unit-1",
		LegacyAssessmentID: "legacy-cat-1",
	}
	result, err := Approve(db, raw, reviewer.ID, "looks good", nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	var updated contentModels.Assessment
	require.NoError(t, db.First(&updated, assessment.ID).Error)
	assert.Equal(t, contentModels.StatusApproved, updated.Status)
	require.NotNil(t, updated.ReviewedBy)
	assert.Equal(t, reviewer.ID, *updated.ReviewedBy)
	assert.Equal(t, "looks good", updated.ReviewNotes)

	// The embedded cat stays pending.
	var reloaded contentModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	units, err := contentModels.DecodeLegacyUnits(reloaded.LegacyUnits)
	require.NoError(t, err)
	require.Len(t, units[0].Assessments.Cats, 1)
	assert.Equal(t, "pending", units[0].Assessments.Cats[0].Status)
}

func TestApproveLegacyMediaPersistsInPlace(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Chebet", "USER")
	reviewer := seedUser(t, db, "Admin", "ADMIN")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS230", legacyFixture(uploader.ID, recent))

	raw := repository.RawRef{
		CourseID:      &course.ID,
		LegacyUnitID:  "legacy-unit-1",
		LegacyTopicID: "legacy-topic-1",
		ContentType:   contentModels.KindVideo,
	}
	_, err := Approve(db, raw, reviewer.ID, "ok", boolPtr(true))
	require.NoError(t, err)

	var reloaded contentModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	units, err := contentModels.DecodeLegacyUnits(reloaded.LegacyUnits)
	require.NoError(t, err)
	video := units[0].Topics[0].Video
	require.NotNil(t, video)
	assert.Equal(t, contentModels.StatusApproved, video.Status)
	assert.Equal(t, reviewer.ID, video.ReviewedBy)
	require.NotNil(t, video.IsPremium)
	assert.True(t, *video.IsPremium)

	// The sibling notes entry keeps its original state.
	notes := units[0].Topics[0].Notes
	require.NotNil(t, notes)
	assert.Equal(t, "approved", notes.Status)
}

func TestRejectLegacyAssessmentRemovesSubfield(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Mwangi", "USER")
	reviewer := seedUser(t, db, "Admin", "ADMIN")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS240", legacyFixture(uploader.ID, recent))

	raw := repository.RawRef{
		CourseID:           &course.ID,
		LegacyUnitID:       "legacy-unit-1",
		LegacyAssessmentID: "legacy-cat-1",
	}
	_, err := Reject(db, raw, reviewer.ID, "duplicate upload")
	require.NoError(t, err)

	var reloaded contentModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	units, err := contentModels.DecodeLegacyUnits(reloaded.LegacyUnits)
	require.NoError(t, err)
	assert.Empty(t, units[0].Assessments.Cats, "legacy rejection has no resting state, the subfield goes")
	require.NotNil(t, units[0].Topics[0].Video, "unrelated media stays")
}

func TestRejectNormalizedIsSoft(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Akinyi", "USER")
	reviewer := seedUser(t, db, "Admin", "ADMIN")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS250", nil)
	unit := seedUnit(t, db, course.ID, "Databases", 2, 2)
	assessment := seedAssessment(t, db, unit, contentModels.KindExam, contentModels.StatusPending, true, uploader.ID, recent)

	raw := repository.RawRef{AssessmentID: &assessment.ID}
	_, err := Reject(db, raw, reviewer.ID, "wrong paper")
	require.NoError(t, err)

	var updated contentModels.Assessment
	require.NoError(t, db.First(&updated, assessment.ID).Error)
	assert.Equal(t, contentModels.StatusRejected, updated.Status)
	assert.False(t, updated.IsActive)
	assert.False(t, updated.IsDeleted, "rejected rows are kept for the audit trail")
	assert.Equal(t, "wrong paper", updated.ReviewNotes)
}

func TestApproveUnresolvableRefReportsEveryIdentifier(t *testing.T) {
	db := newTestDB(t)
	reviewer := seedUser(t, db, "Admin", "ADMIN")

	missing := uint(4040)
	raw := repository.RawRef{AssessmentID: &missing}
	_, err := Approve(db, raw, reviewer.ID, "", nil)
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Tried, "assessmentId=4040")
}

func TestApproveWithoutAddressingIsValidationError(t *testing.T) {
	db := newTestDB(t)
	reviewer := seedUser(t, db, "Admin", "ADMIN")

	_, err := Approve(db, repository.RawRef{}, reviewer.ID, "", nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestBatchDeleteContinuesPastFailures(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Nyambura", "USER")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS260", legacyFixture(uploader.ID, recent))
	unit := seedUnit(t, db, course.ID, "Networks", 3, 1)
	assessment := seedAssessment(t, db, unit, contentModels.KindCat, contentModels.StatusPending, true, uploader.ID, recent)

	raws := []repository.RawRef{
		{AssessmentID: &assessment.ID},
		{}, // malformed, no addressing at all
		{CourseID: &course.ID, LegacyUnitID: "legacy-unit-1", LegacyAssessmentID: "legacy-cat-1"},
	}
	result, err := DeleteContent(db, nil, raws, uploader.ID, "USER")
	require.NoError(t, err, "partial failure is a result, not an error")
	assert.Equal(t, 2, result.DeletedCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)

	var deleted contentModels.Assessment
	require.NoError(t, db.First(&deleted, assessment.ID).Error)
	assert.True(t, deleted.IsDeleted)

	var reloaded contentModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	units, decodeErr := contentModels.DecodeLegacyUnits(reloaded.LegacyUnits)
	require.NoError(t, decodeErr)
	assert.Empty(t, units[0].Assessments.Cats)
}

func TestLegacyAggregateSaveFailureFailsEachRefOnce(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Njoroge", "USER")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS265", legacyFixture(uploader.ID, recent))

	// Two refs to the same embedded cat: the first removal succeeds in
	// memory, the second fails inside the mutate callback.
	ref := repository.RawRef{CourseID: &course.ID, LegacyUnitID: "legacy-unit-1", LegacyAssessmentID: "legacy-cat-1"}
	raws := []repository.RawRef{ref, ref}

	// Force the aggregate save itself to fail as well.
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("fail_saves", func(tx *gorm.DB) {
		tx.AddError(errors.New("disk full"))
	}))

	result, err := DeleteContent(db, nil, raws, uploader.ID, "USER")
	require.Error(t, err, "nothing was persisted")
	assert.Equal(t, 0, result.DeletedCount, "in-memory removals are walked back")

	require.Len(t, result.Failures, 2, "one failure entry per ref, never two for the same ref")
	seen := map[int]int{}
	for _, f := range result.Failures {
		seen[f.Index]++
	}
	assert.Equal(t, 1, seen[0])
	assert.Equal(t, 1, seen[1])
}

func TestDeleteRequiresUploaderOrSuperAdmin(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Owner", "USER")
	stranger := seedUser(t, db, "Stranger", "USER")
	superAdmin := seedUser(t, db, "Root", "SUPERADMIN")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS270", nil)
	unit := seedUnit(t, db, course.ID, "Security", 4, 1)
	assessment := seedAssessment(t, db, unit, contentModels.KindPastExam, contentModels.StatusApproved, true, uploader.ID, recent)

	raws := []repository.RawRef{{AssessmentID: &assessment.ID}}
	result, err := DeleteContent(db, nil, raws, stranger.ID, "USER")
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, result.DeletedCount)

	var untouched contentModels.Assessment
	require.NoError(t, db.First(&untouched, assessment.ID).Error)
	assert.False(t, untouched.IsDeleted)

	// Super admins may delete anyone's content.
	result, err = DeleteContent(db, nil, raws, superAdmin.ID, "SUPERADMIN")
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
}

func TestDeleteAssessmentUnlinksOwningUnit(t *testing.T) {
	db := newTestDB(t)
	uploader := seedUser(t, db, "Kamau", "USER")
	recent := time.Now().AddDate(0, 0, -1)

	course := seedCourse(t, db, "CS280", nil)
	unit := seedUnit(t, db, course.ID, "Compilers", 4, 2)
	assessment := seedAssessment(t, db, unit, contentModels.KindCat, contentModels.StatusPending, true, uploader.ID, recent)

	var linked contentModels.Unit
	require.NoError(t, db.First(&linked, unit.ID).Error)
	require.Contains(t, []uint(linked.AssessmentIDs), assessment.ID)

	_, err := DeleteContent(db, nil, []repository.RawRef{{AssessmentID: &assessment.ID}}, uploader.ID, "USER")
	require.NoError(t, err)

	var unlinked contentModels.Unit
	require.NoError(t, db.First(&unlinked, unit.ID).Error)
	assert.NotContains(t, []uint(unlinked.AssessmentIDs), assessment.ID)
}
