package utils

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

func newSchedulerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "scheduler_test.db")), &gorm.Config{})
	require.NoError(t, err)
	database.RunMigrations(db)
	return db
}

func seedExam(t *testing.T, db *gorm.DB, status, examState string, startsAt, endsAt *time.Time) contentModels.Assessment {
	t.Helper()
	exam := contentModels.Assessment{
		Type:      contentModels.KindExam,
		CourseID:  1,
		UnitID:    1,
		Title:     "Window exam",
		Status:    status,
		ExamState: examState,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		IsPremium: true,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&exam).Error)
	return exam
}

func tp(v time.Time) *time.Time { return &v }

func TestExamWindowState(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	noWindow := contentModels.Assessment{}
	assert.Equal(t, "", examWindowState(&noWindow, at))

	future := contentModels.Assessment{StartsAt: tp(at.Add(48 * time.Hour))}
	assert.Equal(t, contentModels.ExamScheduled, examWindowState(&future, at))

	running := contentModels.Assessment{
		StartsAt: tp(at.Add(-24 * time.Hour)),
		EndsAt:   tp(at.Add(24 * time.Hour)),
	}
	assert.Equal(t, contentModels.ExamActive, examWindowState(&running, at))

	// Date granularity: an exam whose end timestamp is earlier today stays
	// active until end of day.
	endingToday := contentModels.Assessment{
		StartsAt: tp(at.Add(-24 * time.Hour)),
		EndsAt:   tp(at.Add(-3 * time.Hour)),
	}
	assert.Equal(t, contentModels.ExamActive, examWindowState(&endingToday, at))

	over := contentModels.Assessment{
		StartsAt: tp(at.Add(-96 * time.Hour)),
		EndsAt:   tp(at.Add(-48 * time.Hour)),
	}
	assert.Equal(t, contentModels.ExamExpired, examWindowState(&over, at))

	openEnded := contentModels.Assessment{StartsAt: tp(at.Add(-24 * time.Hour))}
	assert.Equal(t, contentModels.ExamActive, examWindowState(&openEnded, at))
}

func TestSweepOnlyTouchesApprovedExams(t *testing.T) {
	db := newSchedulerTestDB(t)
	past := tp(time.Now().AddDate(0, 0, -10))
	pastEnd := tp(time.Now().AddDate(0, 0, -5))

	approved := seedExam(t, db, contentModels.StatusApproved, contentModels.ExamActive, past, pastEnd)
	pending := seedExam(t, db, contentModels.StatusPending, "", past, pastEnd)
	completed := seedExam(t, db, contentModels.StatusApproved, contentModels.ExamCompleted, past, pastEnd)

	SweepExamWindows(db)

	var got contentModels.Assessment
	require.NoError(t, db.First(&got, approved.ID).Error)
	assert.Equal(t, contentModels.ExamExpired, got.ExamState)

	got = contentModels.Assessment{}
	require.NoError(t, db.First(&got, pending.ID).Error)
	assert.Equal(t, "", got.ExamState, "pending exams have no window state to advance")

	got = contentModels.Assessment{}
	require.NoError(t, db.First(&got, completed.ID).Error)
	assert.Equal(t, contentModels.ExamCompleted, got.ExamState, "completion is terminal")
}

func TestSweepSchedulesFutureExams(t *testing.T) {
	db := newSchedulerTestDB(t)
	starts := tp(time.Now().AddDate(0, 0, 7))
	ends := tp(time.Now().AddDate(0, 0, 9))

	exam := seedExam(t, db, contentModels.StatusApproved, "", starts, ends)

	SweepExamWindows(db)

	var got contentModels.Assessment
	require.NoError(t, db.First(&got, exam.ID).Error)
	assert.Equal(t, contentModels.ExamScheduled, got.ExamState)
}
