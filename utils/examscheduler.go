package utils

import (
	"time"

	"elimu/database"
	contentModels "elimu/models/content"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InitializeExamScheduler sets up the exam-window sweep
func InitializeExamScheduler() {
	log.Println("[EXAM-SCHEDULER] Initializing exam window scheduler...")

	c := cron.New()

	// Run daily at 6 AM to move approved exams through their windows
	c.AddFunc("0 6 * * *", func() {
		log.Println("[EXAM-SCHEDULER] Running daily exam window sweep...")
		SweepExamWindows(database.Database.Db)
	})

	c.Start()
	log.Println("[EXAM-SCHEDULER] Exam window scheduler started - runs daily at 6 AM")
}

// SweepExamWindows advances approved exams through scheduled/active/expired
// based on their windows. Extended states are reachable only from approved;
// pending and rejected rows are never touched.
func SweepExamWindows(db *gorm.DB) {
	var exams []contentModels.Assessment
	err := db.Where("type = ? AND status = ? AND is_active = ? AND is_deleted = ?",
		contentModels.KindExam, contentModels.StatusApproved, true, false).
		Find(&exams).Error
	if err != nil {
		log.Printf("[EXAM-SCHEDULER] Error fetching approved exams: %v", err)
		return
	}

	moved := 0
	for i := range exams {
		exam := &exams[i]
		next := examWindowState(exam, time.Now())
		if next == "" || next == exam.ExamState || exam.ExamState == contentModels.ExamCompleted {
			continue
		}
		if err := db.Model(exam).Update("exam_state", next).Error; err != nil {
			log.Printf("[EXAM-SCHEDULER] Error updating exam %d: %v", exam.ID, err)
			continue
		}
		moved++
	}

	if moved > 0 {
		log.Printf("[EXAM-SCHEDULER] Moved %d exam(s) to a new window state", moved)
	}
}

// examWindowState computes where an approved exam sits in its window. Windows
// are date-granular: an exam ending today stays active until end of day.
func examWindowState(exam *contentModels.Assessment, at time.Time) string {
	if exam.StartsAt == nil {
		return ""
	}
	if at.Before(*exam.StartsAt) {
		return contentModels.ExamScheduled
	}
	if exam.EndsAt != nil && at.After(now.New(*exam.EndsAt).EndOfDay()) {
		return contentModels.ExamExpired
	}
	return contentModels.ExamActive
}
