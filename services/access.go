package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"elimu/config"
	contentModels "elimu/models/content"
	"elimu/repository"

	"gorm.io/gorm"
)

// ContentDescriptor is one student-visible content entry. Denied access is
// data, never an error: HasAccess/RequiresSubscription describe the gate and
// the file identity is withheld while titles and dates remain visible.
type ContentDescriptor struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Title  string `json:"title"`

	UnitID       uint   `json:"unitId,omitempty"`
	LegacyUnitID string `json:"legacyUnitId,omitempty"`
	UnitName     string `json:"unitName"`
	Year         int    `json:"year"`
	Semester     int    `json:"semester"`

	TopicID            *uint  `json:"topicId,omitempty"`
	LegacyTopicID      string `json:"legacyTopicId,omitempty"`
	TopicTitle         string `json:"topicTitle,omitempty"`
	AssetID            uint   `json:"assetId,omitempty"`
	AssessmentID       uint   `json:"assessmentId,omitempty"`
	LegacyAssessmentID string `json:"legacyAssessmentId,omitempty"`

	Filename   *string    `json:"filename"`
	FileID     *string    `json:"fileId"`
	FileURL    string     `json:"fileUrl,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	UploadDate *time.Time `json:"uploadDate"`

	IsPremium            bool `json:"isPremium"`
	HasAccess            bool `json:"hasAccess"`
	RequiresSubscription bool `json:"requiresSubscription"`
	CanDownload          bool `json:"canDownload"`
}

// PricingInfo accompanies the student feed so clients can offer the upgrade.
type PricingInfo struct {
	SubscriptionPrice float64 `json:"subscriptionPrice"`
	Currency          string  `json:"currency"`
	ActiveYears       []int   `json:"activeYears"`
}

// ResolveCourseContent computes the student-visible feed for a course.
// Approval status is re-verified live at resolution time from both storage
// shapes; a cached "was approved" flag is never trusted. Premium gating is
// scoped to each unit's academic year.
func ResolveCourseContent(db *gorm.DB, courseID uint, year, semester *int, userID uint) ([]ContentDescriptor, *PricingInfo, error) {
	var course contentModels.Course
	err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &repository.NotFoundError{Tried: []string{fmt.Sprintf("courseId=%d", courseID)}}
		}
		return nil, nil, &BackendError{Op: "access: load course", Err: err}
	}

	gate := newYearGate(db, userID, courseID)
	var descriptors []ContentDescriptor

	normalized, err := resolveNormalized(db, &course, year, semester, gate)
	if err != nil {
		return nil, nil, err
	}
	descriptors = append(descriptors, normalized...)

	legacy, err := resolveLegacyContent(&course, year, semester, gate)
	if err != nil {
		return nil, nil, err
	}
	descriptors = append(descriptors, legacy...)

	sort.SliceStable(descriptors, func(i, j int) bool {
		di, dj := descriptors[i].UploadDate, descriptors[j].UploadDate
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.After(*dj)
	})

	years, err := ActiveSubscriptionYears(db, userID, courseID)
	if err != nil {
		return nil, nil, &BackendError{Op: "access: subscription years", Err: err}
	}
	currency := "KES"
	if config.AppConfig != nil && config.AppConfig.SubscriptionCurrency != "" {
		currency = config.AppConfig.SubscriptionCurrency
	}

	return descriptors, &PricingInfo{
		SubscriptionPrice: course.SubscriptionPrice,
		Currency:          currency,
		ActiveYears:       years,
	}, nil
}

// yearGate memoizes the per-year subscription check for one request.
type yearGate struct {
	db       *gorm.DB
	userID   uint
	courseID uint
	cache    map[int]bool
}

func newYearGate(db *gorm.DB, userID, courseID uint) *yearGate {
	return &yearGate{db: db, userID: userID, courseID: courseID, cache: make(map[int]bool)}
}

func (g *yearGate) allows(year int) bool {
	if v, ok := g.cache[year]; ok {
		return v
	}
	v := HasActiveSubscription(g.db, g.userID, g.courseID, year)
	g.cache[year] = v
	return v
}

// finalize applies the access gate to a descriptor. File identity is nulled
// whenever access is denied; partial metadata disclosure is fine, file
// identity is not.
func finalize(d ContentDescriptor, gate *yearGate) ContentDescriptor {
	examClass := d.Kind == contentModels.KindCat ||
		d.Kind == contentModels.KindExam ||
		d.Kind == contentModels.KindPastExam

	switch {
	case d.Kind == contentModels.KindAssignment:
		// Assignments are always free and downloadable.
		d.HasAccess = true
		d.CanDownload = true
	case examClass:
		d.HasAccess = !d.IsPremium || gate.allows(d.Year)
		// Download forbidden for the exam class regardless of premium
		// status, as exam-leak deterrence.
		d.CanDownload = false
	default:
		d.HasAccess = !d.IsPremium || gate.allows(d.Year)
		d.CanDownload = d.HasAccess
	}

	if !d.HasAccess {
		d.RequiresSubscription = true
		d.Filename = nil
		d.FileID = nil
		d.FileURL = ""
	}
	return d
}

func matchesTerm(unitYear, unitSemester int, year, semester *int) bool {
	if year != nil && unitYear != *year {
		return false
	}
	if semester != nil && unitSemester != *semester {
		return false
	}
	return true
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func resolveNormalized(db *gorm.DB, course *contentModels.Course, year, semester *int, gate *yearGate) ([]ContentDescriptor, error) {
	var units []contentModels.Unit
	q := db.Where("course_id = ? AND is_deleted = ?", course.ID, false)
	if year != nil {
		q = q.Where("year = ?", *year)
	}
	if semester != nil {
		q = q.Where("semester = ?", *semester)
	}
	if err := q.Order("order_index ASC").Find(&units).Error; err != nil {
		return nil, &BackendError{Op: "access: load units", Err: err}
	}
	if len(units) == 0 {
		return nil, nil
	}

	unitIDs := make([]uint, 0, len(units))
	unitByID := make(map[uint]*contentModels.Unit, len(units))
	for i := range units {
		unitIDs = append(unitIDs, units[i].ID)
		unitByID[units[i].ID] = &units[i]
	}

	var topics []contentModels.Topic
	if err := db.Where("unit_id IN ? AND is_deleted = ?", unitIDs, false).Find(&topics).Error; err != nil {
		return nil, &BackendError{Op: "access: load topics", Err: err}
	}
	topicByID := make(map[uint]*contentModels.Topic, len(topics))
	for i := range topics {
		topicByID[topics[i].ID] = &topics[i]
	}

	// Live approval check: only approved, active rows surface.
	var assets []contentModels.ContentAsset
	if err := db.Where("unit_id IN ? AND status = ? AND is_active = ? AND is_deleted = ?",
		unitIDs, contentModels.StatusApproved, true, false).Find(&assets).Error; err != nil {
		return nil, &BackendError{Op: "access: load assets", Err: err}
	}

	var assessments []contentModels.Assessment
	if err := db.Where("unit_id IN ? AND status = ? AND is_active = ? AND is_deleted = ?",
		unitIDs, contentModels.StatusApproved, true, false).Find(&assessments).Error; err != nil {
		return nil, &BackendError{Op: "access: load assessments", Err: err}
	}

	var out []ContentDescriptor
	for i := range assets {
		a := &assets[i]
		unit := unitByID[a.UnitID]
		if unit == nil {
			continue
		}
		d := ContentDescriptor{
			Kind:       a.Type,
			Source:     repository.SourceNormalized,
			Title:      a.Title,
			UnitID:     unit.ID,
			UnitName:   unit.Name,
			Year:       unit.Year,
			Semester:   unit.Semester,
			TopicID:    a.TopicID,
			AssetID:    a.ID,
			Filename:   strPtr(a.Filename),
			FileID:     strPtr(a.FileID),
			FileURL:    a.FileURL,
			UploadDate: a.UploadDate,
			IsPremium:  a.IsPremium,
		}
		if a.TopicID != nil {
			if t := topicByID[*a.TopicID]; t != nil {
				d.TopicTitle = t.Title
			}
		}
		out = append(out, finalize(d, gate))
	}

	for i := range assessments {
		a := &assessments[i]
		unit := unitByID[a.UnitID]
		if unit == nil {
			continue
		}
		d := ContentDescriptor{
			Kind:         a.Type,
			Source:       repository.SourceNormalized,
			Title:        a.Title,
			UnitID:       unit.ID,
			UnitName:     unit.Name,
			Year:         unit.Year,
			Semester:     unit.Semester,
			AssessmentID: a.ID,
			Filename:     strPtr(a.ImageName),
			FileID:       strPtr(a.FileID),
			DueDate:      a.DueDate,
			UploadDate:   a.UploadDate,
			IsPremium:    a.IsPremium,
		}
		out = append(out, finalize(d, gate))
	}

	return out, nil
}

func resolveLegacyContent(course *contentModels.Course, year, semester *int, gate *yearGate) ([]ContentDescriptor, error) {
	units, err := contentModels.DecodeLegacyUnits(course.LegacyUnits)
	if err != nil {
		return nil, &BackendError{Op: "access: decode legacy tree", Err: err}
	}

	var out []ContentDescriptor
	for i := range units {
		unit := &units[i]
		if !matchesTerm(unit.Year, unit.Semester, year, semester) {
			continue
		}

		for j := range unit.Topics {
			topic := &unit.Topics[j]
			appendMedia := func(media *contentModels.LegacyMedia, kind string) {
				if !media.HasFileRef() || !legacyApproved(media.Status) {
					return
				}
				d := ContentDescriptor{
					Kind:          kind,
					Source:        repository.SourceLegacy,
					Title:         media.Title,
					LegacyUnitID:  unit.ID,
					UnitName:      unit.Name,
					Year:          unit.Year,
					Semester:      unit.Semester,
					LegacyTopicID: topic.ID,
					TopicTitle:    topic.Title,
					Filename:      strPtr(firstNonEmpty(media.Filename, media.Path)),
					FileID:        strPtr(media.FileID),
					FileURL:       media.URL,
					UploadDate:    media.UploadDate,
					IsPremium:     legacyPremium(media.IsPremium, kind),
				}
				out = append(out, finalize(d, gate))
			}
			appendMedia(topic.Video, contentModels.KindVideo)
			appendMedia(topic.Notes, contentModels.KindNotes)
		}

		appendAssessments := func(list []contentModels.LegacyAssessment, kind string) {
			for k := range list {
				a := &list[k]
				if !legacyApproved(a.Status) {
					continue
				}
				d := ContentDescriptor{
					Kind:               kind,
					Source:             repository.SourceLegacy,
					Title:              a.Title,
					LegacyUnitID:       unit.ID,
					UnitName:           unit.Name,
					Year:               unit.Year,
					Semester:           unit.Semester,
					LegacyAssessmentID: a.ID,
					Filename:           strPtr(firstNonEmpty(a.ImageName, a.Path)),
					FileID:             strPtr(a.FileID),
					DueDate:            a.DueDate,
					UploadDate:         a.UploadDate,
					IsPremium:          legacyPremium(a.IsPremium, kind),
				}
				out = append(out, finalize(d, gate))
			}
		}
		appendAssessments(unit.Assessments.Cats, contentModels.KindCat)
		appendAssessments(unit.Assessments.Assignments, contentModels.KindAssignment)
		appendAssessments(unit.Assessments.PastExams, contentModels.KindPastExam)
	}

	return out, nil
}

func legacyApproved(status string) bool {
	return repository.NormalizeStatus(status) == contentModels.StatusApproved
}

func legacyPremium(p *bool, kind string) bool {
	if p != nil {
		return *p
	}
	return contentModels.DefaultPremium(kind)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
