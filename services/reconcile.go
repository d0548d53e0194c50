package services

import (
	"sort"
	"sync"
	"time"

	"elimu/config"
	"elimu/models"
	contentModels "elimu/models/content"
	"elimu/repository"

	"gorm.io/gorm"
)

// UnknownUploader is shown for pre-attribution legacy content. Such items are
// still surfaced; content must never drop out of the queue for lacking an
// uploader record.
const UnknownUploader = "Unknown uploader"

// QueueOptions controls one reconciliation pass.
type QueueOptions struct {
	// IncludeLegacy disables the recency window so the full backlog shows.
	IncludeLegacy bool
	// LegacyWindowMonths is the recency horizon; 0 means the configured
	// default (1 month out of the box).
	LegacyWindowMonths int
	// UploaderScope restricts the queue to one uploader's items, for
	// self-scoped dashboards.
	UploaderScope *uint
	// IncludeNonPending keeps approved/rejected items in the list.
	IncludeNonPending bool

	Institution    string
	CourseID       uint
	UnitID         uint
	Kind           string
	AssessmentType string
}

func (o QueueOptions) filter() repository.ContentFilter {
	return repository.ContentFilter{
		Institution:    o.Institution,
		CourseID:       o.CourseID,
		UnitID:         o.UnitID,
		UploadedBy:     o.UploaderScope,
		Kind:           o.Kind,
		AssessmentType: o.AssessmentType,
	}
}

func (o QueueOptions) windowMonths() int {
	if o.LegacyWindowMonths > 0 {
		return o.LegacyWindowMonths
	}
	if config.AppConfig != nil && config.AppConfig.LegacyWindowMonths > 0 {
		return config.AppConfig.LegacyWindowMonths
	}
	return 1
}

// QueueStats counts every scanned item by status, independent of the time
// window, so the filtered queue and the audit totals never drift apart.
type QueueStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// PendingContentResult is one reconciled view over both storage shapes.
type PendingContentResult struct {
	PendingContent          []repository.ReviewItem `json:"pendingContent"`
	Stats                   QueueStats              `json:"stats"`
	UnitsMissingAssessments int                     `json:"unitsMissingAssessments"`
	UnitsWithAssessments    int                     `json:"unitsWithAssessments"`
	// LegacyPending counts pending items hidden by the recency window.
	LegacyPending int `json:"legacyPending"`
	CourseCount   int `json:"courseCount"`
}

// BuildPendingContent merges the legacy embedded tree and the normalized
// tables into one deduplicated, time-windowed review queue. The two
// populations are historically disjoint by cutover date and are not
// identity-matched against each other.
func BuildPendingContent(db *gorm.DB, opts QueueOptions) (*PendingContentResult, error) {
	legacyRepo := repository.NewLegacyRepository(db)
	normRepo := repository.NewNormalizedRepository(db)
	f := opts.filter()

	// The four reads are independent; run them concurrently and join in
	// memory. Minor staleness between them is acceptable here.
	var (
		wg          sync.WaitGroup
		legacyScan  *repository.LegacyScan
		assessments []repository.ReviewItem
		assets      []repository.ReviewItem
		uploaders   map[uint]string
		errLegacy   error
		errAssess   error
		errAssets   error
		errUsers    error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		legacyScan, errLegacy = legacyRepo.Scan(f)
	}()
	go func() {
		defer wg.Done()
		assessments, errAssess = normRepo.ListAssessmentItems(f)
	}()
	go func() {
		defer wg.Done()
		assets, errAssets = normRepo.ListAssetItems(f)
	}()
	go func() {
		defer wg.Done()
		uploaders, errUsers = uploaderDirectory(db)
	}()
	wg.Wait()

	for _, err := range []error{errLegacy, errAssess, errAssets, errUsers} {
		if err != nil {
			return nil, &BackendError{Op: "reconcile: scan content", Err: err}
		}
	}

	items := make([]repository.ReviewItem, 0, len(legacyScan.Items)+len(assessments)+len(assets))
	items = append(items, legacyScan.Items...)
	items = append(items, assessments...)
	items = append(items, assets...)

	var stats QueueStats
	for i := range items {
		stats.Total++
		switch items[i].Status {
		case contentModels.StatusApproved:
			stats.Approved++
		case contentModels.StatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
		}

		if name, ok := uploaders[items[i].UploadedBy]; ok && name != "" {
			items[i].UploaderName = name
		} else {
			items[i].UploaderName = UnknownUploader
		}
	}

	cutoff := time.Now().AddDate(0, -opts.windowMonths(), 0)
	pendingBeforeWindow := 0
	visible := make([]repository.ReviewItem, 0, len(items))
	for i := range items {
		isPending := items[i].Status == contentModels.StatusPending
		if isPending {
			pendingBeforeWindow++
		}
		if !opts.IncludeNonPending && !isPending {
			continue
		}
		if !opts.IncludeLegacy && !withinWindow(items[i].UploadDate, cutoff) {
			// Hidden from the default queue, still counted in the totals
			// above so nothing is silently lost from auditing.
			continue
		}
		visible = append(visible, items[i])
	}

	pendingVisible := 0
	for i := range visible {
		if visible[i].Status == contentModels.StatusPending {
			pendingVisible++
		}
	}

	sortByUploadDateDesc(visible)

	withAssessments, missing, err := normRepo.UnitTally(f)
	if err != nil {
		return nil, &BackendError{Op: "reconcile: unit tally", Err: err}
	}

	return &PendingContentResult{
		PendingContent:          visible,
		Stats:                   stats,
		UnitsWithAssessments:    legacyScan.UnitsWithAssessments + withAssessments,
		UnitsMissingAssessments: legacyScan.UnitsMissingAssessments + missing,
		LegacyPending:           pendingBeforeWindow - pendingVisible,
		CourseCount:             legacyScan.CourseCount,
	}, nil
}

// ListApprovedContent returns the merged approved population from both
// storage shapes, no recency window applied.
func ListApprovedContent(db *gorm.DB, opts QueueOptions) ([]repository.ReviewItem, error) {
	opts.IncludeLegacy = true
	opts.IncludeNonPending = true
	result, err := BuildPendingContent(db, opts)
	if err != nil {
		return nil, err
	}
	approved := make([]repository.ReviewItem, 0, len(result.PendingContent))
	for _, item := range result.PendingContent {
		if item.Status == contentModels.StatusApproved {
			approved = append(approved, item)
		}
	}
	return approved, nil
}

// withinWindow reports whether an upload date proves recency. Items with no
// date cannot, and stay out of the filtered view.
func withinWindow(uploadDate *time.Time, cutoff time.Time) bool {
	if uploadDate == nil {
		return false
	}
	return !uploadDate.Before(cutoff)
}

// sortByUploadDateDesc orders newest first; missing dates are treated as
// earliest and sink to the bottom.
func sortByUploadDateDesc(items []repository.ReviewItem) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].UploadDate, items[j].UploadDate
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.After(*dj)
	})
}

func uploaderDirectory(db *gorm.DB) (map[uint]string, error) {
	var users []models.User
	if err := db.Where("is_deleted = ?", false).Find(&users).Error; err != nil {
		return nil, err
	}
	dir := make(map[uint]string, len(users))
	for i := range users {
		dir[users[i].ID] = users[i].Name
	}
	return dir, nil
}
