package services

import (
	"errors"
	"fmt"
	"strings"

	"elimu/models"
	contentModels "elimu/models/content"
	"elimu/repository"
	"elimu/utils"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// repoFor picks the repository a resolved ref belongs to. The type switch
// is exhaustive over the sealed ContentRef union.
func repoFor(db *gorm.DB, ref repository.ContentRef) repository.ContentRepository {
	switch ref.(type) {
	case repository.ByEmbeddedLegacy:
		return repository.NewLegacyRepository(db)
	default:
		return repository.NewNormalizedRepository(db)
	}
}

// mapResolveErr converts resolution failures into the client error taxonomy.
func mapResolveErr(err error) error {
	if errors.Is(err, repository.ErrMissingAddressing) {
		return &ValidationError{Reason: "missing required addressing fields: supply assessmentId, topicId+contentType, or courseId+legacyUnitId with a legacy topic or assessment id"}
	}
	var nf *repository.NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return &BackendError{Op: "resolve content ref", Err: err}
}

// Approve transitions one pending item to approved, resolving which storage
// path it lives in, then returns a freshly recomputed pending queue. The full
// re-run trades read cost for a guaranteed-consistent view.
func Approve(db *gorm.DB, raw repository.RawRef, reviewerID uint, notes string, isPremiumOverride *bool) (*PendingContentResult, error) {
	ref, _, err := repository.Resolve(db, raw)
	if err != nil {
		return nil, mapResolveErr(err)
	}

	meta := repository.ReviewMeta{ReviewerID: reviewerID, Notes: notes, IsPremiumOverride: isPremiumOverride}
	if err := repoFor(db, ref).Approve(ref, meta); err != nil {
		return nil, reviewErr("approve", err)
	}

	log.Printf("[APPROVAL] reviewer %d approved %s", reviewerID, FormatRefSummary(raw))
	return BuildPendingContent(db, QueueOptions{})
}

// Reject transitions one pending item to rejected. On the normalized path the
// row keeps a rejected status; on the legacy path the subfield is deleted
// outright, since legacy content has no rejected resting state.
func Reject(db *gorm.DB, raw repository.RawRef, reviewerID uint, notes string) (*PendingContentResult, error) {
	ref, _, err := repository.Resolve(db, raw)
	if err != nil {
		return nil, mapResolveErr(err)
	}

	meta := repository.ReviewMeta{ReviewerID: reviewerID, Notes: notes}
	if err := repoFor(db, ref).Reject(ref, meta); err != nil {
		return nil, reviewErr("reject", err)
	}

	log.Printf("[APPROVAL] reviewer %d rejected %s", reviewerID, FormatRefSummary(raw))
	return BuildPendingContent(db, QueueOptions{})
}

func reviewErr(op string, err error) error {
	var nf *repository.NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return &BackendError{Op: op + " content", Err: err}
}

// DeleteFailure itemizes one failed target in a batch delete.
type DeleteFailure struct {
	Index  int      `json:"index"`
	Reason string   `json:"reason"`
	Ref    []string `json:"ref"`
}

// DeleteResult reports a batch delete. Some failures alongside successes is a
// normal outcome, not an error.
type DeleteResult struct {
	DeletedCount int             `json:"deletedCount"`
	Failures     []DeleteFailure `json:"failures"`
}

type resolvedDelete struct {
	index int
	raw   repository.RawRef
	ref   repository.ContentRef
	item  *repository.ReviewItem
}

// DeleteContent removes a batch of content references. Per item the requester
// must have uploaded it or hold the top administrative tier. Processing
// continues past individual failures; the whole call fails only when nothing
// at all was deleted. Legacy refs sharing a course are applied to one
// in-memory aggregate copy and saved once.
func DeleteContent(db *gorm.DB, store utils.Store, raws []repository.RawRef, requesterID uint, requesterRole string) (*DeleteResult, error) {
	if len(raws) == 0 {
		return nil, &ValidationError{Reason: "no content references supplied"}
	}

	result := &DeleteResult{}
	var firstErr error
	fail := func(index int, raw repository.RawRef, reason string, err error) {
		result.Failures = append(result.Failures, DeleteFailure{Index: index, Reason: reason, Ref: raw.Identifiers()})
		if firstErr == nil {
			firstErr = err
		}
	}

	normRepo := repository.NewNormalizedRepository(db)
	legacyRepo := repository.NewLegacyRepository(db)

	// Resolve and authorize everything first so legacy removals can be
	// grouped per course.
	var normalized []resolvedDelete
	legacyByCourse := make(map[uint][]resolvedDelete)
	legacyOrder := make([]uint, 0)

	for i, raw := range raws {
		ref, item, err := repository.Resolve(db, raw)
		if err != nil {
			mapped := mapResolveErr(err)
			fail(i, raw, mapped.Error(), mapped)
			continue
		}
		if item.UploadedBy != requesterID && requesterRole != models.RoleSuperAdmin {
			authErr := &AuthorizationError{Reason: "only the uploader or a super admin may delete this content"}
			fail(i, raw, authErr.Reason, authErr)
			continue
		}

		rd := resolvedDelete{index: i, raw: raw, ref: ref, item: item}
		if legacy, ok := ref.(repository.ByEmbeddedLegacy); ok {
			if _, seen := legacyByCourse[legacy.CourseID]; !seen {
				legacyOrder = append(legacyOrder, legacy.CourseID)
			}
			legacyByCourse[legacy.CourseID] = append(legacyByCourse[legacy.CourseID], rd)
			continue
		}
		normalized = append(normalized, rd)
	}

	for _, rd := range normalized {
		deleted, err := normRepo.Delete(rd.ref)
		if err != nil {
			fail(rd.index, rd.raw, err.Error(), err)
			continue
		}
		removeBlob(store, deleted)
		result.DeletedCount++
	}

	for _, courseID := range legacyOrder {
		group := legacyByCourse[courseID]
		var removedBlobs []repository.DeletedItem
		failedInGroup := make(map[int]bool)
		err := legacyRepo.MutateAggregate(courseID, func(units []contentModels.LegacyUnit) ([]contentModels.LegacyUnit, bool, error) {
			changed := false
			for _, rd := range group {
				legacy := rd.ref.(repository.ByEmbeddedLegacy)
				var item repository.DeletedItem
				var removed bool
				units, item, removed = repository.RemoveLegacyItem(units, legacy)
				if !removed {
					nf := &repository.NotFoundError{Tried: rd.raw.Identifiers()}
					fail(rd.index, rd.raw, nf.Error(), nf)
					failedInGroup[rd.index] = true
					continue
				}
				removedBlobs = append(removedBlobs, item)
				result.DeletedCount++
				changed = true
			}
			return units, changed, nil
		})
		if err != nil {
			// The whole aggregate save failed; walk back the counts for this
			// group and mark each target failed. Refs that already failed
			// inside the callback keep their single entry.
			result.DeletedCount -= len(removedBlobs)
			removedBlobs = nil
			for _, rd := range group {
				if failedInGroup[rd.index] {
					continue
				}
				fail(rd.index, rd.raw, fmt.Sprintf("save course aggregate: %v", err), err)
			}
			continue
		}
		for _, blob := range removedBlobs {
			removeBlob(store, blob)
		}
	}

	if result.DeletedCount == 0 {
		if firstErr != nil {
			return result, firstErr
		}
		return result, &ValidationError{Reason: "no content references could be deleted"}
	}

	log.Printf("[APPROVAL] requester %d deleted %d item(s), %d failure(s)", requesterID, result.DeletedCount, len(result.Failures))
	return result, nil
}

func removeBlob(store utils.Store, deleted repository.DeletedItem) {
	if store == nil || deleted.FileID == "" {
		return
	}
	if err := store.Remove(deleted.FileID); err != nil {
		// Orphan blobs are recoverable by a sweep; the delete itself stands.
		log.Printf("[APPROVAL] failed to remove blob %s: %v", deleted.FileID, err)
	}
}

// FormatRefSummary renders ref identifiers for log and error payloads.
func FormatRefSummary(raw repository.RawRef) string {
	return strings.Join(raw.Identifiers(), ", ")
}
