package controllers

import (
	"errors"
	"strconv"

	"elimu/database"
	"elimu/middleware"
	"elimu/repository"
	"elimu/services"
	"elimu/utils"
	reviewValidator "elimu/validators/review"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Blobs is the blob store used for delete cleanup; wired in main.
var Blobs utils.Store

// respondServiceError maps the service error taxonomy onto status codes.
// Unexpected failures are logged with context, never swallowed.
func respondServiceError(c *fiber.Ctx, op string, err error) error {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, validation.Reason, nil)
	}
	var authz *services.AuthorizationError
	if errors.As(err, &authz) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, authz.Reason, nil)
	}
	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", fiber.Map{
			"tried": notFound.Tried,
		})
	}
	log.Printf("[REVIEW] %s failed: %v", op, err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong!", nil)
}

func queueOptionsFromQuery(c *fiber.Ctx) services.QueueOptions {
	opts := services.QueueOptions{
		IncludeLegacy:      c.Query("includeLegacy") == "true",
		LegacyWindowMonths: parseQueryInt(c, "windowMonths"),
		Institution:        c.Query("institution"),
		CourseID:           uint(parseQueryInt(c, "courseId")),
		UnitID:             uint(parseQueryInt(c, "unitId")),
		Kind:               c.Query("type"),
		AssessmentType:     c.Query("assessmentType"),
	}

	if uploaderID := parseQueryInt(c, "uploaderId"); uploaderID > 0 {
		id := uint(uploaderID)
		opts.UploaderScope = &id
	}
	// "mine" scopes the queue to the requester's own uploads.
	if c.Query("mine") == "true" {
		if userID, ok := c.Locals("userId").(uint); ok {
			opts.UploaderScope = &userID
		}
	}
	return opts
}

func parseQueryInt(c *fiber.Ctx, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// GetPendingContent returns the reconciled review queue across both storage shapes
func GetPendingContent(c *fiber.Ctx) error {
	result, err := services.BuildPendingContent(database.Database.Db, queueOptionsFromQuery(c))
	if err != nil {
		return respondServiceError(c, "build pending content", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending content fetched successfully!", result)
}

// GetApprovedContent returns the merged approved population
func GetApprovedContent(c *fiber.Ctx) error {
	items, err := services.ListApprovedContent(database.Database.Db, queueOptionsFromQuery(c))
	if err != nil {
		return respondServiceError(c, "list approved content", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Approved content fetched successfully!", fiber.Map{
		"approvedContent": items,
		"count":           len(items),
	})
}

// GetContentStats returns queue statistics and completeness tallies
func GetContentStats(c *fiber.Ctx) error {
	opts := queueOptionsFromQuery(c)
	opts.IncludeNonPending = true
	result, err := services.BuildPendingContent(database.Database.Db, opts)
	if err != nil {
		return respondServiceError(c, "content stats", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content stats fetched successfully!", fiber.Map{
		"stats":                   result.Stats,
		"legacyPending":           result.LegacyPending,
		"unitsWithAssessments":    result.UnitsWithAssessments,
		"unitsMissingAssessments": result.UnitsMissingAssessments,
		"courseCount":             result.CourseCount,
	})
}

// ApproveContent approves one content item and returns the refreshed queue
func ApproveContent(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedReview").(*reviewValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := services.Approve(database.Database.Db, reqData.RawRef, reviewerID, reqData.Notes, reqData.IsPremium)
	if err != nil {
		return respondServiceError(c, "approve content", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content approved successfully!", result)
}

// RejectContent rejects one content item and returns the refreshed queue
func RejectContent(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedReview").(*reviewValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := services.Reject(database.Database.Db, reqData.RawRef, reviewerID, reqData.Notes)
	if err != nil {
		return respondServiceError(c, "reject content", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content rejected successfully!", result)
}

// DeleteContent removes a batch of content items. Partial failure is a
// success response with an itemized failures list.
func DeleteContent(c *fiber.Ctx) error {
	requesterID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	role, _ := c.Locals("role").(string)

	reqData, ok := c.Locals("validatedDelete").(*reviewValidator.DeleteRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := services.DeleteContent(database.Database.Db, Blobs, reqData.Refs, requesterID, role)
	if err != nil {
		// Nothing was deleted at all; surface the strongest diagnosis.
		return respondServiceError(c, "delete content", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content deleted successfully!", result)
}
