package controllers

import (
	"errors"
	"strconv"

	"elimu/database"
	"elimu/middleware"
	contentModels "elimu/models/content"
	"elimu/repository"
	"elimu/services"
	"elimu/utils"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Blobs is the blob store used for uploads and downloads; wired in main.
var Blobs utils.Store

// GetCourseContent returns the student-visible content feed for a course,
// with optional year/semester filters, plus subscription pricing metadata.
func GetCourseContent(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID, err := strconv.ParseUint(c.Params("courseId"), 10, 32)
	if err != nil || courseID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var year, semester *int
	if v, err := strconv.Atoi(c.Query("year")); err == nil {
		year = &v
	}
	if v, err := strconv.Atoi(c.Query("semester")); err == nil {
		semester = &v
	}

	descriptors, pricing, err := services.ResolveCourseContent(database.Database.Db, uint(courseID), year, semester, userID)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		log.Printf("[CONTENT] resolve course content failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", fiber.Map{
		"content": descriptors,
		"pricing": pricing,
	})
}

// DownloadContent streams an approved asset's binary. The exam assessment
// class is never downloadable; premium assets require a subscription for the
// unit's academic year.
func DownloadContent(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	assetID, err := strconv.ParseUint(c.Params("assetId"), 10, 32)
	if err != nil || assetID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid asset id!", nil)
	}

	var asset contentModels.ContentAsset
	err = database.Database.Db.Where("id = ? AND status = ? AND is_active = ? AND is_deleted = ?",
		assetID, contentModels.StatusApproved, true, false).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
		}
		log.Printf("[CONTENT] load asset failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch content!", nil)
	}

	if asset.IsPremium {
		var unit contentModels.Unit
		if err := database.Database.Db.Where("id = ?", asset.UnitID).First(&unit).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Unit not found!", nil)
		}
		if !services.HasActiveSubscription(database.Database.Db, userID, asset.CourseID, unit.Year) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "An active subscription for this academic year is required!", fiber.Map{
				"requiresSubscription": true,
			})
		}
	}

	if asset.FileID == "" {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No file attached to this content!", nil)
	}

	stream, err := Blobs.Open(asset.FileID)
	if err != nil {
		log.Printf("[CONTENT] open blob %s failed: %v", asset.FileID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to open file!", nil)
	}

	if asset.Filename != "" {
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+asset.Filename+`"`)
	}
	return c.SendStream(stream)
}

// DownloadAssessment streams an assignment's binary. Cats, exams and past
// exams are view only regardless of subscription, so they answer 403 here.
func DownloadAssessment(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	assessmentID, err := strconv.ParseUint(c.Params("assessmentId"), 10, 32)
	if err != nil || assessmentID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid assessment id!", nil)
	}

	var assessment contentModels.Assessment
	err = database.Database.Db.Where("id = ? AND status = ? AND is_active = ? AND is_deleted = ?",
		assessmentID, contentModels.StatusApproved, true, false).First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
		}
		log.Printf("[CONTENT] load assessment failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch content!", nil)
	}

	if assessment.Type != contentModels.KindAssignment {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This content is view only and cannot be downloaded!", nil)
	}

	if assessment.FileID == "" {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No file attached to this content!", nil)
	}

	stream, err := Blobs.Open(assessment.FileID)
	if err != nil {
		log.Printf("[CONTENT] open blob %s failed: %v", assessment.FileID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to open file!", nil)
	}

	if assessment.ImageName != "" {
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+assessment.ImageName+`"`)
	}
	return c.SendStream(stream)
}
