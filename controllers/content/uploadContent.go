package controllers

import (
	"errors"

	"elimu/database"
	"elimu/middleware"
	"elimu/models"
	"elimu/repository"
	"elimu/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// UploadContent accepts one binary plus metadata addressed to an explicit
// (course, unit[, topic]) location and writes it into the normalized path.
func UploadContent(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedUpload").(*services.UploadRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	reqData.UploaderID = userID
	reqData.UploaderRole = user.Role

	if file, err := c.FormFile("file"); err == nil {
		reqData.File = file
	}

	created, err := services.IngestUpload(database.Database.Db, Blobs, *reqData)
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, validation.Reason, nil)
		}
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Upload target not found!", fiber.Map{
				"tried": notFound.Tried,
			})
		}
		log.Printf("[CONTENT] upload failed: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to upload content!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content uploaded successfully!", created)
}
