package reviewValidator

import (
	"strings"

	"elimu/middleware"
	"elimu/repository"

	"github.com/gofiber/fiber/v2"
)

// ReviewRequest addresses one content item plus the reviewer's verdict
// details. Any one complete addressing mode is enough.
type ReviewRequest struct {
	repository.RawRef
	Notes     string `json:"notes"`
	IsPremium *bool  `json:"isPremium"`
}

func hasAnyAddressing(raw repository.RawRef) bool {
	if raw.AssessmentID != nil && *raw.AssessmentID != 0 {
		return true
	}
	if raw.TopicID != nil && *raw.TopicID != 0 && raw.ContentType != "" {
		return true
	}
	if raw.CourseID != nil && *raw.CourseID != 0 && raw.LegacyUnitID != "" &&
		(raw.LegacyTopicID != "" || raw.LegacyAssessmentID != "") {
		return true
	}
	return false
}

// ReviewAction validates an approve/reject body
func ReviewAction() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ReviewRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if !hasAnyAddressing(reqData.RawRef) {
			errors["ref"] = "Supply assessmentId, topicId+contentType, or courseId+legacyUnitId with a legacy topic or assessment id!"
		}
		if len(strings.TrimSpace(reqData.Notes)) > 1000 {
			errors["notes"] = "Notes must be at most 1000 characters!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

// DeleteRequest carries a batch of content references; a single delete is a
// batch of one.
type DeleteRequest struct {
	Refs []repository.RawRef `json:"refs"`
}

// DeleteContent validates a batch delete body
func DeleteContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(DeleteRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Refs) == 0 {
			errors["refs"] = "At least one content reference is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedDelete", reqData)
		return c.Next()
	}
}
