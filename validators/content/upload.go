package contentValidator

import (
	"strconv"
	"strings"
	"time"

	"elimu/middleware"
	contentModels "elimu/models/content"
	"elimu/services"

	"github.com/gofiber/fiber/v2"
)

// UploadContent validates the multipart metadata of an upload. The binary
// itself is picked up by the controller.
func UploadContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)

		courseID := parseUint(c.FormValue("courseId"))
		unitID := parseUint(c.FormValue("unitId"))
		kind := strings.ToUpper(strings.TrimSpace(c.FormValue("type")))
		title := strings.TrimSpace(c.FormValue("title"))

		if courseID == 0 {
			errors["courseId"] = "Course id is required!"
		}
		if unitID == 0 {
			errors["unitId"] = "Unit id is required!"
		}
		if kind == "" {
			errors["type"] = "Content type is required!"
		}
		if title == "" {
			errors["title"] = "Title is required!"
		} else if len(title) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}

		req := services.UploadRequest{
			CourseID: courseID,
			UnitID:   unitID,
			Kind:     kind,
			Title:    title,
			URL:      strings.TrimSpace(c.FormValue("url")),
		}

		if topicID := parseUint(c.FormValue("topicId")); topicID != 0 {
			req.TopicID = &topicID
		}
		if (kind == contentModels.KindVideo || kind == contentModels.KindNotes) && req.TopicID == nil {
			errors["topicId"] = "Topic id is required for video and notes uploads!"
		}

		if v := c.FormValue("isPremium"); v != "" {
			premium := v == "true" || v == "1"
			req.IsPremium = &premium
		}
		if t, ok := parseDate(c.FormValue("dueDate")); ok {
			req.DueDate = t
		}
		if t, ok := parseDate(c.FormValue("startsAt")); ok {
			req.StartsAt = t
		}
		if t, ok := parseDate(c.FormValue("endsAt")); ok {
			req.EndsAt = t
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUpload", &req)
		return c.Next()
	}
}

func parseUint(v string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

func parseDate(v string) (*time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}
