package contentRoutes

import (
	contentControllers "elimu/controllers/content"
	"elimu/middleware"
	contentValidator "elimu/validators/content"

	"github.com/gofiber/fiber/v2"
)

// SetupContentRoutes wires uploads and the student-facing content feed
func SetupContentRoutes(app *fiber.App) {
	content := app.Group("/api", middleware.JWTMiddleware)

	content.Post("/content/upload", contentValidator.UploadContent(), contentControllers.UploadContent)
	content.Get("/content/download/assessment/:assessmentId", contentControllers.DownloadAssessment)
	content.Get("/content/download/:assetId", contentControllers.DownloadContent)
	content.Get("/courses/:courseId/content", contentControllers.GetCourseContent)
}
