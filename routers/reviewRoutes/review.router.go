package reviewRoutes

import (
	reviewControllers "elimu/controllers/review"
	"elimu/middleware"
	"elimu/models"
	reviewValidator "elimu/validators/review"

	"github.com/gofiber/fiber/v2"
)

// SetupReviewRoutes wires the reviewer-facing approval endpoints
func SetupReviewRoutes(app *fiber.App) {
	review := app.Group("/api/review",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin),
	)

	review.Get("/pending", reviewControllers.GetPendingContent)
	review.Get("/approved", reviewControllers.GetApprovedContent)
	review.Get("/stats", reviewControllers.GetContentStats)
	review.Post("/approve", reviewValidator.ReviewAction(), reviewControllers.ApproveContent)
	review.Post("/reject", reviewValidator.ReviewAction(), reviewControllers.RejectContent)
	review.Delete("/content", reviewValidator.DeleteContent(), reviewControllers.DeleteContent)
}
