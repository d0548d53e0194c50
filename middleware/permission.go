package middleware

import (
	"elimu/database"
	"elimu/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole returns a middleware that loads the requester and checks the
// role against the allowed set. The loaded role is re-stashed in locals so
// controllers see the stored role, not a stale token claim.
func RequireRole(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  false,
				"message": "Unauthorized: User ID not found",
				"data":    nil,
			})
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  false,
				"message": "User not found!",
				"data":    nil,
			})
		}

		for _, role := range allowed {
			if user.Role == role {
				c.Locals("role", user.Role)
				c.Locals("name", user.Name)
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  false,
			"message": "You do not have permission to access this resource!",
			"data":    nil,
		})
	}
}
