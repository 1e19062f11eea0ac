package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sevkagr/foodlog/internal/auth"
	"github.com/sevkagr/foodlog/internal/tokenstorage"
)

func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := c.Cookies("jwt")
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if !tokenstorage.CheckToken(tokenString) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unknown or revoked token",
		})
	}

	userID, err := auth.GetUserID(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("userID", userID)

	return c.Next()
}
