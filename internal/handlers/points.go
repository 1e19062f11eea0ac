package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/storage"
	"go.uber.org/zap"
)

type BalanceResponse struct {
	TotalPoints int `json:"total_points"`
}

func GetBalanceHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		userID := c.Locals("userID").(uuid.UUID)

		balance, err := storage.GetUserBalance(ctx, userID)
		if err != nil {
			logger.Log.Error("Error getting user balance", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.Status(fiber.StatusOK).JSON(BalanceResponse{
			TotalPoints: balance,
		})
	}
}

func CalculatePointsHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		userID := c.Locals("userID").(uuid.UUID)

		award, err := Engine.Calculate(ctx, userID, time.Now())
		if err != nil {
			logger.Log.Error("Error calculating weekly points", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		logger.Log.Info("Weekly points calculated",
			zap.String("userID", userID.String()),
			zap.Int("pointsAdded", award.PointsAdded),
			zap.String("weekStart", award.WeekStart),
			zap.String("message", award.Message))

		return c.Status(fiber.StatusOK).JSON(award)
	}
}
