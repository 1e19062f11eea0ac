package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/points"
	"github.com/sevkagr/foodlog/internal/stats"
	"github.com/sevkagr/foodlog/internal/storage"
	"go.uber.org/zap"
)

func GetWeeklyStatsHandler(c *fiber.Ctx) error {
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

		target := time.Now()
		if dateParam := c.Query("date"); dateParam != "" {
			parsed, err := time.ParseInLocation(points.DateFormat, dateParam, time.Local)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid date, expected YYYY-MM-DD",
				})
			}
			target = parsed
		}

		start, end := points.WeekBounds(target)

		records, err := storage.GetWasteRecords(ctx, userID, start, end)
		if err != nil {
			logger.Log.Error("Error getting waste records", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		dailyTotals, err := storage.GetDailyWasteTotals(ctx, userID, start, end)
		if err != nil {
			logger.Log.Error("Error getting daily totals", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.Status(fiber.StatusOK).JSON(stats.Build(target, records, dailyTotals))
	}
}
