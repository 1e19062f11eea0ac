package handlers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/points"
	"github.com/sevkagr/foodlog/internal/storage"
	"go.uber.org/zap"
)

type CreateRecordRequest struct {
	ItemName    string  `json:"item_name" validate:"required"`
	WeightGrams float64 `json:"weight_grams" validate:"required"`
	Reason      string  `json:"reason" validate:"required"`
}

type RecordResponse struct {
	ID          int       `json:"id"`
	ItemName    string    `json:"item_name"`
	WeightGrams float64   `json:"weight_grams"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func CreateRecordHandler(c *fiber.Ctx) error {
	var request CreateRecordRequest
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

		if err := c.BodyParser(&request); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if request.ItemName == "" || request.WeightGrams <= 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Item name and a positive weight are required",
			})
		}

		reason, err := storage.GetLossReasonByText(ctx, request.Reason)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": "Unknown loss reason",
				})
			}
			logger.Log.Error("Error checking loss reason", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		now := time.Now()

		err = storage.CreateWasteRecord(ctx, userID, request.ItemName, request.WeightGrams, reason.ID, now)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error creating record",
			})
		}

		// Every submission triggers a weekly evaluation; the engine's
		// idempotency makes repeated calls within a week harmless.
		award, err := Engine.Calculate(ctx, userID, now)
		if err != nil {
			logger.Log.Error("Error calculating weekly points", zap.Error(err))
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message": "Record created",
			})
		}

		logger.Log.Info("Record created",
			zap.String("userID", userID.String()),
			zap.Float64("weightGrams", request.WeightGrams),
			zap.Int("pointsAdded", award.PointsAdded))

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Record created",
			"award":   award,
		})
	}
}

func GetRecordsHandler(c *fiber.Ctx) error {
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

		if len(records) == 0 {
			return c.SendStatus(fiber.StatusNoContent)
		}

		var response []RecordResponse
		for _, record := range records {
			response = append(response, RecordResponse{
				ID:          record.ID,
				ItemName:    record.ItemName,
				WeightGrams: record.WeightGrams,
				Reason:      record.Reason,
				OccurredAt:  record.OccurredAt,
			})
		}

		return c.Status(fiber.StatusOK).JSON(response)
	}
}

func GetReasonsHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		reasons, err := storage.GetLossReasons(ctx)
		if err != nil {
			logger.Log.Error("Error getting loss reasons", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		var response []string
		for _, reason := range reasons {
			response = append(response, reason.ReasonText)
		}

		return c.Status(fiber.StatusOK).JSON(response)
	}
}
