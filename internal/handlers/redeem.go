package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/storage"
	"go.uber.org/zap"
)

type RedeemRequest struct {
	ItemName string `json:"item_name" validate:"required"`
	Cost     int    `json:"cost" validate:"required"`
}

type RedemptionResponse struct {
	ItemName   string    `json:"item_name"`
	Cost       int       `json:"cost"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

func RedeemHandler(c *fiber.Ctx) error {
	var request RedeemRequest
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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

		if request.ItemName == "" || request.Cost <= 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Item name and a positive cost are required",
			})
		}

		remaining, err := storage.RedeemPoints(ctx, userID, request.ItemName, request.Cost)
		if err != nil {
			if errors.Is(err, storage.ErrInsufficientPoints) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"message": "Not enough points",
				})
			}
			logger.Log.Error("Error redeeming points", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		logger.Log.Info("Points redeemed",
			zap.String("userID", userID.String()),
			zap.String("item", request.ItemName),
			zap.Int("cost", request.Cost))

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":          "Redeemed successfully",
			"remaining_points": remaining,
		})
	}
}

func GetRedemptionsHandler(c *fiber.Ctx) error {
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

		redemptions, err := storage.GetUserRedemptions(ctx, userID)
		if err != nil {
			logger.Log.Error("Error getting user redemptions", zap.Error(err))
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if len(redemptions) == 0 {
			return c.SendStatus(fiber.StatusNoContent)
		}

		var response []RedemptionResponse
		for _, redemption := range redemptions {
			response = append(response, RedemptionResponse{
				ItemName:   redemption.ItemName,
				Cost:       redemption.Cost,
				RedeemedAt: redemption.RedeemedAt,
			})
		}

		return c.Status(fiber.StatusOK).JSON(response)
	}
}
