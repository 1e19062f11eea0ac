package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sevkagr/foodlog/internal/auth"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/storage"
	"github.com/sevkagr/foodlog/internal/tokenstorage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func RegisterHandler(c *fiber.Ctx) error {
	var request RegisterRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		if err := c.BodyParser(&request); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if request.Username == "" || request.Email == "" || request.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Username, email and password are required",
			})
		}

		existingUser, err := storage.GetUserByUsername(ctx, request.Username)
		if err != nil {
			logger.Log.Error("Error while querying user: ", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		if existingUser.ID != uuid.Nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User already exists",
			})
		}

		userID := uuid.New()
		token, err := auth.GenerateToken(userID)
		if err != nil {
			logger.Log.Error("Error generating token: ", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Log.Error("Error hashing password: ", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		err = storage.CreateUser(ctx, userID.String(), request.Username, request.Email, string(hashedPassword))
		if err != nil {
			logger.Log.Error("Error creating user: ", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		tokenstorage.AddToken(token)

		c.Cookie(&fiber.Cookie{
			Name:     "jwt",
			Value:    token,
			Expires:  time.Now().Add(auth.TokenExp),
			HTTPOnly: true,
		})

		c.Set("Authorization", "Bearer "+token)

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "User registered successfully",
		})
	}
}

func LoginHandler(c *fiber.Ctx) error {
	var request LoginRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	select {
	case <-ctx.Done():
		logger.Log.Warn("Context canceled or timeout exceeded")
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request timed out",
		})
	default:
		if err := c.BodyParser(&request); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		existingUser, err := storage.GetUserByUsername(ctx, request.Username)
		if err != nil {
			logger.Log.Error("Error while querying user: ", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		if existingUser.ID == uuid.Nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Wrong username or password",
			})
		}

		err = bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(request.Password))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Wrong username or password",
			})
		}

		token, err := auth.GenerateToken(existingUser.ID)
		if err != nil {
			logger.Log.Error("Error generating token: ", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		tokenstorage.AddToken(token)

		c.Cookie(&fiber.Cookie{
			Name:     "jwt",
			Value:    token,
			Expires:  time.Now().Add(auth.TokenExp),
			HTTPOnly: true,
		})

		c.Set("Authorization", "Bearer "+token)

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "User authorized successfully",
		})
	}
}

func LogoutHandler(c *fiber.Ctx) error {
	token := c.Cookies("jwt")
	if token != "" {
		tokenstorage.RemoveToken(token)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out",
	})
}
