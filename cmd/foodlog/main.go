package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sevkagr/foodlog/cmd/config"
	"github.com/sevkagr/foodlog/internal/handlers"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/middleware"
	"github.com/sevkagr/foodlog/internal/points"
	"github.com/sevkagr/foodlog/internal/storage"
	"github.com/sevkagr/foodlog/internal/workers"
	"go.uber.org/zap"
)

func main() {
	config.ParseFlags()

	if err := logger.Initialize(config.LogLevel); err != nil {
		logger.Log.Fatal("Failed to initialize logger", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Log.Error("Failed to init storage", zap.Error(err))
		return
	}

	policy, err := config.LoadPolicy()
	if err != nil {
		logger.Log.Fatal("Failed to load scoring policy", zap.Error(err))
	}

	engine := points.NewEngine(storage.PointsStore{}, storage.PointsStore{}, policy)
	handlers.Engine = engine

	workers.InitWeeklyAwards(engine, config.SweepInterval)

	if err := run(); err != nil {
		logger.Log.Fatal("Failed to run server", zap.Error(err))
	}
}

func run() error {
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Post("/api/user/register", handlers.RegisterHandler)
	app.Post("/api/user/login", handlers.LoginHandler)
	app.Post("/api/user/logout", handlers.LogoutHandler)
	app.Get("/api/reasons", handlers.GetReasonsHandler)

	authRoutes := app.Group("/api/user", middleware.AuthMiddleware)
	authRoutes.Get("/records", handlers.GetRecordsHandler)
	authRoutes.Post("/records", handlers.CreateRecordHandler)
	authRoutes.Get("/stats/weekly", handlers.GetWeeklyStatsHandler)
	authRoutes.Get("/balance", handlers.GetBalanceHandler)
	authRoutes.Post("/points/calculate", handlers.CalculatePointsHandler)
	authRoutes.Post("/points/redeem", handlers.RedeemHandler)
	authRoutes.Get("/redemptions", handlers.GetRedemptionsHandler)

	logger.Log.Info("Running server", zap.String("address", config.RunAddress))
	return app.Listen(config.RunAddress)
}
