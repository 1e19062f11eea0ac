package workers

import (
	"context"
	"time"

	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/points"
	"github.com/sevkagr/foodlog/internal/storage"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// InitWeeklyAwards starts the background sweep that evaluates every user's
// current week. The engine finalizes each (user, week) at most once, so the
// sweep can run as often as the interval allows without double-awarding.
func InitWeeklyAwards(engine *points.Engine, interval time.Duration) {
	go startWorker(engine, interval)

	logger.Log.Info("Weekly award worker started", zap.Duration("interval", interval))
}

func startWorker(engine *points.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		sweepWeeklyAwards(engine)
	}
}

func sweepWeeklyAwards(engine *points.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	userIDs, err := storage.GetAllUserIDs(ctx)
	if err != nil {
		logger.Log.Error("Error listing users for award sweep", zap.Error(err))
		return
	}

	now := time.Now()

	for _, userID := range userIDs {
		award, err := engine.Calculate(ctx, userID, now)
		if err != nil {
			logger.Log.Error("Failed to evaluate weekly award",
				zap.String("userID", userID.String()), zap.Error(err))
			continue
		}

		if award.PointsAdded > 0 {
			logger.Log.Info("Weekly points awarded",
				zap.String("userID", userID.String()),
				zap.Int("pointsAdded", award.PointsAdded),
				zap.String("weekStart", award.WeekStart))
		}
	}
}
