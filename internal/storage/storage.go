package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/sevkagr/foodlog/cmd/config"
	"github.com/sevkagr/foodlog/internal/logger"
	"github.com/sevkagr/foodlog/internal/models"
	"github.com/sevkagr/foodlog/internal/points"
	"go.uber.org/zap"
)

var (
	DB                     *sql.DB
	ErrConnectionFailed    = errors.New("db connection failed")
	ErrCreatingTableFailed = errors.New("creating table failed")
	ErrInsufficientPoints  = errors.New("insufficient points")
)

var defaultReasons = []string{"Expired", "Leftovers", "Cooking waste", "Spoiled", "Other"}

func Init() error {
	if config.DatabaseURI == "" {
		return ErrConnectionFailed
	}

	db, err := sql.Open("pgx", config.DatabaseURI)
	if err != nil {
		logger.Log.Fatal("Error opening database connection", zap.Error(err))
		return ErrConnectionFailed
	}
	DB = db

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY NOT NULL,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			total_points INTEGER NOT NULL DEFAULT 0,
			last_awarded_week_start VARCHAR(10),
			last_awarded_day VARCHAR(10),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS loss_reasons (
			id SERIAL PRIMARY KEY NOT NULL,
			reason_text VARCHAR(255) UNIQUE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS waste_records (
			id SERIAL PRIMARY KEY NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id),
			item_name VARCHAR(255) NOT NULL,
			weight_grams DECIMAL(10, 2) NOT NULL,
			loss_reason_id INTEGER NOT NULL REFERENCES loss_reasons(id),
			occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id SERIAL PRIMARY KEY NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id),
			item_name VARCHAR(255) NOT NULL,
			cost INTEGER NOT NULL,
			redeemed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, table := range tables {
		if _, err := DB.Exec(table); err != nil {
			logger.Log.Error("Error creating table", zap.Error(err))
			return ErrCreatingTableFailed
		}
	}

	for _, reason := range defaultReasons {
		if _, err := DB.Exec(`
			INSERT INTO loss_reasons (reason_text) VALUES ($1) ON CONFLICT (reason_text) DO NOTHING;
		`, reason); err != nil {
			logger.Log.Error("Error seeding loss reasons", zap.Error(err))
			return ErrCreatingTableFailed
		}
	}

	return nil
}

func GetUserByUsername(ctx context.Context, username string) (models.User, error) {

	var existingUser models.User

	err := DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, total_points, last_awarded_week_start, last_awarded_day, created_at
		FROM users WHERE username = $1;
	`, username).Scan(&existingUser.ID, &existingUser.Username, &existingUser.Email, &existingUser.PasswordHash,
		&existingUser.TotalPoints, &existingUser.LastAwardedWeekStart, &existingUser.LastAwardedDay, &existingUser.CreatedAt)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.User{}, err
		}
	}

	return existingUser, nil
}

func CreateUser(ctx context.Context, userID string, username string, email string, passwordHash string) error {

	_, err := DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4);
	`, userID, username, email, passwordHash)

	if err != nil {
		logger.Log.Error("Error creating user", zap.Error(err))
		return err
	}

	return nil
}

func GetUserBalance(ctx context.Context, UUID uuid.UUID) (int, error) {

	var balance int

	err := DB.QueryRowContext(ctx, `
		SELECT total_points FROM users WHERE id = $1;
	`, UUID).Scan(&balance)

	if err != nil {
		return 0, err
	}

	return balance, nil
}

func GetLossReasons(ctx context.Context) ([]models.LossReason, error) {

	var reasons []models.LossReason

	rows, err := DB.QueryContext(ctx, `
		SELECT id, reason_text FROM loss_reasons ORDER BY id;
	`)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var reason models.LossReason
		if err = rows.Scan(&reason.ID, &reason.ReasonText); err != nil {
			return nil, err
		}
		reasons = append(reasons, reason)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return reasons, nil
}

func GetLossReasonByText(ctx context.Context, reasonText string) (models.LossReason, error) {

	var reason models.LossReason

	err := DB.QueryRowContext(ctx, `
		SELECT id, reason_text FROM loss_reasons WHERE reason_text = $1;
	`, reasonText).Scan(&reason.ID, &reason.ReasonText)

	if err != nil {
		return models.LossReason{}, err
	}

	return reason, nil
}

func CreateWasteRecord(ctx context.Context, userID uuid.UUID, itemName string, weightGrams float64, reasonID int, occurredAt time.Time) error {

	_, err := DB.ExecContext(ctx, `
		INSERT INTO waste_records (user_id, item_name, weight_grams, loss_reason_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5);
	`, userID, itemName, weightGrams, reasonID, occurredAt)

	if err != nil {
		logger.Log.Error("Error creating waste record", zap.Error(err))
		return err
	}

	return nil
}

func GetWasteRecords(ctx context.Context, UUID uuid.UUID, start time.Time, end time.Time) ([]models.WasteRecord, error) {

	var records []models.WasteRecord

	rows, err := DB.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.item_name, r.weight_grams, r.loss_reason_id, lr.reason_text, r.occurred_at
		FROM waste_records r
		JOIN loss_reasons lr ON lr.id = r.loss_reason_id
		WHERE r.user_id = $1 AND r.occurred_at >= $2 AND r.occurred_at < $3
		ORDER BY r.occurred_at;
	`, UUID, start, end)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var record models.WasteRecord
		err = rows.Scan(&record.ID, &record.UserID, &record.ItemName, &record.WeightGrams,
			&record.ReasonID, &record.Reason, &record.OccurredAt)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func GetDailyWasteTotals(ctx context.Context, UUID uuid.UUID, start time.Time, end time.Time) (map[string]float64, error) {

	totals := make(map[string]float64)

	rows, err := DB.QueryContext(ctx, `
		SELECT to_char(occurred_at, 'YYYY-MM-DD') AS day, SUM(weight_grams)
		FROM waste_records
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		GROUP BY day;
	`, UUID, start, end)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var day string
		var grams float64
		if err = rows.Scan(&day, &grams); err != nil {
			return nil, err
		}
		totals[day] = grams
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

func GetAllUserIDs(ctx context.Context) ([]uuid.UUID, error) {

	var ids []uuid.UUID

	rows, err := DB.QueryContext(ctx, `
		SELECT id FROM users;
	`)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// RedeemPoints exchanges points for a reward inside one transaction. The
// balance decrement is conditional on the user still having enough points, so
// concurrent redemptions cannot drive the balance negative.
func RedeemPoints(ctx context.Context, userID uuid.UUID, itemName string, cost int) (int, error) {
	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var remaining int

	err = tx.QueryRowContext(ctx, `
		UPDATE users SET total_points = total_points - $1
		WHERE id = $2 AND total_points >= $1
		RETURNING total_points;
	`, cost, userID).Scan(&remaining)

	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientPoints
		}
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO redemptions (user_id, item_name, cost) VALUES ($1, $2, $3);
	`, userID, itemName, cost)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}

	return remaining, nil
}

func GetUserRedemptions(ctx context.Context, UUID uuid.UUID) ([]models.Redemption, error) {

	var redemptions []models.Redemption

	rows, err := DB.QueryContext(ctx, `
		SELECT id, user_id, item_name, cost, redeemed_at FROM redemptions
		WHERE user_id = $1 ORDER BY redeemed_at;
	`, UUID)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var redemption models.Redemption
		err = rows.Scan(&redemption.ID, &redemption.UserID, &redemption.ItemName, &redemption.Cost, &redemption.RedeemedAt)
		if err != nil {
			return nil, err
		}
		redemptions = append(redemptions, redemption)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return redemptions, nil
}

// PointsStore adapts the package-level queries to the scoring engine's
// RecordStore and UserStore interfaces.
type PointsStore struct{}

func (PointsStore) WeightSum(ctx context.Context, userID uuid.UUID, start, end time.Time) (float64, error) {

	var total float64

	err := DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(weight_grams), 0) FROM waste_records
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3;
	`, userID, start, end).Scan(&total)

	if err != nil {
		return 0, err
	}

	return total, nil
}

func (PointsStore) ScoreState(ctx context.Context, userID uuid.UUID) (points.ScoreState, error) {

	var state points.ScoreState

	err := DB.QueryRowContext(ctx, `
		SELECT total_points, COALESCE(last_awarded_week_start, ''), COALESCE(last_awarded_day, '')
		FROM users WHERE id = $1;
	`, userID).Scan(&state.TotalPoints, &state.LastAwardedWeekStart, &state.LastAwardedDay)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return points.ScoreState{}, points.ErrUserNotFound
		}
		return points.ScoreState{}, err
	}

	return state, nil
}

// FinalizeWeek applies the weekly award as a single conditional update: the
// balance increment and the marker change land together or not at all, and
// only the first call for a given week matches the WHERE clause.
func (PointsStore) FinalizeWeek(ctx context.Context, userID uuid.UUID, pointsToAdd int, weekStart string) (bool, error) {

	res, err := DB.ExecContext(ctx, `
		UPDATE users SET total_points = total_points + $1, last_awarded_week_start = $2
		WHERE id = $3 AND last_awarded_week_start IS DISTINCT FROM $2;
	`, pointsToAdd, weekStart, userID)

	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (PointsStore) GrantDailyBonus(ctx context.Context, userID uuid.UUID, day string) (bool, error) {

	res, err := DB.ExecContext(ctx, `
		UPDATE users SET total_points = total_points + 1, last_awarded_day = $1
		WHERE id = $2 AND last_awarded_day IS DISTINCT FROM $1;
	`, day, userID)

	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
