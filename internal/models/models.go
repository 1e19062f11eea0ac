package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                   uuid.UUID      `db:"id"`
	Username             string         `db:"username"`
	Email                string         `db:"email"`
	PasswordHash         string         `db:"password_hash"`
	TotalPoints          int            `db:"total_points"`
	LastAwardedWeekStart sql.NullString `db:"last_awarded_week_start"`
	LastAwardedDay       sql.NullString `db:"last_awarded_day"`
	CreatedAt            time.Time      `db:"created_at"`
}

type LossReason struct {
	ID         int    `db:"id"`
	ReasonText string `db:"reason_text"`
}

// WasteRecord is immutable once created; the scoring engine only reads it.
type WasteRecord struct {
	ID          int       `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	ItemName    string    `db:"item_name"`
	WeightGrams float64   `db:"weight_grams"`
	ReasonID    int       `db:"loss_reason_id"`
	Reason      string    `db:"reason_text"`
	OccurredAt  time.Time `db:"occurred_at"`
}

type Redemption struct {
	ID         int       `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	ItemName   string    `db:"item_name"`
	Cost       int       `db:"cost"`
	RedeemedAt time.Time `db:"redeemed_at"`
}
