package points

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by UserStore implementations when the referenced
// user does not exist.
var ErrUserNotFound = errors.New("user not found")

// Messages carried in AwardResult for the expected non-error outcomes.
const (
	MessageAlreadyAwarded = "already_awarded"
	MessageUserNotFound   = "user_not_found"
)

// ScoreState is the per-user award state read before an evaluation. Empty
// marker strings mean the marker was never set.
type ScoreState struct {
	TotalPoints          int
	LastAwardedWeekStart string
	LastAwardedDay       string
}

// UserStore is the mutable side of the engine's persistence boundary.
// FinalizeWeek and GrantDailyBonus must be atomic conditional updates: they
// apply the point delta and set the marker only if the current marker differs,
// and report whether this call won. Two concurrent calls for the same user and
// week must not both report true.
type UserStore interface {
	ScoreState(ctx context.Context, userID uuid.UUID) (ScoreState, error)
	FinalizeWeek(ctx context.Context, userID uuid.UUID, pointsToAdd int, weekStart string) (bool, error)
	GrantDailyBonus(ctx context.Context, userID uuid.UUID, day string) (bool, error)
}

// AwardResult describes one weekly evaluation. Rates are fractions
// (0.20 = 20% reduction). It is returned to the caller and never persisted.
type AwardResult struct {
	PointsAdded        int     `json:"points_added"`
	DailyBonus         int     `json:"daily_bonus"`
	FinalReductionRate float64 `json:"final_reduction_rate"`
	RateLastWeek       float64 `json:"rate_vs_last_week"`
	RateBaseline       float64 `json:"rate_vs_baseline"`
	WeekStart          string  `json:"week_start"`
	Message            string  `json:"message,omitempty"`
	OnboardingApplied  bool    `json:"onboarding_applied"`
}

// Engine applies the weekly reduction-rate policy and performs the idempotent
// award commit. At most one weekly award decision is finalized per user per
// week, including zero-point decisions.
type Engine struct {
	users  UserStore
	agg    *Aggregator
	policy Policy
}

func NewEngine(records RecordStore, users UserStore, policy Policy) *Engine {
	return &Engine{
		users:  users,
		agg:    NewAggregator(records, policy),
		policy: policy,
	}
}

// Calculate evaluates the user's week containing now and commits the award.
// Expected conditions (unknown user, week already finalized) come back in the
// result message; only persistence failures are returned as errors, and a
// failed commit leaves balance and markers untouched.
func (e *Engine) Calculate(ctx context.Context, userID uuid.UUID, now time.Time) (AwardResult, error) {
	state, err := e.users.ScoreState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AwardResult{Message: MessageUserNotFound}, nil
		}
		return AwardResult{}, err
	}

	totals, err := e.agg.WeeklyTotals(ctx, userID, now)
	if err != nil {
		return AwardResult{}, err
	}

	rateLastWeek := reductionRate(totals.LastWeekGrams, totals.ThisWeekGrams)
	rateBaseline := reductionRate(totals.BaselineGrams, totals.ThisWeekGrams)
	baselineValid := totals.BaselineGrams > 0

	var finalRate float64
	switch {
	case totals.LastWeekGrams == 0 && baselineValid:
		// Returning user with a gap week: last-week rate is undefined,
		// evaluate against the baseline alone.
		finalRate = rateBaseline
	case baselineValid:
		// The user must beat both the recent trend and the longer-run
		// habit, so a single bad baseline week cannot be gamed.
		finalRate = min(rateLastWeek, rateBaseline)
	default:
		finalRate = rateLastWeek
	}

	pointsToAdd := 0
	onboardingApplied := false
	if totals.LastWeekGrams == 0 && totals.BaselineWeekCount == 0 {
		// True first-time user: flat onboarding award, no rate scoring.
		if totals.ThisWeekGrams >= e.policy.MinRecordWeight {
			pointsToAdd = min(e.policy.OnboardingPoints, e.policy.MaxWeeklyPoints)
			onboardingApplied = true
		}
	} else {
		pointsToAdd = e.convertRate(finalRate)
	}

	result := AwardResult{
		FinalReductionRate: finalRate,
		RateLastWeek:       rateLastWeek,
		RateBaseline:       rateBaseline,
		WeekStart:          WeekStart(now).Format(DateFormat),
		OnboardingApplied:  onboardingApplied,
	}

	if state.LastAwardedWeekStart == result.WeekStart {
		result.PointsAdded = 0
		result.OnboardingApplied = false
		result.Message = MessageAlreadyAwarded
		result.DailyBonus, err = e.dailyBonus(ctx, userID, now)
		return result, err
	}

	won, err := e.users.FinalizeWeek(ctx, userID, pointsToAdd, result.WeekStart)
	if err != nil {
		return AwardResult{}, err
	}
	if !won {
		// Lost the compare-and-swap to a concurrent call for this week.
		result.PointsAdded = 0
		result.OnboardingApplied = false
		result.Message = MessageAlreadyAwarded
		result.DailyBonus, err = e.dailyBonus(ctx, userID, now)
		return result, err
	}

	result.PointsAdded = pointsToAdd
	result.DailyBonus, err = e.dailyBonus(ctx, userID, now)
	return result, err
}

// dailyBonus grants the 1-point first-activity-of-the-day bonus. It has its
// own per-day marker and is independent of the weekly guard.
func (e *Engine) dailyBonus(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	granted, err := e.users.GrantDailyBonus(ctx, userID, now.Format(DateFormat))
	if err != nil {
		return 0, err
	}
	if granted {
		return 1, nil
	}
	return 0, nil
}

// convertRate maps a reduction rate to a bounded award: zero below the
// minimum-reduction gate, a guaranteed single point for 5-9%, then one point
// per 10 percentage points, capped.
func (e *Engine) convertRate(rate float64) int {
	if rate <= 0 {
		return 0
	}

	pct := int(math.Floor(rate * 100))
	if pct < e.policy.MinReductionPercent {
		return 0
	}

	pts := pct / 10
	if pct < 10 {
		pts = 1
	}
	if pts > e.policy.MaxWeeklyPoints {
		pts = e.policy.MaxWeeklyPoints
	}
	return pts
}

// reductionRate treats a zero previous total specially: no change stays 0,
// waste appearing from nothing counts as a full negative signal.
func reductionRate(previous, current float64) float64 {
	if previous > 0 {
		return (previous - current) / previous
	}
	if current == 0 {
		return 0
	}
	return -1
}
