package points

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeUsers struct {
	missing  bool
	loseRace bool
	state    ScoreState
}

func (f *fakeUsers) ScoreState(_ context.Context, _ uuid.UUID) (ScoreState, error) {
	if f.missing {
		return ScoreState{}, ErrUserNotFound
	}
	return f.state, nil
}

func (f *fakeUsers) FinalizeWeek(_ context.Context, _ uuid.UUID, pointsToAdd int, weekStart string) (bool, error) {
	if f.loseRace || f.state.LastAwardedWeekStart == weekStart {
		return false, nil
	}
	f.state.TotalPoints += pointsToAdd
	f.state.LastAwardedWeekStart = weekStart
	return true, nil
}

func (f *fakeUsers) GrantDailyBonus(_ context.Context, _ uuid.UUID, day string) (bool, error) {
	if f.state.LastAwardedDay == day {
		return false, nil
	}
	f.state.TotalPoints++
	f.state.LastAwardedDay = day
	return true, nil
}

func newTestEngine(records *fakeRecords, users *fakeUsers) *Engine {
	return NewEngine(records, users, DefaultPolicy())
}

// lastThisWeek builds a record store with the given totals for last week and
// this week only.
func lastThisWeek(lastWeek, thisWeek float64) *fakeRecords {
	records := &fakeRecords{}
	if lastWeek > 0 {
		records.addWeek(1, lastWeek)
	}
	if thisWeek > 0 {
		records.addWeek(0, thisWeek)
	}
	return records
}

func calculate(t *testing.T, e *Engine) AwardResult {
	t.Helper()
	result, err := e.Calculate(context.Background(), uuid.New(), testNow)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	return result
}

func TestOnboardingAward(t *testing.T) {
	users := &fakeUsers{}
	engine := newTestEngine(lastThisWeek(0, 120), users)

	result := calculate(t, engine)

	if !result.OnboardingApplied {
		t.Fatal("expected onboarding to apply")
	}
	if result.PointsAdded != 10 {
		t.Fatalf("expected 10 onboarding points, got %d", result.PointsAdded)
	}
	if result.DailyBonus != 1 {
		t.Fatalf("expected daily bonus, got %d", result.DailyBonus)
	}
	if users.state.TotalPoints != 11 {
		t.Fatalf("expected balance 11, got %d", users.state.TotalPoints)
	}
	if users.state.LastAwardedWeekStart != "2025-03-09" {
		t.Fatalf("expected week marker 2025-03-09, got %q", users.state.LastAwardedWeekStart)
	}
}

func TestOnboardingBelowMinimumWeight(t *testing.T) {
	users := &fakeUsers{}
	engine := newTestEngine(lastThisWeek(0, 30), users)

	result := calculate(t, engine)

	if result.OnboardingApplied {
		t.Fatal("did not expect onboarding below the minimum weight")
	}
	if result.PointsAdded != 0 {
		t.Fatalf("expected 0 points, got %d", result.PointsAdded)
	}
	if users.state.LastAwardedWeekStart == "" {
		t.Fatal("expected the week marker to be set even on a zero award")
	}
}

func TestSecondCallIsIdempotent(t *testing.T) {
	users := &fakeUsers{}
	engine := newTestEngine(lastThisWeek(0, 120), users)
	userID := uuid.New()

	first, err := engine.Calculate(context.Background(), userID, testNow)
	if err != nil {
		t.Fatalf("first Calculate failed: %v", err)
	}
	balanceAfterFirst := users.state.TotalPoints

	second, err := engine.Calculate(context.Background(), userID, testNow)
	if err != nil {
		t.Fatalf("second Calculate failed: %v", err)
	}

	if first.PointsAdded != 10 {
		t.Fatalf("expected 10 points on first call, got %d", first.PointsAdded)
	}
	if second.PointsAdded != 0 {
		t.Fatalf("expected 0 points on second call, got %d", second.PointsAdded)
	}
	if second.Message != MessageAlreadyAwarded {
		t.Fatalf("expected message %q, got %q", MessageAlreadyAwarded, second.Message)
	}
	if users.state.TotalPoints != balanceAfterFirst {
		t.Fatalf("balance changed on second call: %d -> %d", balanceAfterFirst, users.state.TotalPoints)
	}
}

func TestNoReductionNoPoints(t *testing.T) {
	users := &fakeUsers{}
	engine := newTestEngine(lastThisWeek(100, 100), users)

	result := calculate(t, engine)

	if result.PointsAdded != 0 {
		t.Fatalf("expected 0 points, got %d", result.PointsAdded)
	}
	if result.FinalReductionRate != 0 {
		t.Fatalf("expected rate 0, got %v", result.FinalReductionRate)
	}
}

func TestTwentyFivePercentReductionGivesTwoPoints(t *testing.T) {
	users := &fakeUsers{}
	engine := newTestEngine(lastThisWeek(100, 75), users)

	result := calculate(t, engine)

	if result.PointsAdded != 2 {
		t.Fatalf("expected 2 points, got %d", result.PointsAdded)
	}
}

func TestMinimumReductionThreshold(t *testing.T) {
	// 4% is below the gate, 5% is on it.
	users := &fakeUsers{}
	result := calculate(t, newTestEngine(lastThisWeek(100, 96), users))
	if result.PointsAdded != 0 {
		t.Fatalf("expected 0 points at 4%%, got %d", result.PointsAdded)
	}

	users = &fakeUsers{}
	result = calculate(t, newTestEngine(lastThisWeek(100, 95), users))
	if result.PointsAdded != 1 {
		t.Fatalf("expected 1 point at 5%%, got %d", result.PointsAdded)
	}
}

func TestSingleDigitReductionAwardsFloorOfOne(t *testing.T) {
	// 7% would floor to 0 points under pct/10; the generous floor grants 1.
	users := &fakeUsers{}
	engine := newTestEngine(lastThisWeek(100, 93), users)

	result := calculate(t, engine)

	if result.PointsAdded != 1 {
		t.Fatalf("expected exactly 1 point at 7%%, got %d", result.PointsAdded)
	}
}

func TestBaselineDominatesWhenWorse(t *testing.T) {
	// Last-week reduction 20%, baseline-implied 60%: the minimum wins, so a
	// single anomalously bad baseline week cannot inflate the award.
	records := lastThisWeek(100, 80)
	records.addWeek(2, 200)
	records.addWeek(3, 200)
	records.addWeek(4, 200)
	records.addWeek(5, 200)
	users := &fakeUsers{}
	engine := newTestEngine(records, users)

	result := calculate(t, engine)

	if result.FinalReductionRate != 0.2 {
		t.Fatalf("expected final rate 0.2, got %v", result.FinalReductionRate)
	}
	if result.RateBaseline != 0.6 {
		t.Fatalf("expected baseline rate 0.6, got %v", result.RateBaseline)
	}
	if result.PointsAdded != 2 {
		t.Fatalf("expected 2 points, got %d", result.PointsAdded)
	}
}

func TestTwoBaselineWeeksDisableBaseline(t *testing.T) {
	// Exactly 2 qualifying weeks: the baseline comparison must not apply and
	// the user is not an onboarding case either.
	records := lastThisWeek(100, 80)
	records.addWeek(3, 1000)
	records.addWeek(5, 1000)
	users := &fakeUsers{}
	engine := newTestEngine(records, users)

	result := calculate(t, engine)

	if result.OnboardingApplied {
		t.Fatal("did not expect onboarding with prior history")
	}
	if result.FinalReductionRate != 0.2 {
		t.Fatalf("expected last-week-only rate 0.2, got %v", result.FinalReductionRate)
	}
	if result.PointsAdded != 2 {
		t.Fatalf("expected 2 points, got %d", result.PointsAdded)
	}
}

func TestBaselineOnlyModeForReturningUser(t *testing.T) {
	// No last-week data but a qualifying baseline: evaluate against the
	// baseline alone.
	records := &fakeRecords{}
	records.addWeek(0, 80)
	records.addWeek(2, 200)
	records.addWeek(3, 200)
	records.addWeek(4, 200)
	users := &fakeUsers{}
	engine := newTestEngine(records, users)

	result := calculate(t, engine)

	if result.OnboardingApplied {
		t.Fatal("did not expect onboarding for a returning user")
	}
	if result.FinalReductionRate != 0.6 {
		t.Fatalf("expected baseline-only rate 0.6, got %v", result.FinalReductionRate)
	}
	if result.PointsAdded != 6 {
		t.Fatalf("expected 6 points, got %d", result.PointsAdded)
	}
}

func TestIncreaseNeverGoesNegative(t *testing.T) {
	users := &fakeUsers{state: ScoreState{TotalPoints: 5}}
	engine := newTestEngine(lastThisWeek(100, 150), users)

	result := calculate(t, engine)

	if result.PointsAdded != 0 {
		t.Fatalf("expected 0 points, got %d", result.PointsAdded)
	}
	if result.FinalReductionRate >= 0 {
		t.Fatalf("expected a negative rate, got %v", result.FinalReductionRate)
	}
	if users.state.TotalPoints < 5 {
		t.Fatalf("balance decreased: %d", users.state.TotalPoints)
	}
	if users.state.LastAwardedWeekStart == "" {
		t.Fatal("expected the week marker to be set")
	}
}

func TestNoDataWeekStillFinalizes(t *testing.T) {
	users := &fakeUsers{}
	engine := newTestEngine(&fakeRecords{}, users)

	result := calculate(t, engine)

	if result.PointsAdded != 0 {
		t.Fatalf("expected 0 points, got %d", result.PointsAdded)
	}
	if result.FinalReductionRate != 0 {
		t.Fatalf("expected rate 0, got %v", result.FinalReductionRate)
	}
	if users.state.LastAwardedWeekStart != "2025-03-09" {
		t.Fatalf("expected week marker set, got %q", users.state.LastAwardedWeekStart)
	}
}

func TestUserNotFound(t *testing.T) {
	users := &fakeUsers{missing: true}
	engine := newTestEngine(lastThisWeek(100, 50), users)

	result := calculate(t, engine)

	if result.Message != MessageUserNotFound {
		t.Fatalf("expected message %q, got %q", MessageUserNotFound, result.Message)
	}
	if result.PointsAdded != 0 || result.DailyBonus != 0 {
		t.Fatalf("expected no points for a missing user, got %+v", result)
	}
	if users.state.TotalPoints != 0 || users.state.LastAwardedWeekStart != "" {
		t.Fatal("expected no mutation for a missing user")
	}
}

func TestWeeklyAwardIsCapped(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxWeeklyPoints = 3

	users := &fakeUsers{}
	engine := NewEngine(lastThisWeek(100, 20), users, policy)

	result, err := engine.Calculate(context.Background(), uuid.New(), testNow)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	// 80% reduction would give 8 points uncapped.
	if result.PointsAdded != 3 {
		t.Fatalf("expected capped award of 3, got %d", result.PointsAdded)
	}
}

func TestLostRaceReportsAlreadyAwarded(t *testing.T) {
	// The conditional update rejects the commit, as if a concurrent call for
	// the same week won in between the state read and the commit.
	users := &fakeUsers{loseRace: true}
	engine := newTestEngine(lastThisWeek(100, 50), users)

	result := calculate(t, engine)

	if result.Message != MessageAlreadyAwarded {
		t.Fatalf("expected message %q, got %q", MessageAlreadyAwarded, result.Message)
	}
	if result.PointsAdded != 0 {
		t.Fatalf("expected 0 points after losing the race, got %d", result.PointsAdded)
	}
}

func TestDailyBonusIndependentOfWeeklyGuard(t *testing.T) {
	// Week already finalized, but the day marker is older: the daily bonus
	// still applies on the short-circuit path.
	yesterday := testNow.AddDate(0, 0, -1).Format(DateFormat)
	users := &fakeUsers{state: ScoreState{
		TotalPoints:          20,
		LastAwardedWeekStart: WeekStart(testNow).Format(DateFormat),
		LastAwardedDay:       yesterday,
	}}
	engine := newTestEngine(&fakeRecords{}, users)

	result := calculate(t, engine)

	if result.Message != MessageAlreadyAwarded {
		t.Fatalf("expected message %q, got %q", MessageAlreadyAwarded, result.Message)
	}
	if result.DailyBonus != 1 {
		t.Fatalf("expected daily bonus 1, got %d", result.DailyBonus)
	}
	if users.state.TotalPoints != 21 {
		t.Fatalf("expected balance 21, got %d", users.state.TotalPoints)
	}

	// Same day again: nothing moves.
	again := calculate(t, engine)
	if again.DailyBonus != 0 || users.state.TotalPoints != 21 {
		t.Fatalf("expected no second bonus, got %+v balance %d", again, users.state.TotalPoints)
	}
}
