package points

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordStore is the read-only query capability the aggregator needs from the
// waste-record store: total weight for a user over a half-open time range.
type RecordStore interface {
	WeightSum(ctx context.Context, userID uuid.UUID, start, end time.Time) (float64, error)
}

// WeeklyTotals is computed fresh on every invocation and never persisted.
type WeeklyTotals struct {
	LastWeekGrams     float64
	ThisWeekGrams     float64
	BaselineGrams     float64
	BaselineWeekCount int
}

// Aggregator computes week-bucketed waste totals for a user as of a reference
// instant. All queries are read-only.
type Aggregator struct {
	records RecordStore
	policy  Policy
}

func NewAggregator(records RecordStore, policy Policy) *Aggregator {
	return &Aggregator{records: records, policy: policy}
}

// WeeklyTotals returns last week's and this week's totals plus the rolling
// baseline over the lookback window preceding last week.
func (a *Aggregator) WeeklyTotals(ctx context.Context, userID uuid.UUID, now time.Time) (WeeklyTotals, error) {
	thisStart, thisEnd := WeekBounds(now)

	thisWeek, err := a.records.WeightSum(ctx, userID, thisStart, thisEnd)
	if err != nil {
		return WeeklyTotals{}, err
	}

	lastWeek, err := a.records.WeightSum(ctx, userID, thisStart.AddDate(0, 0, -7), thisStart)
	if err != nil {
		return WeeklyTotals{}, err
	}

	baseline, weeks, err := a.rollingBaseline(ctx, userID, thisStart)
	if err != nil {
		return WeeklyTotals{}, err
	}

	return WeeklyTotals{
		LastWeekGrams:     lastWeek,
		ThisWeekGrams:     thisWeek,
		BaselineGrams:     baseline,
		BaselineWeekCount: weeks,
	}, nil
}

// rollingBaseline averages the totals of the lookback weeks preceding last
// week, counting only weeks with a strictly positive total. Weeks with no
// records are skipped entirely rather than counted as zero data points, so
// new or inactive users are not penalized by phantom zero-weeks. A baseline
// of 0 means "insufficient history", not "zero waste".
func (a *Aggregator) rollingBaseline(ctx context.Context, userID uuid.UUID, thisWeekStart time.Time) (float64, int, error) {
	var total float64
	var weeks int

	for weeksBack := 2; weeksBack <= a.policy.LookbackWeeks+1; weeksBack++ {
		start := thisWeekStart.AddDate(0, 0, -7*weeksBack)
		sum, err := a.records.WeightSum(ctx, userID, start, start.AddDate(0, 0, 7))
		if err != nil {
			return 0, 0, err
		}
		if sum > 0 {
			total += sum
			weeks++
		}
	}

	if weeks < a.policy.MinBaselineWeeks {
		return 0, weeks, nil
	}

	return total / float64(weeks), weeks, nil
}
