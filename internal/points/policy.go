package points

// Policy holds the scoring configuration. It is passed into the engine at
// construction so alternate policies can be tested without touching globals.
type Policy struct {
	OnboardingPoints    int     `yaml:"onboarding_points"`
	MinRecordWeight     float64 `yaml:"min_record_weight_grams"`
	MinReductionPercent int     `yaml:"min_reduction_percent"`
	MaxWeeklyPoints     int     `yaml:"max_weekly_points"`
	LookbackWeeks       int     `yaml:"lookback_weeks"`
	MinBaselineWeeks    int     `yaml:"min_baseline_weeks"`
}

func DefaultPolicy() Policy {
	return Policy{
		OnboardingPoints:    10,
		MinRecordWeight:     50,
		MinReductionPercent: 5,
		MaxWeeklyPoints:     200,
		LookbackWeeks:       7,
		MinBaselineWeeks:    3,
	}
}
