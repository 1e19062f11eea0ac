// Package stats assembles the weekly view shown on the log page: the list of
// discarded dishes and the per-day totals for the bar graph.
package stats

import (
	"math"
	"time"

	"github.com/sevkagr/foodlog/internal/models"
	"github.com/sevkagr/foodlog/internal/points"
)

type DishEntry struct {
	ID          int     `json:"id"`
	DishName    string  `json:"dish_name"`
	WeightGrams float64 `json:"weight_grams"`
	Reason      string  `json:"reason"`
	Date        string  `json:"date"`
}

type DailyTotal struct {
	Day        string  `json:"day"`
	Date       string  `json:"date"`
	TotalGrams float64 `json:"total_grams"`
}

type WeeklyStats struct {
	WeekStart     string       `json:"week_start"`
	WeekEnd       string       `json:"week_end"`
	IsDataPresent bool         `json:"is_data_present"`
	DishTable     []DishEntry  `json:"dish_table"`
	DailyGraph    []DailyTotal `json:"daily_graph_data"`
}

// Build assembles the weekly stats for the week containing target. The daily
// graph always covers all seven days; days without records show 0.
func Build(target time.Time, records []models.WasteRecord, dailyTotals map[string]float64) WeeklyStats {
	weekStart := points.WeekStart(target)
	weekEnd := weekStart.AddDate(0, 0, 6)

	result := WeeklyStats{
		WeekStart:  weekStart.Format(points.DateFormat),
		WeekEnd:    weekEnd.Format(points.DateFormat),
		DishTable:  []DishEntry{},
		DailyGraph: []DailyTotal{},
	}

	if len(records) == 0 {
		return result
	}

	result.IsDataPresent = true

	for _, record := range records {
		reason := record.Reason
		if reason == "" {
			reason = "Unknown"
		}
		result.DishTable = append(result.DishTable, DishEntry{
			ID:          record.ID,
			DishName:    record.ItemName,
			WeightGrams: round1(record.WeightGrams),
			Reason:      reason,
			Date:        record.OccurredAt.Format(points.DateFormat),
		})
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		date := day.Format(points.DateFormat)
		result.DailyGraph = append(result.DailyGraph, DailyTotal{
			Day:        day.Format("Mon"),
			Date:       date,
			TotalGrams: round1(dailyTotals[date]),
		})
	}

	return result
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
