package history

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/mrcode/glucopredict/internal/models"
)

// Trend thresholds in mg/dL per reading
const (
	trendWindow    = 3
	trendThreshold = 5.0
)

// Trend classifies the direction of the last three readings from the mean of
// their consecutive differences. Fewer than two readings are stable.
func Trend(readings []models.GlucoseReading) models.TrendDirection {
	if len(readings) < 2 {
		return models.TrendStable
	}

	last := readings[max(0, len(readings)-trendWindow):]
	var sum float64
	for i := 1; i < len(last); i++ {
		sum += last[i].Value - last[i-1].Value
	}
	avg := sum / float64(len(last)-1)

	switch {
	case avg > trendThreshold:
		return models.TrendRising
	case avg < -trendThreshold:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// Between returns the readings with from <= time <= to
func Between(readings []models.GlucoseReading, from, to time.Time) []models.GlucoseReading {
	return lo.Filter(readings, func(r models.GlucoseReading, _ int) bool {
		return !r.Time.Before(from) && !r.Time.After(to)
	})
}

// RecentAverage returns the mean of readings within window before now, or
// fallback when there are none
func RecentAverage(readings []models.GlucoseReading, now time.Time, window time.Duration, fallback float64) float64 {
	recent := Between(readings, now.Add(-window), now)
	if len(recent) == 0 {
		return fallback
	}
	return lo.SumBy(recent, func(r models.GlucoseReading) float64 { return r.Value }) / float64(len(recent))
}

// ComputeDayStats summarizes the readings from the start of day up to now
func ComputeDayStats(readings []models.GlucoseReading, now time.Time) models.DayStats {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Summarize(Between(readings, start, now), start.Format("2006-01-02"))
}

// Summarize computes statistics for a set of readings
func Summarize(readings []models.GlucoseReading, date string) models.DayStats {
	stats := models.DayStats{Date: date, Count: len(readings)}
	if len(readings) == 0 {
		return stats
	}

	values := lo.Map(readings, func(r models.GlucoseReading, _ int) float64 { return r.Value })
	n := float64(len(values))

	stats.Mean = lo.Sum(values) / n
	stats.Min = lo.Min(values)
	stats.Max = lo.Max(values)

	var sumSq float64
	for _, v := range values {
		diff := v - stats.Mean
		sumSq += diff * diff
	}
	stats.StdDev = math.Sqrt(sumSq / n)

	inRange := lo.CountBy(values, func(v float64) bool { return v >= 70 && v <= 180 })
	stats.TimeInRange = float64(inRange) / n * 100

	// GMI = 3.31 + 0.02392 × mean glucose (mg/dL)
	stats.GMI = 3.31 + 0.02392*stats.Mean

	if stats.Mean > 0 {
		stats.CV = stats.StdDev / stats.Mean * 100
	}

	return stats
}

// EffectivenessSummary counts scored meals per effectiveness grade
func EffectivenessSummary(meals []models.MealRecord) map[models.Effectiveness]int {
	scored := lo.Filter(meals, func(m models.MealRecord, _ int) bool {
		return m.ActualPeak != nil
	})
	return lo.CountValuesBy(scored, func(m models.MealRecord) models.Effectiveness {
		return m.Effectiveness
	})
}
