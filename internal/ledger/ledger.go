// Package ledger derives rolling emission figures from a user's activity log.
// Figures are recomputed from the full log on every call.
package ledger

import (
	"sort"
	"time"

	"github.com/sakif/carbon-tracker/internal/model"
)

const day = 24 * time.Hour

// Window lengths. Each is evaluated independently and includes its boundary.
const (
	DailyWindow   = 1 * day
	WeeklyWindow  = 7 * day
	MonthlyWindow = 30 * day
)

// Summarize sums EmissionsKg over activities whose age at now is within each
// window. Activities stamped after now have a negative age and count in
// every window.
func Summarize(activities []model.Activity, now time.Time) model.EmissionsSummary {
	var s model.EmissionsSummary
	for _, a := range activities {
		age := now.Sub(a.CreatedAt)
		if age <= DailyWindow {
			s.Daily += a.EmissionsKg
		}
		if age <= WeeklyWindow {
			s.Weekly += a.EmissionsKg
		}
		if age <= MonthlyWindow {
			s.Monthly += a.EmissionsKg
		}
	}
	return s
}

// Trend returns the activities as a chronological emissions series.
func Trend(activities []model.Activity) []model.TrendPoint {
	points := make([]model.TrendPoint, 0, len(activities))
	for _, a := range activities {
		points = append(points, model.TrendPoint{
			At:          a.CreatedAt,
			Category:    a.Category,
			EmissionsKg: a.EmissionsKg,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })
	return points
}
