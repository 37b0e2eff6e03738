// Package health reports dataset freshness for the prohibited substances
// service. The dataset regenerates twice a day, so health is a function of
// snapshot age: one missed run degrades the service, two mark it unhealthy.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/gooosetavo/dod-prohibited/interfaces"
)

// Staleness thresholds against the twice-daily generation schedule.
const (
	// staleAfter is two missed runs plus slack.
	staleAfter = 48 * time.Hour
	// degradedAfter is one missed run plus slack.
	degradedAfter = 24 * time.Hour
	// updateOverdueAfter flags a run that started but never swapped data.
	updateOverdueAfter = 6 * time.Hour
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
	}
}

// HealthCheck returns the dataset health status, the data-related fields for
// the /health payload (including the quality summary from the last
// generation run) and the HTTP code to report it with.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	substances := h.dataStore.GetSubstances()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(substances) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > staleAfter:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > degradedAfter:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > updateOverdueAfter:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"substances":     len(substances),
		"is_updating":    isUpdating,
	}
	if report := h.dataStore.GetQualityReport(); report != nil {
		data["quality"] = qualitySummary(report)
	}

	return status, data, httpStatus
}

// qualitySummary condenses the generation quality report into counts; the
// offending slugs and GUIDs stay in the logs, not the public payload.
func qualitySummary(report *interfaces.DataQualityReport) map[string]any {
	return map[string]any{
		"slug_collisions":         len(report.SlugCollisions),
		"fallback_slugs":          len(report.FallbackSlugs),
		"duplicate_guids":         len(report.DuplicateGUIDs),
		"missing_classifications": report.MissingClassifications,
		"missing_reasons":         report.MissingReasons,
		"missing_schedule":        report.MissingSchedule,
	}
}

// CalculateNextUpdate returns the next scheduled update time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := time.Now()

	// Get today's 6:00 AM and 6:00 PM times
	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	// If current time is before 6:00 AM, next update is 6:00 AM today
	if now.Before(sixAM) {
		return sixAM
	}

	// If current time is between 6:00 AM and 6:00 PM, next update is 6:00 PM today
	if now.Before(sixPM) {
		return sixPM
	}

	// If current time is after 6:00 PM, next update is 6:00 AM tomorrow
	return sixAM.AddDate(0, 0, 1)
}
