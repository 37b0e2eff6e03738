// Package interfaces defines core abstractions for the prohibited
// substances service to improve testability, maintainability, and
// separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// DataQualityReport provides a summary of data quality issues
type DataQualityReport struct {
	SlugCollisions         []string // Slugs shared by more than one substance before dedup
	FallbackSlugs          []string // Slugs derived from row hashes because the name produced none
	DuplicateGUIDs         []string // GUID values appearing on more than one substance
	MissingClassifications int      // Count of substances without classifications
	MissingReasons         int      // Count of substances without prohibition reasons
	MissingSchedule        int      // Count of substances without a DEA schedule
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the substance collection with
// atomic operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetSubstances() []entities.Substance
	GetSubstancesMap() map[string]entities.Substance
	GetGuidMap() map[string]entities.Substance
	GetQualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(substances []entities.Substance,
		substancesMap map[string]entities.Substance,
		guidMap map[string]entities.Substance,
		report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Fetcher defines the contract for retrieving raw substance rows
// from the upstream source page.
type Fetcher interface {
	FetchRaw(ctx context.Context) ([]entities.RawRow, error)
}

// SnapshotStore defines the contract for the persistent snapshot of
// the substance collection between generation runs.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) ([]entities.Substance, error)
	SaveSnapshot(ctx context.Context, substances []entities.Substance, now time.Time) error
	Close() error
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated data updates and system health checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Specific endpoint handlers
	ServeAllSubstances(w http.ResponseWriter, r *http.Request)
	ServePagedSubstances(w http.ResponseWriter, r *http.Request)
	FindSubstanceBySlug(w http.ResponseWriter, r *http.Request)
	FindSubstancesByName(w http.ResponseWriter, r *http.Request)
	FindSubstancesBySchedule(w http.ResponseWriter, r *http.Request)
	ServeChangelog(w http.ResponseWriter, r *http.Request)
	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
	ExportSubstances(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status and the HTTP code
	// to report it with
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures data integrity and consistency.
type DataValidator interface {
	// ValidateSubstance checks if a substance entity is valid
	ValidateSubstance(s *entities.Substance) error

	// ValidateDataIntegrity performs comprehensive data validation
	ValidateDataIntegrity(substances []entities.Substance) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(substances []entities.Substance) *DataQualityReport

	// ValidateInput validates user input strings
	ValidateInput(input string) error

	// ValidateSlug validates slug path parameters
	ValidateSlug(input string) (string, error)

	// ValidateSchedule validates DEA schedule path parameters
	ValidateSchedule(input string) (entities.DEASchedule, error)
}
