// Package handlers provides HTTP request handlers for the prohibited
// substances API endpoints. This file implements the HTTPHandler interface
// with dependency injection.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	changelogPath string
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker, changelogPath string) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		changelogPath: changelogPath,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Actual routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// HealthResponseImpl defines the structure for consistent JSON ordering
type HealthResponseImpl struct {
	Status        string                 `json:"status"`
	LastUpdate    string                 `json:"last_update"`
	DataAgeHours  float64                `json:"data_age_hours"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Uptime        string                 `json:"uptime"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// RespondWithJSON writes a JSON response with consistent headers
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", h.dataStore.GetLastUpdated().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// formatUptimeHuman formats duration into a human-readable string
func (h *HTTPHandlerImpl) formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// ServeAllSubstances returns the full substances list
func (h *HTTPHandlerImpl) ServeAllSubstances(w http.ResponseWriter, r *http.Request) {
	substances := h.dataStore.GetSubstances()
	h.RespondWithJSON(w, http.StatusOK, substances)
}

// ServePagedSubstances returns paginated substances
func (h *HTTPHandlerImpl) ServePagedSubstances(w http.ResponseWriter, r *http.Request) {
	pageNumber := chi.URLParam(r, "pageNumber")
	page, err := strconv.Atoi(pageNumber)
	if err != nil || page < 1 {
		logging.Warn("Unusual user input", "pageNumber", pageNumber)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	substances := h.dataStore.GetSubstances()
	pageSize := 10
	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= len(substances) {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}

	if end > len(substances) {
		end = len(substances)
	}

	pagedSubstances := substances[start:end]
	totalItems := len(substances)
	maxPage := (totalItems + pageSize - 1) / pageSize

	response := map[string]interface{}{
		"data":       pagedSubstances,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalItems,
		"maxPage":    maxPage,
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// FindSubstanceBySlug finds a single substance by its slug
func (h *HTTPHandlerImpl) FindSubstanceBySlug(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	slug, err := h.validator.ValidateSlug(slugParam)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	substancesMap := h.dataStore.GetSubstancesMap()
	sub, exists := substancesMap[slug]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound, "Substance not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, sub)
}

// FindSubstancesByName searches for substances by name
func (h *HTTPHandlerImpl) FindSubstancesByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing search term")
		return
	}

	// Validate input using the validator
	if err := h.validator.ValidateInput(name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Same derivation as the stored searchable names, so punctuation and
	// accents on the query cannot miss a match
	needle := substances.SearchableName(name)
	if needle == "" {
		needle = strings.ToLower(strings.TrimSpace(name))
	}

	collection := h.dataStore.GetSubstances()
	results := make([]entities.Substance, 0)

	for _, sub := range collection {
		if strings.Contains(sub.SearchableName, needle) {
			results = append(results, sub)
			continue
		}
		for _, other := range sub.OtherNames {
			if strings.Contains(substances.SearchableName(other), needle) {
				results = append(results, sub)
				break
			}
		}
	}

	// Always return 200 with results array (empty if no matches)
	h.RespondWithJSON(w, http.StatusOK, results)
}

// FindSubstancesBySchedule returns all substances under a DEA schedule
func (h *HTTPHandlerImpl) FindSubstancesBySchedule(w http.ResponseWriter, r *http.Request) {
	scheduleParam := chi.URLParam(r, "schedule")
	schedule, err := h.validator.ValidateSchedule(scheduleParam)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	substances := h.dataStore.GetSubstances()
	results := make([]entities.Substance, 0)
	for _, sub := range substances {
		if sub.DeaSchedule == schedule {
			results = append(results, sub)
		}
	}

	h.RespondWithJSON(w, http.StatusOK, results)
}

// ServeChangelog serves the generated changelog as markdown
func (h *HTTPHandlerImpl) ServeChangelog(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(h.changelogPath)
	if err != nil {
		if os.IsNotExist(err) {
			h.RespondWithError(w, http.StatusNotFound, "Changelog not generated yet")
			return
		}
		logging.Error("Failed to read changelog", "path", h.changelogPath, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to read changelog")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Last-Modified", h.dataStore.GetLastUpdated().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ExportSubstances serves the full list as a downloadable JSON file
func (h *HTTPHandlerImpl) ExportSubstances(w http.ResponseWriter, r *http.Request) {
	substances := h.dataStore.GetSubstances()
	export := map[string]interface{}{
		"generated_at": h.dataStore.GetLastUpdated().UTC().Format(time.RFC3339),
		"total":        len(substances),
		"substances":   substances,
	}

	data, err := json.Marshal(export)
	if err != nil {
		logging.Error("Failed to marshal export", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("prohibited-substances-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// Get memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.dataStore.GetServerStartTime())

	lastUpdate := h.dataStore.GetLastUpdated()
	dataAge := time.Since(lastUpdate)

	healthStatus, details, httpStatus := h.healthChecker.HealthCheck()

	data := map[string]interface{}{
		"api_version": "1.0",
		"next_update": h.healthChecker.CalculateNextUpdate().Format(time.RFC3339),
	}
	// The checker owns the data-related fields, including the quality summary
	for k, v := range details {
		data[k] = v
	}

	response := HealthResponseImpl{
		Status:        healthStatus,
		LastUpdate:    lastUpdate.Format(time.RFC3339),
		DataAgeHours:  dataAge.Hours(),
		UptimeSeconds: uptime.Seconds(),
		Uptime:        h.formatUptimeHuman(uptime),
		Data:          data,
		System: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}

// compile-time interface check
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)
