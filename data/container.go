// Package data provides thread-safe data storage and management for the
// prohibited substances service. It includes the DataContainer struct with
// atomic operations for zero-downtime updates and thread-safe access
// methods for the substance collection and its lookup maps.
package data

import (
	"sync/atomic"
	"time"

	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds all the data with atomic pointers for zero-downtime updates
type DataContainer struct {
	substances      atomic.Value // []entities.Substance
	substancesMap   atomic.Value // map[string]entities.Substance keyed by slug
	guidMap         atomic.Value // map[string]entities.Substance keyed by GUID
	qualityReport   atomic.Value // *interfaces.DataQualityReport
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.substances.Store(make([]entities.Substance, 0))
	dc.substancesMap.Store(make(map[string]entities.Substance))
	dc.guidMap.Store(make(map[string]entities.Substance))
	dc.qualityReport.Store(&interfaces.DataQualityReport{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{}) // Initialize with zero value
	return dc
}

// Thread-safe getters with type check

// GetSubstances returns the sorted substance list
func (dc *DataContainer) GetSubstances() []entities.Substance {
	if v := dc.substances.Load(); v != nil {
		if substances, ok := v.([]entities.Substance); ok {
			return substances
		}
	}

	logging.Warn("Substances list is empty or invalid")
	return []entities.Substance{}
}

// GetSubstancesMap returns the slug map for O(1) lookups
func (dc *DataContainer) GetSubstancesMap() map[string]entities.Substance {
	if v := dc.substancesMap.Load(); v != nil {
		if substancesMap, ok := v.(map[string]entities.Substance); ok {
			return substancesMap
		}
	}

	logging.Warn("SubstancesMap is empty or invalid")
	return make(map[string]entities.Substance)
}

// GetGuidMap returns the GUID map for O(1) lookups
func (dc *DataContainer) GetGuidMap() map[string]entities.Substance {
	if v := dc.guidMap.Load(); v != nil {
		if guidMap, ok := v.(map[string]entities.Substance); ok {
			return guidMap
		}
	}

	logging.Warn("GuidMap is empty or invalid")
	return make(map[string]entities.Substance)
}

// GetQualityReport returns the quality report from the last generation run
func (dc *DataContainer) GetQualityReport() *interfaces.DataQualityReport {
	if v := dc.qualityReport.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok {
			return report
		}
	}

	logging.Warn("Quality report is empty or invalid")
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically updates all data in the container
func (dc *DataContainer) UpdateData(substances []entities.Substance,
	substancesMap map[string]entities.Substance,
	guidMap map[string]entities.Substance,
	report *interfaces.DataQualityReport) {

	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	// Atomic swap (zero downtime replacement)
	dc.substances.Store(substances)
	dc.substancesMap.Store(substancesMap)
	dc.guidMap.Store(guidMap)
	dc.qualityReport.Store(report)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
