package data

import (
	"sync"
	"testing"
	"time"

	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

func TestNewDataContainerDefaults(t *testing.T) {
	dc := NewDataContainer()

	if got := dc.GetSubstances(); len(got) != 0 {
		t.Errorf("Expected empty substances, got %d", len(got))
	}
	if got := dc.GetSubstancesMap(); len(got) != 0 {
		t.Errorf("Expected empty substances map, got %d", len(got))
	}
	if got := dc.GetGuidMap(); len(got) != 0 {
		t.Errorf("Expected empty guid map, got %d", len(got))
	}
	if report := dc.GetQualityReport(); report == nil {
		t.Error("Expected non-nil quality report")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("Expected zero last-updated time")
	}
	if dc.IsUpdating() {
		t.Error("New container should not be updating")
	}
}

func TestUpdateData(t *testing.T) {
	dc := NewDataContainer()

	sub := entities.Substance{Name: "Ephedrine", Slug: "ephedrine", Guid: "abc-123"}
	substances := []entities.Substance{sub}
	substancesMap := map[string]entities.Substance{sub.Slug: sub}
	guidMap := map[string]entities.Substance{sub.Guid: sub}
	report := &interfaces.DataQualityReport{MissingSchedule: 1}

	before := time.Now()
	dc.UpdateData(substances, substancesMap, guidMap, report)

	if got := dc.GetSubstances(); len(got) != 1 || got[0].Slug != "ephedrine" {
		t.Errorf("Substances not swapped: %v", got)
	}
	if got := dc.GetSubstancesMap(); got["ephedrine"].Name != "Ephedrine" {
		t.Errorf("Substances map not swapped: %v", got)
	}
	if got := dc.GetGuidMap(); got["abc-123"].Name != "Ephedrine" {
		t.Errorf("Guid map not swapped: %v", got)
	}
	if got := dc.GetQualityReport(); got.MissingSchedule != 1 {
		t.Errorf("Quality report not swapped: %+v", got)
	}
	if dc.GetLastUpdated().Before(before) {
		t.Error("Last updated not stamped")
	}
}

func TestUpdateDataNilReport(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(nil, nil, nil, nil)

	if report := dc.GetQualityReport(); report == nil {
		t.Error("Nil report should be replaced with an empty one")
	}
}

func TestBeginUpdateLatch(t *testing.T) {
	dc := NewDataContainer()

	if !dc.BeginUpdate() {
		t.Fatal("First BeginUpdate should succeed")
	}
	if dc.BeginUpdate() {
		t.Error("Second BeginUpdate should fail while update in progress")
	}
	if !dc.IsUpdating() {
		t.Error("IsUpdating should report true during update")
	}

	dc.EndUpdate()
	if dc.IsUpdating() {
		t.Error("IsUpdating should report false after EndUpdate")
	}
	if !dc.BeginUpdate() {
		t.Error("BeginUpdate should succeed after EndUpdate")
	}
}

func TestServerStartTime(t *testing.T) {
	dc := NewDataContainer()
	if !dc.GetServerStartTime().IsZero() {
		t.Error("Expected zero start time initially")
	}

	start := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)
	dc.SetServerStartTime(start)
	if !dc.GetServerStartTime().Equal(start) {
		t.Errorf("Expected %v, got %v", start, dc.GetServerStartTime())
	}
}

func TestConcurrentAccess(t *testing.T) {
	dc := NewDataContainer()
	sub := entities.Substance{Name: "Ephedrine", Slug: "ephedrine"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			dc.UpdateData(
				[]entities.Substance{sub},
				map[string]entities.Substance{sub.Slug: sub},
				map[string]entities.Substance{},
				&interfaces.DataQualityReport{},
			)
		}()
		go func() {
			defer wg.Done()
			_ = dc.GetSubstances()
			_ = dc.GetSubstancesMap()
			_ = dc.GetLastUpdated()
		}()
	}
	wg.Wait()

	if got := dc.GetSubstances(); len(got) != 1 {
		t.Errorf("Expected 1 substance after concurrent updates, got %d", len(got))
	}
}
