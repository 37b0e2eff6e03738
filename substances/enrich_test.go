package substances

import (
	"errors"
	"testing"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

func TestEnrichAttachesBestCandidate(t *testing.T) {
	lookup := func(name string) ([]entities.UniiCandidate, error) {
		return []entities.UniiCandidate{
			{UniiCode: "ZZZ999", PreferredTerm: "PSEUDOEPHEDRINE"},
			{UniiCode: "AAA111", PreferredTerm: "EPHEDRINE", CasRN: "299-42-3"},
		}, nil
	}

	record := makeSubstance("Ephedrine")
	NewEnricher(lookup).Enrich(&record)

	if record.UniiInfo == nil {
		t.Fatal("Expected enrichment data")
	}
	if record.UniiInfo.UniiCode != "AAA111" {
		t.Errorf("Expected closest term AAA111, got %s", record.UniiInfo.UniiCode)
	}
	if record.UniiInfo.CommonChemistryURL == "" {
		t.Error("Expected Common Chemistry URL for a candidate with a CAS RN")
	}
}

func TestEnrichTieBreaksOnUniiCode(t *testing.T) {
	lookup := func(name string) ([]entities.UniiCandidate, error) {
		// Identical terms, so ranking falls through to the code
		return []entities.UniiCandidate{
			{UniiCode: "BBB222", PreferredTerm: "EPHEDRINE"},
			{UniiCode: "AAA111", PreferredTerm: "EPHEDRINE"},
		}, nil
	}

	record := makeSubstance("Ephedrine")
	NewEnricher(lookup).Enrich(&record)

	if record.UniiInfo == nil || record.UniiInfo.UniiCode != "AAA111" {
		t.Errorf("Expected deterministic tie-break to AAA111, got %+v", record.UniiInfo)
	}
}

func TestEnrichLeavesRecordUntouched(t *testing.T) {
	testCases := []struct {
		name   string
		lookup LookupFunc
	}{
		{"Lookup error", func(string) ([]entities.UniiCandidate, error) {
			return nil, errors.New("archive unavailable")
		}},
		{"No candidates", func(string) ([]entities.UniiCandidate, error) {
			return nil, nil
		}},
		{"Nil lookup", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := makeSubstance("Ephedrine")
			NewEnricher(tc.lookup).Enrich(&record)
			if record.UniiInfo != nil {
				t.Errorf("Expected no enrichment, got %+v", record.UniiInfo)
			}
		})
	}
}

func TestEnrichAllCountsEnriched(t *testing.T) {
	lookup := func(name string) ([]entities.UniiCandidate, error) {
		if name == "Ephedrine" {
			return []entities.UniiCandidate{{UniiCode: "AAA111", PreferredTerm: "EPHEDRINE"}}, nil
		}
		return nil, nil
	}

	records := []entities.Substance{
		makeSubstance("Ephedrine"),
		makeSubstance("Unknown Botanical"),
	}

	enriched := NewEnricher(lookup).EnrichAll(records)
	if enriched != 1 {
		t.Errorf("Expected 1 enriched record, got %d", enriched)
	}
	if records[0].UniiInfo == nil || records[1].UniiInfo != nil {
		t.Error("Enrichment attached to the wrong records")
	}
}
