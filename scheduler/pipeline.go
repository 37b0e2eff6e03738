package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gooosetavo/dod-prohibited/changelog"
	"github.com/gooosetavo/dod-prohibited/docsite"
	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/metrics"
	"github.com/gooosetavo/dod-prohibited/substances"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// Pipeline runs one full generation: fetch raw rows, normalize them into
// substance records, enrich, diff against the previous snapshot, persist,
// regenerate the documentation and swap the serving dataset.
type Pipeline struct {
	dataStore interfaces.DataStore
	fetcher   interfaces.Fetcher
	snapshot  interfaces.SnapshotStore
	validator interfaces.DataValidator

	// optional collaborators; nil disables the step
	enricher      *substances.Enricher
	docs          *docsite.Generator
	changelogPath string
}

// NewPipeline wires a generation pipeline from its collaborators. The
// enricher, docs generator and changelog path may be zero to disable those
// steps.
func NewPipeline(dataStore interfaces.DataStore, fetcher interfaces.Fetcher,
	snapshot interfaces.SnapshotStore, validator interfaces.DataValidator,
	enricher *substances.Enricher, docs *docsite.Generator, changelogPath string) *Pipeline {
	return &Pipeline{
		dataStore:     dataStore,
		fetcher:       fetcher,
		snapshot:      snapshot,
		validator:     validator,
		enricher:      enricher,
		docs:          docs,
		changelogPath: changelogPath,
	}
}

// Run performs one generation run. Concurrent runs are rejected through the
// data store's update latch; a skipped run is not an error.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer p.dataStore.EndUpdate()

	runID := uuid.New().String()
	start := time.Now()
	logging.Info("Starting generation run", "run_id", runID)

	collection, err := p.generate(ctx, runID)
	if err != nil {
		metrics.GenerationRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	elapsed := time.Since(start)
	metrics.GenerationRunsTotal.WithLabelValues("success").Inc()
	metrics.GenerationDuration.Observe(elapsed.Seconds())
	metrics.SubstancesTotal.Set(float64(len(collection)))

	logging.Info("Generation run completed",
		"run_id", runID,
		"duration", elapsed.String(),
		"substance_count", len(collection),
	)

	return nil
}

func (p *Pipeline) generate(ctx context.Context, runID string) ([]entities.Substance, error) {
	rows, err := p.fetcher.FetchRaw(ctx)
	if err != nil {
		logging.Error("Failed to fetch raw rows", "run_id", runID, "error", err)
		return nil, fmt.Errorf("failed to fetch raw rows: %w", err)
	}

	collection := p.normalize(rows, runID)
	if len(collection) == 0 {
		return nil, fmt.Errorf("no usable substance rows in source data")
	}

	collection = substances.Deduplicate(collection)
	collection = substances.Sort(collection)

	// Diff against the previous snapshot before persisting the new one
	var previous []entities.Substance
	if p.snapshot != nil {
		previous, err = p.snapshot.LoadSnapshot(ctx)
		if err != nil {
			logging.Error("Failed to load previous snapshot", "run_id", runID, "error", err)
			return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
		}
	}

	now := time.Now()
	if p.snapshot != nil {
		// SaveSnapshot stamps added/updated onto the records
		if err := p.snapshot.SaveSnapshot(ctx, collection, now); err != nil {
			logging.Error("Failed to save snapshot", "run_id", runID, "error", err)
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
	}

	if p.enricher != nil {
		enriched := p.enricher.EnrichAll(collection)
		metrics.UniiEnrichedTotal.Add(float64(enriched))
		logging.Info("UNII enrichment completed",
			"run_id", runID,
			"enriched", enriched,
			"total", len(collection),
		)
	}

	report := p.validator.ReportDataQuality(collection)
	if err := p.validator.ValidateDataIntegrity(collection); err != nil {
		logging.Error("Data integrity validation failed", "run_id", runID, "error", err)
		return nil, fmt.Errorf("data integrity validation failed: %w", err)
	}

	if len(previous) > 0 {
		diff := substances.Diff(previous, collection)
		if !diff.Empty() {
			logging.Info("Collection changed since last run",
				"run_id", runID,
				"added", len(diff.Added),
				"changed", len(diff.Changed),
				"removed", len(diff.Removed),
			)
			if p.changelogPath != "" {
				changes := changelog.FromDiff(&diff, now.Format("2006-01-02"))
				if err := changelog.Update(p.changelogPath, changes); err != nil {
					// The dataset is already persisted; a changelog failure
					// should not fail the run
					logging.Error("Failed to update changelog", "run_id", runID, "error", err)
				}
			}
		}
	}

	if p.docs != nil {
		if err := p.docs.Generate(collection, now); err != nil {
			logging.Error("Failed to generate documentation", "run_id", runID, "error", err)
		}
	}

	// Atomic swap (zero downtime replacement)
	substancesMap := make(map[string]entities.Substance, len(collection))
	guidMap := make(map[string]entities.Substance)
	for i := range collection {
		substancesMap[collection[i].Slug] = collection[i]
		if collection[i].Guid != "" {
			guidMap[collection[i].Guid] = collection[i]
		}
	}
	p.dataStore.UpdateData(collection, substancesMap, guidMap, report)

	return collection, nil
}

// normalize turns raw rows into substance records, counting and logging
// skipped rows instead of failing the run.
func (p *Pipeline) normalize(rows []entities.RawRow, runID string) []entities.Substance {
	collection := make([]entities.Substance, 0, len(rows))
	skippedRows := 0

	for i, row := range rows {
		record, err := substances.FromRaw(row)
		if err != nil {
			skippedRows++
			logging.Warn("Skipping unusable source row",
				"run_id", runID,
				"row", i,
				"error", err,
			)
			continue
		}
		collection = append(collection, *record)
	}

	if skippedRows > 0 {
		metrics.SkippedRowsTotal.Add(float64(skippedRows))
		logging.Info("Raw row skip statistics",
			"run_id", runID,
			"skipped", skippedRows,
			"total_rows", len(rows),
			"records_built", len(collection),
		)
	}

	return collection
}
