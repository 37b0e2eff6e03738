package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "substances.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return store
}

func testSubstance(name string) entities.Substance {
	return entities.Substance{
		Name:           name,
		Slug:           name, // tests use slug-shaped names
		SearchableName: name,
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)

	substances := []entities.Substance{testSubstance("ephedrine"), testSubstance("yohimbine")}
	if err := store.SaveSnapshot(ctx, substances, now); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// New rows get added=now stamped back onto the slice
	for i := range substances {
		if substances[i].Added == nil || !substances[i].Added.Equal(now) {
			t.Errorf("Substance %d: expected added=%v, got %v", i, now, substances[i].Added)
		}
		if substances[i].Updated != nil {
			t.Errorf("Substance %d: expected no updated timestamp, got %v", i, substances[i].Updated)
		}
	}

	loaded, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 substances, got %d", len(loaded))
	}
	for _, sub := range loaded {
		if sub.Added == nil || !sub.Added.Equal(now) {
			t.Errorf("Substance %s: added timestamp not persisted: %v", sub.Slug, sub.Added)
		}
	}
}

func TestSaveSnapshotUnchangedKeepsTimestamps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	substances := []entities.Substance{testSubstance("ephedrine")}
	if err := store.SaveSnapshot(ctx, substances, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	// Identical data on the next run must not touch the timestamps
	again := []entities.Substance{testSubstance("ephedrine")}
	if err := store.SaveSnapshot(ctx, again, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	if again[0].Added == nil || !again[0].Added.Equal(first) {
		t.Errorf("Expected original added timestamp %v, got %v", first, again[0].Added)
	}
	if again[0].Updated != nil {
		t.Errorf("Unchanged row gained an updated timestamp: %v", again[0].Updated)
	}
}

func TestSaveSnapshotStampsUpdated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	if err := store.SaveSnapshot(ctx, []entities.Substance{testSubstance("ephedrine")}, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	changed := testSubstance("ephedrine")
	changed.Classifications = []string{"Stimulant"}
	batch := []entities.Substance{changed}
	if err := store.SaveSnapshot(ctx, batch, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	if batch[0].Added == nil || !batch[0].Added.Equal(first) {
		t.Errorf("Changed row lost its added timestamp: %v", batch[0].Added)
	}
	if batch[0].Updated == nil || !batch[0].Updated.Equal(second) {
		t.Errorf("Expected updated=%v, got %v", second, batch[0].Updated)
	}

	loaded, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded) != 1 || len(loaded[0].Classifications) != 1 {
		t.Errorf("Changed document not persisted: %+v", loaded)
	}
}

func TestSaveSnapshotIgnoresBookkeepingChurn(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	if err := store.SaveSnapshot(ctx, []entities.Substance{testSubstance("ephedrine")}, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	// Enrichment data is excluded from the canonical document, so it never
	// produces an update by itself
	enriched := testSubstance("ephedrine")
	enriched.UniiInfo = &entities.UniiInfo{UniiCode: "AAA111"}
	batch := []entities.Substance{enriched}
	if err := store.SaveSnapshot(ctx, batch, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	if batch[0].Updated != nil {
		t.Errorf("Enrichment churn stamped an updated timestamp: %v", batch[0].Updated)
	}
}

func TestSaveSnapshotRemovesMissing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)

	both := []entities.Substance{testSubstance("ephedrine"), testSubstance("yohimbine")}
	if err := store.SaveSnapshot(ctx, both, now); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	only := []entities.Substance{testSubstance("ephedrine")}
	if err := store.SaveSnapshot(ctx, only, now.Add(time.Hour)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Slug != "ephedrine" {
		t.Errorf("Expected only ephedrine to survive, got %+v", loaded)
	}
}

func TestLastSnapshotTime(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	initial, err := store.LastSnapshotTime(ctx)
	if err != nil {
		t.Fatalf("LastSnapshotTime failed: %v", err)
	}
	if !initial.IsZero() {
		t.Errorf("Expected zero time before first save, got %v", initial)
	}

	now := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)
	if err := store.SaveSnapshot(ctx, []entities.Substance{testSubstance("ephedrine")}, now); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	recorded, err := store.LastSnapshotTime(ctx)
	if err != nil {
		t.Fatalf("LastSnapshotTime failed: %v", err)
	}
	if !recorded.Equal(now) {
		t.Errorf("Expected %v, got %v", now, recorded)
	}
}

func TestLoadSnapshotEmptyDatabase(t *testing.T) {
	store := openTestStore(t)

	loaded, err := store.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty snapshot, got %d substances", len(loaded))
	}
}

func TestSaveSnapshotKeepsRowProvidedDates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rowAdded := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)

	sub := testSubstance("ephedrine")
	sub.Added = &rowAdded
	if err := store.SaveSnapshot(ctx, []entities.Substance{sub}, now); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if sub.Added == nil || !sub.Added.Equal(rowAdded) {
		t.Errorf("Row-provided added date clobbered: %v", sub.Added)
	}

	loaded, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Added == nil || !loaded[0].Added.Equal(rowAdded) {
		t.Errorf("Persisted added date wrong: %+v", loaded)
	}

	// A changed record carrying its own updated date keeps it too
	rowUpdated := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	changed := testSubstance("ephedrine")
	changed.Classifications = []string{"Stimulant"}
	changed.Updated = &rowUpdated
	later := now.Add(12 * time.Hour)
	changedSlice := []entities.Substance{changed}
	if err := store.SaveSnapshot(ctx, changedSlice, later); err != nil {
		t.Fatalf("Second SaveSnapshot failed: %v", err)
	}
	if changedSlice[0].Updated == nil || !changedSlice[0].Updated.Equal(rowUpdated) {
		t.Errorf("Row-provided updated date clobbered: %v", changedSlice[0].Updated)
	}
	if changedSlice[0].Added == nil || !changedSlice[0].Added.Equal(rowAdded) {
		t.Errorf("Recorded added date lost on update: %v", changedSlice[0].Added)
	}
}
