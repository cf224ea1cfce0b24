package main

import (
	"os"
	"testing"
	"time"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
)

func TestSaveLoadRuns_SQLite(t *testing.T) {
	// use a temp file
	f := "test_runs.db"
	_ = os.Remove(f)
	defer os.Remove(f)

	if err := initRunsStore("sqlite", f); err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() {
		runsDB.Close()
		runsDB = nil
		runsStore = "json"
	}()

	now := time.Now().UTC().Truncate(time.Second)
	runs := []Run{{
		ID:        "r1",
		Label:     "upload.fasta",
		CreatedAt: now,
		Rows:      []composition.Stats{{Identifier: "seq1", Length: 4, GCPercent: 50, ATPercent: 50}},
		Summary:   composition.Summary{MeanGC: 50, MinGC: 50, MaxGC: 50},
	}}
	if err := saveRuns(f, runs); err != nil {
		t.Fatalf("saveRuns failed: %v", err)
	}
	loaded, err := loadRuns(f)
	if err != nil {
		t.Fatalf("loadRuns failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "r1" {
		t.Fatalf("unexpected loaded runs: %#v", loaded)
	}
	if loaded[0].Rows[0].GCPercent != 50 {
		t.Fatalf("payload did not round-trip: %#v", loaded[0].Rows)
	}

	// saving the same id again must update, not duplicate
	runs[0].Label = "renamed"
	if err := saveRuns(f, runs); err != nil {
		t.Fatalf("second saveRuns failed: %v", err)
	}
	loaded, err = loadRuns(f)
	if err != nil {
		t.Fatalf("second loadRuns failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Label != "renamed" {
		t.Fatalf("upsert failed: %#v", loaded)
	}
}
