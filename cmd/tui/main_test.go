package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestDB(t *testing.T) {
	t.Helper()
	db := Database{
		Entries: []Entry{
			{Identifier: "seq1", Bases: strings.Repeat("ATG", 50), Length: 150, CountA: 50, CountT: 50, CountG: 50, GCPercent: 33.33, ATPercent: 66.67},
		},
		Summary: Summary{MeanGC: 33.33, MinGC: 33.33, MaxGC: 33.33},
	}
	data, err := json.Marshal(db)
	if err != nil {
		t.Fatalf("marshal test db: %v", err)
	}
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test db: %v", err)
	}
	old := dbPath
	dbPath = path
	t.Cleanup(func() { dbPath = old })
}

func TestCycleMode(t *testing.T) {
	writeTestDB(t)
	m := initialModel()
	if m.currentMode != modeBases {
		t.Fatalf("expected initial mode bases, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeComposition {
		t.Fatalf("expected composition, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeSummary {
		t.Fatalf("expected summary, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeBases {
		t.Fatalf("expected bases, got %v", m.currentMode)
	}
}

func TestBuildRightLinesWrap(t *testing.T) {
	writeTestDB(t)
	m := initialModel()
	m.width = 120
	m.height = 40
	lines := m.buildRightLines(m.db.Entries[0])
	if len(lines) == 0 {
		t.Fatalf("expected detail lines, got 0")
	}
}

func TestBuildRightLinesComposition(t *testing.T) {
	writeTestDB(t)
	m := initialModel()
	m.width = 120
	m.height = 40
	m.currentMode = modeComposition
	lines := m.buildRightLines(m.db.Entries[0])
	joined := strings.Join(lines, "\n")
	for _, label := range []string{"G", "C", "A", "T", "ambiguous"} {
		if !strings.Contains(joined, label) {
			t.Fatalf("composition view missing %q: %s", label, joined)
		}
	}
}
