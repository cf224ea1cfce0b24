package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
)

// Run is one persisted analysis: the input label, when it ran and the
// full result table. History lets users revisit and re-export earlier
// analyses without re-uploading.
type Run struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	CreatedAt time.Time           `json:"created_at"`
	Rows      []composition.Stats `json:"rows"`
	Summary   composition.Summary `json:"summary"`
}

// runsStore selects the backend: "json" (default) or "sqlite".
var (
	runsStore = "json"
	runsPath  = "runs.json"
	runsDB    *sql.DB
)

const runsSchema = `CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    label TEXT,
    created_at TEXT,
    payload TEXT
)`

// initRunsStore opens the configured backend. For sqlite it creates the
// schema; for json it only records the path.
func initRunsStore(store, path string) error {
	if store != "" {
		runsStore = store
	}
	if path != "" {
		runsPath = path
	}
	if runsStore != "sqlite" {
		return nil
	}
	db, err := sql.Open("sqlite", runsPath)
	if err != nil {
		return err
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return err
	}
	runsDB = db
	return nil
}

// saveRuns persists the full run list to the configured backend.
func saveRuns(path string, runs []Run) error {
	if runsStore == "sqlite" && runsDB != nil {
		tx, err := runsDB.Begin()
		if err != nil {
			return err
		}
		for _, r := range runs {
			payload, err := json.Marshal(r)
			if err != nil {
				tx.Rollback()
				return err
			}
			if _, err := tx.Exec(
				`INSERT INTO runs (id, label, created_at, payload) VALUES (?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET label=excluded.label, created_at=excluded.created_at, payload=excluded.payload`,
				r.ID, r.Label, r.CreatedAt.UTC().Format(time.RFC3339), string(payload)); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadRuns reads all runs from the configured backend, newest last.
func loadRuns(path string) ([]Run, error) {
	if runsStore == "sqlite" && runsDB != nil {
		rows, err := runsDB.Query(`SELECT payload FROM runs ORDER BY created_at`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var runs []Run
		for rows.Next() {
			var payload string
			if err := rows.Scan(&payload); err != nil {
				return nil, err
			}
			var r Run
			if err := json.Unmarshal([]byte(payload), &r); err != nil {
				return nil, err
			}
			runs = append(runs, r)
		}
		return runs, rows.Err()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// appendRun stores one new run.
func appendRun(run Run) error {
	if runsStore == "sqlite" && runsDB != nil {
		return saveRuns(runsPath, []Run{run})
	}
	runs, err := loadRuns(runsPath)
	if err != nil {
		return err
	}
	runs = append(runs, run)
	return saveRuns(runsPath, runs)
}

// findRun loads one run by id.
func findRun(id string) (*Run, error) {
	runs, err := loadRuns(runsPath)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("run %q not found", id)
}

// newRunID derives an identifier from the creation time.
func newRunID(at time.Time) string {
	return fmt.Sprintf("run-%d", at.UnixNano())
}
