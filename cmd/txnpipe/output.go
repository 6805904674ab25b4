package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"txnpipe/internal/pipeline"
	"txnpipe/internal/tabular"
)

// writeOutputs persists the three result files to dir: valid.csv,
// invalid.csv and stats.json. Empty dir means the current directory.
func writeOutputs(dir string, res *pipeline.Result) error {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	validPath := filepath.Join(dir, "valid.csv")
	if err := writeCSV(validPath, res.Valid); err != nil {
		return err
	}
	invalidPath := filepath.Join(dir, "invalid.csv")
	if err := writeCSV(invalidPath, res.Invalid); err != nil {
		return err
	}
	statsPath := filepath.Join(dir, "stats.json")
	if err := writeJSON(statsPath, res.Stats); err != nil {
		return err
	}

	log.Printf("run %s: wrote %s, %s, %s", res.RunID, validPath, invalidPath, statsPath)
	return nil
}

// writeCSV writes t with a header row. Nil cells become empty strings.
func writeCSV(path string, t tabular.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	row := make([]string, len(t.Columns))
	for _, rec := range t.Rows {
		for i, col := range t.Columns {
			row[i] = tabular.AsString(rec[col])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
