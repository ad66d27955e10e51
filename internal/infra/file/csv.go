// Package file persists users and performance history as plain CSV tables.
// Each write rewrites the whole table through a temp file and rename. Writers
// inside one process are serialized; writers in different processes are
// last-writer-wins.
package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// table is a CSV file with a header row.
type table struct {
	header []string
	rows   [][]string
}

func (t table) column(name string) int {
	for i, h := range t.header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func (t table) value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// readTable loads path. A missing file yields an empty table with the given
// default header.
func readTable(path string, defaultHeader []string) (table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return table{header: defaultHeader}, nil
	}
	if err != nil {
		return table{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return table{header: defaultHeader}, nil
	}
	return table{header: records[0], rows: records[1:]}, nil
}

func writeTable(path string, t table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(t.rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
