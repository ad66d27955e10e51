package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
)

// PerformanceFile is the performance table name inside the storage directory.
const PerformanceFile = "performance.csv"

var performanceHeader = []string{"username", "timestamp", "score", "total", "percentage"}

// Timestamps are written as RFC 3339; older rows may use a naive
// "date time" layout, read in the local zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
}

// PerformanceLog keeps the append-only history in performance.csv.
type PerformanceLog struct {
	path string
	mu   sync.Mutex
}

func NewPerformanceLog(dir string) *PerformanceLog {
	return &PerformanceLog{path: filepath.Join(dir, PerformanceFile)}
}

// Append rewrites the table with one more row. A table written before the
// percentage column existed gains it, filled from score/total.
func (l *PerformanceLog) Append(ctx context.Context, record domain.PerformanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := readTable(l.path, performanceHeader)
	if err != nil {
		return err
	}
	if t.column("percentage") < 0 {
		if err := addPercentageColumn(&t); err != nil {
			return err
		}
	}

	row := make([]string, len(t.header))
	for i, h := range t.header {
		switch strings.TrimSpace(h) {
		case "username":
			row[i] = record.Username
		case "timestamp":
			row[i] = record.Timestamp.Format(time.RFC3339Nano)
		case "score":
			row[i] = strconv.Itoa(record.Score)
		case "total":
			row[i] = strconv.Itoa(record.Total)
		case "percentage":
			row[i] = strconv.FormatFloat(record.Percentage, 'f', -1, 64)
		}
	}
	t.rows = append(t.rows, row)
	return writeTable(l.path, t)
}

func (l *PerformanceLog) ByUser(ctx context.Context, username string) ([]domain.PerformanceRecord, error) {
	all, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.PerformanceRecord
	for _, r := range all {
		if r.Username == username {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *PerformanceLog) All(ctx context.Context) ([]domain.PerformanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	t, err := readTable(l.path, performanceHeader)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return parseRecords(t)
}

func parseRecords(t table) ([]domain.PerformanceRecord, error) {
	cols := map[string]int{}
	for _, name := range performanceHeader {
		cols[name] = t.column(name)
	}
	for _, name := range []string{"username", "score", "total"} {
		if cols[name] < 0 {
			return nil, fmt.Errorf("%s has no %s column", PerformanceFile, name)
		}
	}

	records := make([]domain.PerformanceRecord, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		score, err := strconv.Atoi(t.value(row, cols["score"]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: score: %w", PerformanceFile, line, err)
		}
		total, err := strconv.Atoi(t.value(row, cols["total"]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: total: %w", PerformanceFile, line, err)
		}
		record := domain.PerformanceRecord{
			Username: t.value(row, cols["username"]),
			Score:    score,
			Total:    total,
		}
		if raw := t.value(row, cols["timestamp"]); raw != "" {
			ts, err := parseTimestamp(raw)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", PerformanceFile, line, err)
			}
			record.Timestamp = ts
		}
		record.Percentage = domain.Percentage(score, total)
		if raw := t.value(row, cols["percentage"]); raw != "" {
			if p, err := strconv.ParseFloat(raw, 64); err == nil {
				record.Percentage = p
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func addPercentageColumn(t *table) error {
	scoreCol, totalCol := t.column("score"), t.column("total")
	if scoreCol < 0 || totalCol < 0 {
		return fmt.Errorf("%s has no score/total columns", PerformanceFile)
	}
	t.header = append(t.header, "percentage")
	for i, row := range t.rows {
		score, _ := strconv.Atoi(t.value(row, scoreCol))
		total, _ := strconv.Atoi(t.value(row, totalCol))
		for len(row) < len(t.header)-1 {
			row = append(row, "")
		}
		t.rows[i] = append(row, strconv.FormatFloat(domain.Percentage(score, total), 'f', -1, 64))
	}
	return nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
