// Package bank loads the static multiple-choice question bank.
package bank

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"exam-quiz-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Normalized column names.
const (
	ColumnQuestion = "question"
	ColumnCorrect  = "correct"
)

// RequiredColumns must be present in every bank header. Column E is optional.
var RequiredColumns = []string{ColumnQuestion, ColumnCorrect, "A", "B", "C", "D"}

var aliases = map[string]string{
	"question":       ColumnQuestion,
	"correct answer": ColumnCorrect,
	"correct":        ColumnCorrect,
	"option a":       "A",
	"option b":       "B",
	"option c":       "C",
	"option d":       "D",
	"option e":       "E",
	"a":              "A",
	"b":              "B",
	"c":              "C",
	"d":              "D",
	"e":              "E",
}

// NormalizeColumn maps a raw header cell to its normalized name. Unknown
// columns are returned trimmed but otherwise untouched.
func NormalizeColumn(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if name, ok := aliases[strings.ToLower(trimmed)]; ok {
		return name
	}
	return trimmed
}

// Load reads the bank at path. The format is chosen by extension: .xlsx uses
// the first sheet, .csv is read as comma separated text.
func Load(ctx context.Context, path string) ([]domain.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open question bank: %w", err)
		}
		defer f.Close()
		return FromWorkbook(f)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open question bank: %w", err)
		}
		defer file.Close()
		return FromCSV(file)
	default:
		return nil, fmt.Errorf("unsupported question bank format %q", ext)
	}
}

// FromWorkbook parses the first sheet of an opened workbook.
func FromWorkbook(f *excelize.File) ([]domain.QuestionRecord, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.MissingColumnError{Columns: RequiredColumns}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read question bank rows: %w", err)
	}
	return FromRows(rows)
}

// FromCSV parses a CSV bank with a header row.
func FromCSV(r io.Reader) ([]domain.QuestionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read question bank csv: %w", err)
	}
	return FromRows(rows)
}

// FromRows converts a header row plus data rows into records. A missing
// required column fails the whole bank; blank cells are kept and left for the
// session builder to filter.
func FromRows(rows [][]string) ([]domain.QuestionRecord, error) {
	if len(rows) == 0 {
		return nil, &domain.MissingColumnError{Columns: RequiredColumns}
	}

	index := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		name := NormalizeColumn(header)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.MissingColumnError{Columns: missing}
	}

	records := make([]domain.QuestionRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		record := domain.QuestionRecord{
			Prompt:  cell(row, index, ColumnQuestion),
			Options: make(map[domain.Label]string, len(domain.Labels)),
		}
		if label, ok := domain.ParseLabel(cell(row, index, ColumnCorrect)); ok {
			record.Correct = label
		}
		for _, label := range domain.Labels {
			if text := cell(row, index, string(label)); text != "" {
				record.Options[label] = text
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func cell(row []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// FileLoader loads the bank from a fixed path; it satisfies the cache's
// loader interface.
type FileLoader struct {
	Path string
}

func (l FileLoader) LoadBank(ctx context.Context) ([]domain.QuestionRecord, error) {
	return Load(ctx, l.Path)
}
