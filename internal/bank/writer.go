package bank

import (
	"fmt"

	"exam-quiz-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Headers is the column layout of a bank workbook.
var Headers = []string{"Question", "Correct Answer", "Option A", "Option B", "Option C", "Option D", "Option E"}

// WriteXLSX writes records to a new workbook at path using Headers.
func WriteXLSX(path string, records []domain.QuestionRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return fmt.Errorf("write bank header: %w", err)
	}
	for i, record := range records {
		row := []interface{}{record.Prompt, string(record.Correct)}
		for _, label := range domain.Labels {
			row = append(row, record.Options[label])
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return fmt.Errorf("write bank row %d: %w", i+2, err)
		}
	}
	return f.SaveAs(path)
}
