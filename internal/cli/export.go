package cli

import (
	"fmt"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	attemptsSheet    = "Attempts"
	leaderboardSheet = "Leaderboard"
)

// NewExportCmd writes the performance log and leaderboard to a workbook.
func NewExportCmd(configPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export performance history to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.performance.All(cmd.Context())
			if err != nil {
				return err
			}
			if err := writePerformanceWorkbook(output, records); err != nil {
				return err
			}
			logger.Info("performance exported", zap.String("path", output), zap.Int("records", len(records)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "performance.xlsx", "destination workbook")
	return cmd
}

func writePerformanceWorkbook(path string, records []domain.PerformanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attemptsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(attemptsSheet, "A1", &[]any{"username", "timestamp", "score", "total", "percentage"}); err != nil {
		return err
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{r.Username, r.Timestamp.Format(time.RFC3339), r.Score, r.Total, r.Percentage}
		if err := f.SetSheetRow(attemptsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(leaderboardSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &[]any{"rank", "username", "mean_percentage", "attempts"}); err != nil {
		return err
	}
	for i, e := range app.Leaderboard(records) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{e.Rank, e.Username, e.MeanPercentage, e.Attempts}
		if err := f.SetSheetRow(leaderboardSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
