package cli

import (
	"exam-quiz-service/internal/infra/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			group, err := postgres.Migrate(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			if group == "" {
				logger.Info("no new migrations")
				return nil
			}
			logger.Info("migrations applied", zap.String("group", group))
			return nil
		},
	}
}
