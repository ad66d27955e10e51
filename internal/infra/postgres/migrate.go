package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"exam-quiz-service/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// Migrate applies pending schema migrations and returns the applied group
// description ("" when already up to date).
func Migrate(ctx context.Context, dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return "", err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return "", err
	}
	if group.IsZero() {
		return "", nil
	}
	return group.String(), nil
}
