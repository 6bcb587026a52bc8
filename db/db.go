package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/racetiming/config"
	"github.com/padraicbc/racetiming/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*models.Operator)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating table for %T: %w", (*models.Operator)(nil), err)
	}
	if _, err := db.NewCreateTable().Model((*models.CompetitionConfiguration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating table for %T: %w", (*models.CompetitionConfiguration)(nil), err)
	}
	if _, err := db.NewCreateTable().Model((*models.ConfigurationTrack)(nil)).
		IfNotExists().
		ForeignKey(`("configuration_id") REFERENCES "competition_configurations" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("creating table for %T: %w", (*models.ConfigurationTrack)(nil), err)
	}
	return nil
}
