package migration

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded migrations, creating the tenant
// schema first.
func RunMigrations(dbURL string, logger zerolog.Logger) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database for migrations")
	}
	defer db.Close()

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS tenant"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create tenant schema")
	}
	if _, err := db.Exec("SET search_path TO tenant"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to set search path")
	}

	goose.SetBaseFS(embeddedMigrations)
	goose.SetTableName("tenant.goose_db_version")

	if err := goose.Up(db, "migrations"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Info().Msg("Migrations completed successfully")
}

// GooseAdapter routes goose's log output through zerolog.
type GooseAdapter struct {
	logger zerolog.Logger
}

func NewGooseAdapter(logger zerolog.Logger) *GooseAdapter {
	return &GooseAdapter{logger: logger.With().Str("component", "goose").Logger()}
}

func (a *GooseAdapter) Printf(format string, v ...interface{}) {
	a.logger.Info().Msgf(format, v...)
}

func (a *GooseAdapter) Fatalf(format string, v ...interface{}) {
	a.logger.Fatal().Msgf(format, v...)
}
