package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to the embedded migrations. It only acts
// in dev with RENTALS_AUTO_MIGRATE on; other environments migrate through
// cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	return upgradeEmbedded(logg.WithField(ctx, "source", "embedded"), logg, sqlDB)
}

func upgradeEmbedded(ctx context.Context, logg *logger.Logger, sqlDB *sql.DB) error {
	if err := ValidateEmbedded(); err != nil {
		return err
	}
	versions, err := EmbeddedVersions()
	if err != nil {
		return fmt.Errorf("list embedded migrations: %w", err)
	}
	if len(versions) == 0 {
		return nil
	}
	latest := versions[len(versions)-1]

	current, err := CurrentVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	ctx = logg.WithFields(ctx, map[string]any{"db_version": current, "embedded_version": latest})
	switch {
	case current == latest:
		logg.Debug(ctx, "schema up to date")
		return nil
	case current > latest:
		// An older binary against a newer schema; leave it alone.
		logg.Warn(ctx, "database schema is ahead of this build")
		return nil
	}

	logg.Info(ctx, "applying embedded migrations")
	if err := Run(ctx, sqlDB, Embedded, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "embedded migrations applied")
	return nil
}

// CurrentVersion reports the goose version recorded in the database, 0 when
// nothing has been applied yet.
func CurrentVersion(ctx context.Context, sqlDB *sql.DB) (int64, error) {
	var version int64
	err := withGoose(Embedded, func(string) error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		version = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return version, nil
}
