package database

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"tipa/internal/config"
	"tipa/internal/middleware"
)

// DB_SCHEMA_MODE values. Hybrid applies the embedded SQL migrations and, outside
// production-like environments, lets AutoMigrate add columns the SQL has not
// caught up with yet.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

var prodLikeEnvs = []string{"production", "prod", "staging", "stage"}

// schemaPlan is the resolved DB_SCHEMA_MODE for one environment.
type schemaPlan struct {
	Mode string
	SQL  bool
	Auto bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prodLike := slices.Contains(prodLikeEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.Auto = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %q requires DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// SchemaStatus describes what ApplySchema would do.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// AutoMigrate creates or updates tables for PersistentModels.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE and APP_ENV.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.Auto {
		return nil
	}

	if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
		middleware.Logger.WarnContext(ctx, "AutoMigrate enabled with DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE; review schema diffs before deploying")
	}
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", "mode", plan.Mode, "env", cfg.Env)
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan and, when SQL migrations apply, which are pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.SQL,
		WillRunAutoMigrate: plan.Auto,
	}
	if !plan.SQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	for _, m := range GetMigrations() {
		if !slices.Contains(applied, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
