package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"twitterclone/internal/config"
	"twitterclone/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do and which migrations are pending.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is what ApplySchema will run for a config.
type schemaPlan struct {
	Mode string
	SQL  bool
	Auto bool
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	// the embedded SQL is Postgres dialect
	if cfg.DBDriver == "sqlite" {
		return schemaPlan{Mode: SchemaModeAuto, Auto: true}, nil
	}

	prodLike := isProdLikeEnv(cfg.Env)
	switch mode {
	case SchemaModeSQL:
		return schemaPlan{Mode: mode, SQL: true}, nil
	case SchemaModeHybrid:
		// SQL is authoritative; AutoMigrate only fills gaps outside production
		return schemaPlan{Mode: mode, SQL: true, Auto: !prodLike}, nil
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return schemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return schemaPlan{Mode: mode, Auto: true}, nil
	}
	return schemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
}

// ApplySchema brings the database to the current model set according to
// DB_SCHEMA_MODE: sql (embedded migrations), auto (GORM AutoMigrate) or
// hybrid (both, AutoMigrate skipped in production-like environments).
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}
	log := middleware.Logger.With(slog.String("mode", plan.Mode), slog.String("env", cfg.Env))

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.Auto {
		return nil
	}

	if plan.Mode == SchemaModeAuto && isProdLikeEnv(cfg.Env) {
		log.WarnContext(ctx, "automigrating a production-like database; review schema diffs")
	}
	log.InfoContext(ctx, "running automigrate", slog.Int("models", len(PersistentModels())))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, when SQL migrations are in
// play, which embedded migrations are still pending.
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

	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	for _, m := range GetMigrations() {
		if _, ok := done[m.Version]; !ok {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
