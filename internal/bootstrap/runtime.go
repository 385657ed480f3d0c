// Package bootstrap prepares the process-wide runtime shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"twitterclone/internal/cache"
	"twitterclone/internal/config"
	"twitterclone/internal/database"
	"twitterclone/internal/identity"
	"twitterclone/internal/middleware"
	"twitterclone/internal/observability"
	"twitterclone/internal/repository"
	"twitterclone/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset names a built-in seed preset to load after the schema is applied.
	SeedPreset string
}

// InitLogging installs the configured logger for request and hub logging.
func InitLogging(cfg *config.Config) {
	middleware.Logger = middleware.NewLogger(cfg.Env, cfg.LogLevel)
	observability.SetLogger(middleware.Logger)
}

// InitTracing starts the tracer provider; the returned func flushes it.
func InitTracing(cfg *config.Config, serviceName string) (func(context.Context) error, error) {
	return observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SamplerRatio:   cfg.TracingSample,
	})
}

// InitRuntime connects to the database and Redis, applies the schema and
// optionally seeds. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("apply schema: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := ensureDevUser(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("bootstrap development user: %w", err)
	}

	if opts.SeedPreset != "" {
		preset, err := seed.PresetByName(opts.SeedPreset)
		if err != nil {
			return nil, nil, err
		}
		if _, err := seed.Seed(ctx, db, seed.Options{Preset: preset}); err != nil {
			return nil, nil, fmt.Errorf("seed %s: %w", opts.SeedPreset, err)
		}
	}

	return db, rdb, nil
}

// ensureDevUser creates the configured development account and logs a
// ready-to-use token for it. Only active in development.
func ensureDevUser(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapUser {
		return nil
	}

	username := strings.TrimSpace(cfg.DevBootstrapUsername)
	if username == "" {
		username = "dev"
	}
	if cfg.DevBootstrapPassword == "" {
		return errors.New("DEV_BOOTSTRAP_PASSWORD must be set when DEV_BOOTSTRAP_USER is enabled")
	}

	users := repository.NewUserRepository(db)
	provider := identity.NewProvider(repository.NewCredentialRepository(db), users, cfg.JWTSecret, nil)

	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		sess, err := provider.SignUp(ctx, identity.SignUpInput{
			Username:        username,
			ProfileName:     username,
			Password:        cfg.DevBootstrapPassword,
			ConfirmPassword: cfg.DevBootstrapPassword,
		})
		if err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "development user created",
			"username", username, "user_id", sess.UserID, "token", sess.Token)
		return nil
	}

	sess, err := provider.IssueToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development user ready",
		"username", username, "user_id", user.ID, "token", sess.Token)
	return nil
}
