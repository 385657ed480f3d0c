package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// slogGorm routes GORM's query log into slog. Only failed and slow queries
// are logged unless the level is raised to Info.
type slogGorm struct {
	log   *slog.Logger
	level gormlogger.LogLevel
}

func newGormLogger(l *slog.Logger) gormlogger.Interface {
	return &slogGorm{log: l.With(slog.String("component", "gorm")), level: gormlogger.Warn}
}

func (g *slogGorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *slogGorm) Info(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Info, slog.LevelInfo, msg, args)
}

func (g *slogGorm) Warn(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Warn, slog.LevelWarn, msg, args)
}

func (g *slogGorm) Error(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Error, slog.LevelError, msg, args)
}

func (g *slogGorm) printf(ctx context.Context, threshold gormlogger.LogLevel, lvl slog.Level, msg string, args []any) {
	if g.level >= threshold {
		g.log.Log(ctx, lvl, fmt.Sprintf(msg, args...))
	}
}

func (g *slogGorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var lvl slog.Level
	var msg string
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case elapsed > slowQuery && g.level >= gormlogger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
	case g.level >= gormlogger.Info:
		lvl, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	g.log.LogAttrs(ctx, lvl, msg, attrs...)
}
