// Command server runs the twitter clone API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"twitterclone/internal/bootstrap"
	"twitterclone/internal/config"
	"twitterclone/internal/middleware"
	"twitterclone/internal/server"
)

// @title Twitter Clone API
// @version 1.0
// @description Posts, retweets, comments, likes, follows and live feeds

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.InitLogging(cfg)

	stopTracing, err := bootstrap.InitTracing(cfg, "twitterclone-api")
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() { listenErr <- srv.Start() }()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		middleware.Logger.Info("signal received, draining")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if serr := srv.Shutdown(drainCtx); serr != nil {
		middleware.Logger.Error("shutdown", slog.String("error", serr.Error()))
	}
	if terr := stopTracing(drainCtx); terr != nil {
		middleware.Logger.Warn("tracer flush", slog.String("error", terr.Error()))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
