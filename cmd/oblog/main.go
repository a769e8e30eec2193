// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/config"
	"github.com/olegiv/oblog-go/internal/handler/api"
	"github.com/olegiv/oblog-go/internal/logging"
	"github.com/olegiv/oblog-go/internal/notify"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return err
	}

	// Mirror warnings and errors into the event log table.
	logger := slog.New(logging.NewEventLogHandler(baseHandler, db))
	slog.SetDefault(logger)

	// Roles and self-follow backfill always run; the admin account only when
	// seeding is requested.
	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db, cfg.AdminEmail); err != nil {
			return err
		}
	} else {
		if err := store.SeedRoles(context.Background(), db); err != nil {
			return err
		}
		if err := store.EnsureSelfFollows(context.Background(), db); err != nil {
			return err
		}
	}

	notifier := notify.NewDispatcher(notify.LogSink{Logger: logger}, logger, notify.Config{
		Workers:       2,
		QueueSize:     100,
		SubjectPrefix: cfg.MailSubjectPrefix,
		Sender:        cfg.MailSender,
	})
	notifier.Start()
	defer notifier.Stop()

	codec := auth.NewCodec(cfg.SecretKey)
	directory := service.NewDirectory(db, codec, notifier, logger, service.DirectoryConfig{
		AdminEmail:      cfg.AdminEmail,
		ConfirmTokenTTL: time.Duration(cfg.ConfirmTokenTTL) * time.Second,
		AuthTokenTTL:    time.Duration(cfg.AuthTokenTTL) * time.Second,
	})
	follows := service.NewFollowGraph(db, logger)
	content := service.NewContent(db, logger)

	apiHandler := api.NewHandler(directory, follows, content, logger, int64(cfg.PostsPerPage))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Mount("/api", apiHandler.Routes())

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
