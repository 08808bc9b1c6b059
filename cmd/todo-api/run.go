package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cirocosta/todo-api/internal/api"
	"github.com/cirocosta/todo-api/internal/config"
	"github.com/cirocosta/todo-api/internal/database"
	"github.com/cirocosta/todo-api/internal/health"
	"github.com/cirocosta/todo-api/internal/logging"
	"github.com/cirocosta/todo-api/internal/repository"
	"github.com/cirocosta/todo-api/internal/service"
)

func newRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := logging.New(os.Stdout, cfg.Log)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file; environment variables override it")

	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully
func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	repo, closeStore, err := openStore(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	todoService := service.NewTodoService(repo)
	checker := health.NewChecker(repo, cfg.DB.HealthTimeout.Duration())

	r := api.NewRouter(todoService, checker, api.Options{
		Name:           cfg.App.Name,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "driver", cfg.DB.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout.Duration())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// openStore returns the repository selected by cfg.Driver and a function
// releasing its resources
func openStore(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (repository.TodoRepository, func() error, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewInMemoryTodoRepository(), func() error { return nil }, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	schemaCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout.Duration())
	defer cancel()

	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	logger.Info("connected to database",
		"driver", cfg.Driver,
		"host", cfg.Host,
		"name", cfg.Name,
		"max_open_conns", cfg.MaxOpenConns,
		"dsn", cfg.DSN(),
	)

	return repository.NewPostgresTodoRepository(db, cfg.QueryTimeout.Duration()), db.Close, nil
}
