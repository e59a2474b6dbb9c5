package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/notify"
	"github.com/danielhkuo/groupbuy/router"
	"github.com/danielhkuo/groupbuy/settlement"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "groupbuy",
		Short:   "Group-buying pools with threshold settlement",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// Subcommands hand their arguments to cliparse so flags, env and the config
// file resolve the same way for every command.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "serve [flags]",
		Short:              "Run the HTTP API",
		Long:               "Run the HTTP API. With -sweep-interval the deadline sweep also runs in-process.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args)
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "sweep [flags]",
		Short:              "Settle every open pool past its deadline, then exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(args)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate [flags]",
		Short:              "Create the database schema",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(context.Background(), args)
			if err != nil {
				return err
			}
			defer conn.Close()
			slog.Info("Database schema ready", "type", cfg.DatabaseType)
			return nil
		},
	}
}

// setup parses configuration, installs the logger, and opens the database
// with the schema in place.
func setup(ctx context.Context, args []string) (cliparse.Config, *sql.DB, error) {
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return cfg, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, err
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return cfg, nil, err
	}

	return cfg, conn, nil
}

func newNotifier(cfg cliparse.Config) (notify.Notifier, error) {
	return notify.New(notify.Options{
		Kinds:      cfg.Notifiers,
		AMQPURL:    cfg.AMQPURL,
		TwilioFrom: cfg.TwilioFrom,
		TwilioTo:   cfg.TwilioTo,
	})
}

func runServe(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, conn, err := setup(ctx, args)
	if err != nil {
		return err
	}
	defer conn.Close()

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer notify.Close(notifier)

	engine := settlement.NewEngine(conn, notifier, cfg.NotifyTopic)

	server := http.Server{
		Handler: router.NewRouter(conn, cfg, engine),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if cfg.SweepInterval > 0 {
		go sweepEvery(ctx, engine, cfg.SweepInterval)
	}

	slog.Info("Listening", "port", cfg.Port, "database", cfg.DatabaseType, "notifiers", cfg.Notifiers)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed")
	return nil
}

// sweepEvery runs the deadline sweep on a ticker until ctx ends. Each tick
// is independent; a failed tick is retried on the next one.
func sweepEvery(ctx context.Context, engine *settlement.Engine, interval time.Duration) {
	slog.Info("in-process sweep enabled", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := engine.Sweep(ctx, now); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}

func runSweep(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, conn, err := setup(ctx, args)
	if err != nil {
		return err
	}
	defer conn.Close()

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer notify.Close(notifier)

	report, err := settlement.NewEngine(conn, notifier, cfg.NotifyTopic).Sweep(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	// Non-zero exit lets the scheduler alert; the failed pools stay open
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d pools failed to settle", len(report.Failed), report.Selected)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
