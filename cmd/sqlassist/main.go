package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"github.com/sqlassist/sqlassist/internal/cli/sqlassist"
	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("sqlassist")
	if err != nil {
		pterm.Error.Println("config error: " + err.Error())
		os.Exit(1)
	}
	// Keep the terminal readable: only warnings and errors reach stderr.
	if cfg.Observability.LogLevel < slog.LevelWarn {
		cfg.Observability.LogLevel = slog.LevelWarn
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := sqlassist.NewRootCommand(sqlassist.Options{
		Config: cfg,
		Logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		APIURL: strings.TrimSpace(os.Getenv("SQLASSIST_API_URL")),
		APIKey: strings.TrimSpace(os.Getenv("SQLASSIST_API_KEY")),
	})
	if err := root.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err.Error())
		stop()
		os.Exit(1)
	}
}
