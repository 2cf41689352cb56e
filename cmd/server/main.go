package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/reshetovitsme/squad-bot/internal/di"
	timerService "github.com/reshetovitsme/squad-bot/internal/modules/timer/service"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	discordTransport "github.com/reshetovitsme/squad-bot/internal/transport/discord"
	httpServer "github.com/reshetovitsme/squad-bot/internal/transport/http"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	slog.SetDefault(newLogger(slog.LevelInfo, nil))

	if err := run(); err != nil {
		slog.Error("Application stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		return oops.With("context", "failed to setup dependency injection").Wrap(err)
	}
	var logFile *os.File
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
		if logFile != nil {
			logFile.Close()
		}
	}()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}

	var logOutput io.Writer
	if cfg.LogFile != "" {
		logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return oops.With("path", cfg.LogFile).Wrapf(err, "opening log file")
		}
		logOutput = logFile
	}
	slog.SetDefault(newLogger(parseLevel(cfg.LogLevel), logOutput))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Get services from DI container
	timers := do.MustInvoke[*timerService.Service](injector)
	_ = do.MustInvoke[*discordTransport.Handler](injector) // attaches event handlers to the session
	server := do.MustInvoke[*httpServer.Server](injector)
	session := do.MustInvoke[*discordgo.Session](injector)

	timers.Start(ctx)

	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	if err := session.Open(); err != nil {
		return oops.Wrapf(err, "connecting to discord")
	}

	slog.Info("Application started", "port", cfg.HTTPPort, "env", cfg.AppEnv, "guild_id", cfg.GuildID)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
	return nil
}

// newLogger fans text logs to stdout, errors as JSON to stderr and, when
// logFile is set, everything as JSON to the file.
func newLogger(level slog.Level, logFile io.Writer) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	if logFile != nil {
		handlers = append(handlers, slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
