package di

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	feedService "github.com/reshetovitsme/squad-bot/internal/modules/feed/service"
	timerRepo "github.com/reshetovitsme/squad-bot/internal/modules/timer/repository"
	timerService "github.com/reshetovitsme/squad-bot/internal/modules/timer/service"
	userService "github.com/reshetovitsme/squad-bot/internal/modules/user/service"
	voiceRepo "github.com/reshetovitsme/squad-bot/internal/modules/voice/repository"
	voiceService "github.com/reshetovitsme/squad-bot/internal/modules/voice/service"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/reshetovitsme/squad-bot/internal/shared/metrics"
	discordTransport "github.com/reshetovitsme/squad-bot/internal/transport/discord"
	httpServer "github.com/reshetovitsme/squad-bot/internal/transport/http"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Metrics
	do.Provide(injector, func(i do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})

	// Register Repositories
	do.Provide(injector, func(i do.Injector) (voiceRepo.Repository, error) {
		return voiceRepo.NewMemoryStorage(), nil
	})
	do.Provide(injector, func(i do.Injector) (timerRepo.Repository, error) {
		return timerRepo.NewMemoryStorage(), nil
	})

	// Register Discord Session. Handlers are attached before the session is opened.
	do.Provide(injector, func(i do.Injector) (*discordgo.Session, error) {
		cfg := do.MustInvoke[*config.Config](i)
		s, err := discordgo.New("Bot " + cfg.Token)
		if err != nil {
			return nil, oops.With("context", "failed to create discord session").Wrap(err)
		}
		s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsGuildMembers
		s.StateEnabled = true
		return s, nil
	})

	// Register Platform Client
	do.Provide(injector, func(i do.Injector) (platform.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		s := do.MustInvoke[*discordgo.Session](i)
		return discordTransport.NewClient(s, cfg.GuildID), nil
	})

	// Register Services
	do.Provide(injector, func(i do.Injector) (*voiceService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[voiceRepo.Repository](i)
		client := do.MustInvoke[platform.Client](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return voiceService.New(cfg, repo, client, m), nil
	})

	do.Provide(injector, func(i do.Injector) (*timerService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[timerRepo.Repository](i)
		client := do.MustInvoke[platform.Client](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return timerService.New(cfg, repo, client, m), nil
	})

	do.Provide(injector, func(i do.Injector) (*userService.Service, error) {
		return userService.New(do.MustInvoke[*config.Config](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		return feedService.New(do.MustInvoke[*timerService.Service](i)), nil
	})

	// Register Discord Handler
	do.Provide(injector, func(i do.Injector) (*discordTransport.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		voice := do.MustInvoke[*voiceService.Service](i)
		timers := do.MustInvoke[*timerService.Service](i)
		users := do.MustInvoke[*userService.Service](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		handler := discordTransport.New(cfg, voice, timers, users, m)
		handler.RegisterHandlers(do.MustInvoke[*discordgo.Session](i))
		return handler, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		voice := do.MustInvoke[*voiceService.Service](i)
		timers := do.MustInvoke[*timerService.Service](i)
		feeds := do.MustInvoke[*feedService.Service](i)
		reg := do.MustInvoke[*prometheus.Registry](i)

		server := httpServer.New(cfg, voice, timers, feeds, reg)
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if s, err := do.Invoke[*discordgo.Session](injector); err == nil && s != nil {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if timers, err := do.Invoke[*timerService.Service](injector); err == nil && timers != nil {
		timers.Stop()
	}

	if voice, err := do.Invoke[*voiceService.Service](injector); err == nil && voice != nil {
		voice.Stop()
	}

	if len(errs) > 0 {
		return oops.With("context", "shutdown").Wrap(errors.Join(errs...))
	}
	return nil
}
