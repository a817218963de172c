package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/justanothervoicechat/server-go/internal/adapters/gamews"
	router "github.com/justanothervoicechat/server-go/internal/adapters/http"
	"github.com/justanothervoicechat/server-go/internal/app"
	"github.com/justanothervoicechat/server-go/internal/config"
	"github.com/justanothervoicechat/server-go/internal/core"
	"github.com/justanothervoicechat/server-go/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	var (
		configEnv = fs.StringP("config-env", "c", "", "config environment (config/config.<env>.yaml)")
		logLevel  = fs.StringP("log-level", "l", "info", "log level")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("failed to parse command line arguments")
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(lvl)

	cfg, err := config.Load(*configEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	serverMode, err := domain.ParseServerMode(cfg.ServerMode)
	if err != nil {
		log.Fatal().Err(err).Msg("bad server mode")
	}

	orch := app.New(app.Config{
		Mode:              serverMode,
		HandshakeBase:     cfg.HandshakeBase,
		DefaultVoiceRange: cfg.DefaultVoiceRange,
		Settings: app.PlaybackSettings{
			DistanceFactor: cfg.DistanceFactor,
			RolloffFactor:  cfg.RolloffFactor,
		},
	})

	// Engine-emitted log events surface through the process logger.
	orch.Bus.Subscribe(core.EventLogMessage, func(ev core.Event) {
		lvl, perr := zerolog.ParseLevel(ev.Level)
		if perr != nil {
			lvl = zerolog.InfoLevel
		}
		log.WithLevel(lvl).Str("module", "engine").Msg(ev.Message)
	})

	ctl := gamews.NewController(orch, cfg.ReadLimit)
	r := router.SetupRouter(ctx, cfg, orch, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	if serverMode == domain.ModeExclusive {
		if err := orch.Start(); err != nil {
			log.Error().Err(err).Msg("engine start")
		}
	}

	go func() {
		log.Info().Str("addr", addr).Str("server_mode", string(serverMode)).Msg("voice server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	if serverMode == domain.ModeExclusive {
		if err := orch.Stop(); err != nil {
			log.Error().Err(err).Msg("engine stop")
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
