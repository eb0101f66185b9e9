package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/manishsharma864/ai-horroscope/internal/config"
	"github.com/manishsharma864/ai-horroscope/internal/conversation"
	"github.com/manishsharma864/ai-horroscope/internal/handler"
	"github.com/manishsharma864/ai-horroscope/internal/logger"
	"github.com/manishsharma864/ai-horroscope/internal/service/ai"
	"github.com/manishsharma864/ai-horroscope/internal/service/chat"
	"github.com/manishsharma864/ai-horroscope/internal/service/geo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	geocoder := geo.NewCached(geo.NewNominatim(geo.Config{
		BaseURL:   cfg.Geo.BaseURL,
		UserAgent: cfg.Geo.UserAgent,
		Timeout:   cfg.Geo.Timeout,
	}))

	var generator conversation.TextGenerator
	if cfg.AI.Enabled() {
		generator, err = ai.New(ctx, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize text generator, readings will be unavailable")
			generator = nil
		} else {
			log.Info().Str("provider", cfg.AI.ResolvedProvider()).Msg("text generator initialized")
		}
	} else {
		log.Warn().Msg("LLM credentials not configured, readings will be unavailable")
	}

	engine := conversation.NewEngine(geocoder, generator)
	chatService := chat.NewService(engine, cfg.Auth.Password)

	router := handler.NewRouter(chatService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("horoscope backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
