package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vton/internal/catalog"
	"vton/internal/credentials"
	"vton/internal/genai"
	"vton/internal/http/handlers"
	httpapi "vton/internal/http/httpapi"
	"vton/internal/imaging"
	"vton/internal/infra"
	"vton/internal/shop"
	"vton/internal/vton"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	db, err := catalog.Open(cfg.CatalogDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	store, err := catalog.NewStore(db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init catalog")
	}

	creds, err := credentials.NewStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init credential store")
	}
	// Seed from the environment so a configured deployment never blocks on
	// the interactive key prompt.
	if cfg.GeminiAPIKey != "" {
		if existing, err := creds.GeminiAPIKey(ctx); err == nil && existing == "" {
			if err := creds.SetGeminiAPIKey(ctx, cfg.GeminiAPIKey); err != nil {
				logger.Warn().Err(err).Msg("failed to seed gemini api key")
			}
		}
	}
	gate := credentials.NewGate(creds, logger)

	api, err := genai.NewClient(genai.Options{
		Keys:    creds,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	codec := imaging.NewCodec(nil, logger)
	generator := vton.NewClient(api, gate, logger)
	sessions := vton.NewManager(vton.MachineOptions{
		Generator:      generator,
		Encoder:        codec,
		Logger:         logger,
		CloseDelay:     cfg.CloseDelay,
		AutoStartDelay: cfg.AutoStartDelay,
	})

	app := &handlers.App{
		Catalog:         store,
		Cart:            shop.NewCart(),
		Selection:       shop.NewSelection(),
		Sessions:        sessions,
		Credentials:     creds,
		Gate:            gate,
		Codec:           codec,
		DefaultModelURL: cfg.DefaultModelURL,
		Logger:          logger,
	}

	router := httpapi.NewRouter(app, logger, cfg.AllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
