package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"songforge/internal/adapter/repo"
	"songforge/internal/http/handlers"
	httpapi "songforge/internal/http/httpapi"
	"songforge/internal/infra"
	"songforge/internal/infra/geoip"
	"songforge/internal/lyrics"
	"songforge/internal/middleware"
	"songforge/internal/notify"
	"songforge/internal/orders"
	"songforge/internal/providers/openai"
	"songforge/internal/providers/suno"
	"songforge/internal/songgen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	orderRepo := repo.NewOrderRepository(dbpool)
	lyricsRepo := repo.NewLyricsRepository(dbpool)
	assetRepo := repo.NewAudioAssetRepository(dbpool)
	paymentRepo := repo.NewPaymentRepository(dbpool)
	auditRepo := repo.NewAuditRepository(dbpool)

	openaiClient, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure lyrics provider")
	}

	sunoClient, err := suno.NewClient(suno.Options{
		APIKey:      cfg.SunoAPIKey,
		BaseURL:     cfg.SunoAPIBase,
		Model:       cfg.SunoModel,
		CallbackURL: cfg.CallbackURL(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure audio provider")
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(notify.TelegramOptions{
			Token:   cfg.TelegramBotToken,
			BaseURL: cfg.TelegramAPIBase,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure telegram notifier")
		}
		notifier = tg
	}

	manager := lyrics.NewManager(openaiClient, lyricsRepo, cfg.OpenAIModel, logger)
	machine := orders.NewMachine(orderRepo, auditRepo, logger)
	service := orders.NewService(orderRepo, assetRepo, paymentRepo, machine, manager, logger)

	registry := songgen.NewRegistry()
	reconciler := songgen.NewReconciler(registry, assetRepo, service, notifier, logger)
	dispatcher := songgen.NewDispatcher(sunoClient, registry, assetRepo, reconciler, logger)
	dispatcher.SetPollPolicy(cfg.PollInterval, cfg.PollTimeout)
	defer dispatcher.Close()

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, logger, runner, service, dispatcher, reconciler)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		JWTSecret:       cfg.JWTSecret,
		DefaultLocale:   cfg.DefaultLanguage,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  []string{cfg.PublicBaseURL},
	})
	server := infra.NewHTTPServer(cfg, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}
