package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargo-recon/internal/config"
	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/service"
	"cargo-recon/internal/staging"
	"cargo-recon/internal/store"
	serverhttp "cargo-recon/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	raw := config.DefaultDictionary()
	if cfg.DictionaryFile != "" {
		d, err := config.LoadDictionary(cfg.DictionaryFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.DictionaryFile).Msg("dictionary")
		}
		raw = d
	}
	dict, err := service.NewDictionary(raw)
	if err != nil {
		logger.Fatal().Err(err).Msg("dictionary")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("store")
	}
	defer st.Close()

	var cache staging.SessionCache
	if cfg.RedisAddr != "" {
		client, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPass)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, sessions kept in memory only")
		} else {
			rc := store.NewRedisSessionCache(client, cfg.SessionTTL)
			defer rc.Close()
			cache = rc
		}
	}

	deps := staging.Deps{
		Engine:        service.NewEngine(dict, service.Options{YieldEvery: cfg.YieldEvery}),
		Resolver:      pricing.NewRateResolver(raw.DiscountKeywords),
		UnitPrice:     cfg.UnitPrice,
		VolumeDivisor: cfg.VolumeDivisor,
	}
	r := serverhttp.NewRouter(cfg, logger, serverhttp.Services{
		Sessions: staging.NewManager(deps, st, cache, logger.With().Str("component", "staging").Logger()),
		Pricing:  pricing.NewService(st, logger.With().Str("component", "pricing").Logger()),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("db", cfg.DBDriver).
		Bool("redis", cache != nil).
		Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("bye")
}
