package main

import (
	"os"

	"ciclo/internal/config"
	"ciclo/internal/infra/db"
	httpapi "ciclo/internal/infra/http"
	"ciclo/internal/infra/memstore"
	"ciclo/internal/infra/ratelimit"
	"ciclo/internal/usecase"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fatalLogger := zerolog.New(os.Stderr)
		fatalLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "ciclo").Logger()

	var (
		store usecase.Store
		audit usecase.AuditRepository
	)
	if cfg.PostgresDSN != "" {
		pg, err := db.NewStore(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init store")
		}
		if err := pg.AutoMigrate(); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate")
		}
		store = pg
		audit = db.NewAuditRepository(pg.DB())
		logger.Info().Msg("using postgres storage")
	} else {
		store = memstore.New()
		audit = memstore.NewAuditLog()
		logger.Warn().Msg("POSTGRES_DSN not set, using in-memory storage")
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" && cfg.RateLimitRequests > 0 {
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init rate limiter")
		}
	}

	ledger := usecase.NewLedger(audit)
	kernel := usecase.NewKernel(store, ledger, usecase.KernelOptions{Logger: &logger})

	srv := httpapi.NewServerWithDeps(cfg, httpapi.ServerDeps{
		Kernel:  kernel,
		Limiter: limiter,
		Logger:  &logger,
	})
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
