package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/config"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/db"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/handler"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/router"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "rabbithole-scoring")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	thresholds, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ThresholdsFile).Msg("thresholds load failed")
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	handler.InitMetrics(pool)
	service.RegisterMetrics()

	// Repositories
	scoreRepo := repository.NewScoreRepo(pool)
	evidenceRepo := repository.NewEvidenceRepo(pool)
	challengeRepo := repository.NewChallengeRepo(pool)
	voteRepo := repository.NewVoteRepo(pool)
	reputationRepo := repository.NewReputationRepo(pool)
	promotionRepo := repository.NewPromotionRepo(pool)

	// Scoring services
	weightSvc := service.NewWeightService()
	consensusSvc := service.NewConsensusService()
	credibilitySvc := service.NewCredibilityService()
	reputationSvc := service.NewReputationService()

	veracitySvc := service.NewVeracityService(scoreRepo, evidenceRepo, weightSvc, consensusSvc, credibilitySvc, cache)
	promotionSvc := service.NewPromotionService(promotionRepo, scoreRepo, voteRepo, evidenceRepo,
		weightSvc, cfg.PromotionThreshold, cache)

	evidenceSvc := service.NewEvidenceService(evidenceRepo, cache)
	challengeSvc := service.NewChallengeService(challengeRepo, cache, thresholds)
	voteSvc := service.NewVoteService(voteRepo, cache)

	// Background workers
	recomputeWorker := service.NewRecomputeWorker(pool, veracitySvc, promotionSvc)
	reputationWorker := service.NewReputationWorker(reputationRepo, evidenceRepo, voteRepo,
		challengeRepo, reputationSvc, recomputeWorker, cfg.ReputationEpoch)

	go recomputeWorker.Start(ctx)
	go reputationWorker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName: "Rabbithole Scoring API",
	})

	handlers := &router.Handlers{
		Score:       handler.NewScoreHandler(veracitySvc, cache),
		Evidence:    handler.NewEvidenceHandler(evidenceSvc),
		Challenge:   handler.NewChallengeHandler(challengeSvc),
		Vote:        handler.NewVoteHandler(voteSvc),
		Methodology: handler.NewMethodologyHandler(promotionSvc),
		Eligibility: handler.NewEligibilityHandler(promotionSvc, cache),
		Reputation:  handler.NewReputationHandler(reputationRepo, reputationWorker),
		Stats:       handler.NewStatsHandler(scoreRepo),
		Health:      handler.NewHealthHandler(pool, cache.Client(), recomputeWorker),
	}
	router.Setup(app, handlers, cfg.CORSOrigins)

	// Graceful shutdown: stop accepting requests, then cancel the workers so
	// the recompute worker gets its final flush.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info().Msg("shutdown signal received")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		cancel()
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("scoring engine starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}

	// Give the workers a moment to drain after Listen returns.
	time.Sleep(500 * time.Millisecond)
	log.Info().Msg("scoring engine stopped")
}
