package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/api"
	"github.com/RishiKendai/plagiarism-control/internal/auth"
	"github.com/RishiKendai/plagiarism-control/internal/config"
	"github.com/RishiKendai/plagiarism-control/internal/configs/env"
	"github.com/RishiKendai/plagiarism-control/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/plagiarism-control/internal/infra/redis"
	"github.com/RishiKendai/plagiarism-control/internal/logger"
	"github.com/RishiKendai/plagiarism-control/internal/metrics"
	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/notebook"
	"github.com/RishiKendai/plagiarism-control/internal/plagiarism"
	"github.com/RishiKendai/plagiarism-control/internal/repository"
	"github.com/RishiKendai/plagiarism-control/internal/service"
	"github.com/RishiKendai/plagiarism-control/internal/storage"
	"github.com/RishiKendai/plagiarism-control/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log.Info().Msg("Starting plagiarism control server")

	// Initialize Prometheus metrics
	metrics.InitPrometheus()
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := api.StartServer(metricsMux, cfg.MetricsPort, "metrics")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect MongoDB
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	// Initialize MongoDB repositories
	mongoRepo := repository.NewMongoRepository(mongoClient)
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure MongoDB indexes")
	}
	filesRepo := repository.NewFilesRepository(mongoRepo)
	resultsRepo := repository.NewResultsRepository(mongoRepo)
	adminsRepo := repository.NewAdminsRepository(mongoRepo)

	// Notebook blobs
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to initialize storage")
	}
	extractor := notebook.NewExtractor(store)

	// Detection pipeline
	lexicon, err := plagiarism.LookupLexicon(cfg.Language)
	if err != nil {
		log.Fatal().Err(err).Msg("Unsupported language")
	}
	normalizer := plagiarism.NewNormalizer(lexicon, cfg.NormalizeIdentifiers)
	engine := plagiarism.NewEngine(plagiarism.Options{
		Vector: plagiarism.VectorOptions{
			MaxFeatures: cfg.MaxFeatures,
			NGramMax:    plagiarism.DefaultNGramMax,
		},
		Evidence: plagiarism.EvidenceOptions{
			FuzzyCutoff:   cfg.FuzzyCutoff,
			MinLineLength: cfg.MinLineLength,
			MaxMatches:    cfg.MaxLineMatches,
		},
		EvidenceCutoff:       cfg.EvidenceCutoff,
		EvidenceOnDuplicates: cfg.EvidenceOnDuplicates,
	})

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.WorkerPoolSize)
	defer workerPool.Close()

	status := plagiarism.NewStatusTracker(redisClient.Client)
	detector := plagiarism.NewDetector(extractor, normalizer, engine,
		plagiarism.WithPool(workerPool),
		plagiarism.WithProgress(func(ctx context.Context, step models.Step) {
			if err := status.Update(ctx, step); err != nil {
				log.Warn().Err(err).Str("step", string(step)).Msg("Failed to record analysis status")
			}
		}),
	)

	// Services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	uploadSvc := service.NewUploadService(filesRepo, store, cfg.MaxFiles)
	analysisSvc := service.NewAnalysisService(filesRepo, resultsRepo, status, detector, service.AnalysisConfig{
		DefaultThreshold: cfg.DefaultThreshold,
		Timeout:          cfg.AnalysisTimeout,
		MaxConcurrent:    cfg.MaxConcurrentAnalysis,
	})
	compareSvc := service.NewCompareService(filesRepo, extractor)
	accountSvc := service.NewAccountService(adminsRepo, tokens)

	// Initialize Redis stream consumer
	retryHandler := stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey)
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisIngestStream,
		cfg.RedisIngestGroup,
		consumerName,
		stream.NewUploadIngester(uploadSvc),
		retryHandler,
		cfg.StreamRetentionDuration,
	)
	log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer initialized")

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(consumerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Redis consumer error")
		}
	}()
	log.Info().Msg("Redis consumer started")

	handler := api.NewHandler(uploadSvc, analysisSvc, compareSvc, accountSvc)
	router := api.SetupRoutes(cfg, handler, tokens)
	srv := api.StartServer(router, cfg.ServerPort, "api")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, "api", 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}

	consumerCancel()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Redis consumer did not stop in time")
	}

	if err := api.ShutdownServer(metricsServer, "metrics", 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
