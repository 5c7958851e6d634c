package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/pricing"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	var repo store.Repository
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := store.NewStore(cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		repo = pg
		log.Println("Database connected")
	default:
		mem := store.NewMemory()
		if err := store.SeedDemo(context.Background(), mem); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		repo = mem
		log.Println("In-memory storage initialized with demo data")
	}
	defer repo.Close()

	// Redis is optional: without it caching, slug reservation and the
	// live counters are skipped.
	var redisClient *redisclient.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	storeProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore)
	defer storeProducer.Close()
	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer orderProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(storeProducer, orderProducer)

	rates := pricing.Rates{
		TaxRateBps:            cfg.Business.TaxRateBps,
		FlatShippingFee:       cfg.Business.FlatShippingFee,
		FreeShippingThreshold: cfg.Business.FreeShippingThreshold,
	}
	processingDelay := time.Duration(cfg.Business.ProcessingDelayMillis) * time.Millisecond

	onboardingService := service.NewOnboardingService(repo, redisClient, eventPublisher, cfg.Business.LaunchFailureRate)
	catalogService := service.NewCatalogService(repo, redisClient)
	discountService := service.NewDiscountService(repo, redisClient, eventPublisher)
	checkoutService := service.NewCheckoutService(repo, discountService, eventPublisher, rates, cfg.Business.CheckoutFailureRate, processingDelay)
	orderService := service.NewOrderService(repo, eventPublisher)
	analyticsService := service.NewAnalyticsService(repo, redisClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	orderConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	defer orderConsumer.Close()
	analyticsWorker := worker.NewAnalyticsWorker(orderConsumer, redisClient)
	analyticsWorker.Start(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(onboardingService, catalogService, checkoutService, orderService, discountService, analyticsService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	analyticsWorker.Stop()

	log.Println("Server exited")
}
