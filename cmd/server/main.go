// @title           Grapelock Mint Orchestrator API
// @version         1.0.0
// @description     Backend API for asynchronous NFT collection creation and asset minting. Handles job orchestration, checkpoint caching, marketplace settlement, and physical tag verification with real-time status updates via Supabase Realtime.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pyronlaboratory/grapelock-sub001/docs"
	"github.com/pyronlaboratory/grapelock-sub001/internal/chain"
	"github.com/pyronlaboratory/grapelock-sub001/internal/config"
	"github.com/pyronlaboratory/grapelock-sub001/internal/database"
	"github.com/pyronlaboratory/grapelock-sub001/internal/handlers"
	"github.com/pyronlaboratory/grapelock-sub001/internal/middleware"
	"github.com/pyronlaboratory/grapelock-sub001/internal/processors"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
	"github.com/pyronlaboratory/grapelock-sub001/internal/realtime"
	"github.com/pyronlaboratory/grapelock-sub001/internal/services"
	"github.com/pyronlaboratory/grapelock-sub001/internal/storage"
	"github.com/pyronlaboratory/grapelock-sub001/internal/store"
	"github.com/pyronlaboratory/grapelock-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	supabase "github.com/supabase-community/supabase-go"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required: set it to your Supabase PostgreSQL connection string")
	}

	// Run migrations
	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	// Entity store
	storeClient, err := store.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer storeClient.Close()

	// Chain gateway and checkpoint cache
	chainClient := chain.NewClient(cfg.ChainRPCURL, cfg.ChainAPIKey)
	checkpoints := chain.NewCheckpointCache(cfg.CheckpointCacheTTL, chainClient.GetLatestCheckpoint, nil)

	// Supabase clients
	storageClient, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}
	realtimeClient := realtime.NewClient(supabaseClient)

	// Job queue and workers
	jobQueue := queue.NewPostgresQueue(storeClient.DB())

	registry := worker.NewRegistry()
	if err := registry.Register(processors.NewCollectionCreationProcessor(
		storeClient, storageClient, chainClient, checkpoints, realtimeClient)); err != nil {
		log.Fatalf("Failed to register collection processor: %v", err)
	}
	if err := registry.Register(processors.NewAssetMintProcessor(
		storeClient, storageClient, chainClient, checkpoints, realtimeClient)); err != nil {
		log.Fatalf("Failed to register mint processor: %v", err)
	}

	pool := worker.NewPool(jobQueue, registry,
		worker.WithConcurrency(cfg.WorkerConcurrency),
		worker.WithPollInterval(cfg.WorkerPollEvery),
		worker.WithRequiredKinds(queue.Kinds()...),
	)
	if err := pool.Start(); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Services
	settlement := services.NewSettlement(storeClient, realtimeClient)
	verification, err := services.NewVerification(storeClient, cfg.AuditSigningKey, realtimeClient)
	if err != nil {
		log.Fatalf("Failed to initialize verification service: %v", err)
	}
	resolver := services.NewJobStatusResolver(jobQueue, storeClient)

	// Handlers
	collectionsHandler := handlers.NewCollectionsHandler(storeClient, jobQueue, cfg.JobMaxAttempts)
	nftsHandler := handlers.NewNFTsHandler(storeClient, jobQueue, cfg.JobMaxAttempts)
	offersHandler := handlers.NewOffersHandler(storeClient)
	ordersHandler := handlers.NewOrdersHandler(storeClient, settlement)
	jobsHandler := handlers.NewJobsHandler(resolver)
	verificationHandler := handlers.NewVerificationHandler(verification)

	// Setup router
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Collections
	api.POST("/collections", collectionsHandler.Create)
	api.GET("/collections", collectionsHandler.List)
	api.GET("/collections/:collection_id", collectionsHandler.Get)
	api.POST("/collections/:collection_id/archive", collectionsHandler.Archive)

	// NFTs
	api.POST("/nfts", nftsHandler.Mint)
	api.GET("/nfts", nftsHandler.List)
	api.GET("/nfts/:nft_id", nftsHandler.Get)
	api.POST("/nfts/:nft_id/link", nftsHandler.Link)
	api.PATCH("/nfts/:nft_id/status", nftsHandler.UpdateStatus)

	// Marketplace
	api.POST("/offers", offersHandler.Create)
	api.GET("/offers", offersHandler.List)
	api.GET("/offers/:offer_id", offersHandler.Get)
	api.POST("/orders", ordersHandler.Create)
	api.GET("/orders", ordersHandler.List)
	api.GET("/orders/:order_id", ordersHandler.Get)
	api.PATCH("/orders/:order_id/status", ordersHandler.UpdateStatus)
	api.POST("/orders/:order_id/confirm", ordersHandler.Confirm)

	// Jobs and verification
	api.GET("/jobs/:job_id", jobsHandler.GetStatus)
	api.POST("/verifications", verificationHandler.Register)
	api.GET("/tags/:chip_id", verificationHandler.GetTag)
	api.POST("/tags/:chip_id/tamper", verificationHandler.ReportTamper)
	api.POST("/tags/:chip_id/deactivate", verificationHandler.Deactivate)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Drain workers and in-flight requests on shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	pool.Stop(ctx)
}
