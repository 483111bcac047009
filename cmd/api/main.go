package main

import (
	"fmt"
	"net/http"
	"os"

	"fundledger/internal/config"
	"fundledger/internal/database"
	"fundledger/internal/handlers"
	"fundledger/internal/logger"
	"fundledger/internal/middleware"
	"fundledger/internal/services"
	"fundledger/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "fundledger/internal/docs" // Import swagger docs
)

// @title           Fund Ledger API
// @version         1.0
// @description     Lot-accounting engine for fund administration: FIFO cost basis and realized gain on disposals, value-preserving rescaling for splits and bonus issues.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a service token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize services. The key lock set is shared: every service that
	// mutates or replays a security key's ledger serializes on it.
	db := dbManager.DB()
	locks := services.NewKeyLocks()
	registryService := services.NewRegistryService(db)
	lotStore := services.NewLotStore()
	rescaler := services.NewRescaler(lotStore)
	costBasisService := services.NewCostBasisService(db, lotStore, locks)
	ledgerService := services.NewLedgerService(db, registryService, lotStore, rescaler, costBasisService, locks)

	// Initialize handlers
	registryHandler := handlers.NewRegistryHandler(registryService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group; every route requires a service token
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	// Registry routes
	v1.POST("/funds", registryHandler.CreateFund)
	v1.GET("/funds", registryHandler.ListFunds)
	v1.GET("/funds/:id/holdings", ledgerHandler.GetFundHoldings)
	v1.POST("/issuers", registryHandler.CreateIssuer)
	v1.GET("/issuers", registryHandler.ListIssuers)
	v1.POST("/issuers/:id/share-classes", registryHandler.CreateShareClass)
	v1.GET("/issuers/:id/share-classes", registryHandler.ListShareClasses)

	// Ledger routes
	ledger := v1.Group("/ledger")
	ledger.POST("/purchases", ledgerHandler.RecordPurchase)
	ledger.GET("/lots", ledgerHandler.ListLots)
	ledger.POST("/disposals", ledgerHandler.RecordDisposal)
	ledger.GET("/disposals", ledgerHandler.ListDisposals)
	ledger.GET("/disposals/:id", ledgerHandler.GetDisposal)
	ledger.POST("/corporate-actions", ledgerHandler.RecordCorporateAction)
	ledger.GET("/corporate-actions", ledgerHandler.ListCorporateActions)
	ledger.POST("/recompute", ledgerHandler.Recompute)

	log.Infof("Starting fund ledger server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
