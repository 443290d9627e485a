package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "taxi/api/swagger" // swagger docs
	"taxi/internal/database"
	"taxi/internal/engine"
	"taxi/internal/handler"
	"taxi/internal/service"
	"taxi/internal/store"
	"taxi/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           TAXi Property Tax API
// @version         1.0
// @description     Backend for the tax team's property-tax engine: year-versioned rate tables, asset registry, progressive tax calculation and bill reconciliation.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	auditDBPath := os.Getenv("AUDIT_DB_PATH")
	if auditDBPath == "" {
		auditDBPath = filepath.Join(dataDir, "audit.db")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.NewConnection(auditDBPath)
	if err != nil {
		log.Fatalf("Audit database connection failed: %v", err)
	}
	logger.Info("audit database ready", zap.String("path", auditDBPath))

	// Stores load their JSON files on construction, seeding defaults when
	// the files are missing.
	rateStore := store.NewRateStore(filepath.Join(dataDir, "property_tax_rates.json"), logger)
	assetStore := store.NewAssetStore(filepath.Join(dataDir, "property_tax_assets.json"), logger)
	calcStore := store.NewCalculationStore(filepath.Join(dataDir, "property_tax_calculations.json"), logger)
	calculator := engine.NewCalculator(rateStore, assetStore)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Store -> Service -> Handler)
	rateService := service.NewRateService(rateStore, assetStore, calcStore, db, wsHub)
	assetService := service.NewAssetService(assetStore, db, wsHub)
	calcService := service.NewCalculationService(calculator, calcStore, db, wsHub)
	auditService := service.NewAuditService(db)

	// Initialize Handlers
	rateHandler := handler.NewRateHandler(rateService)
	assetHandler := handler.NewAssetHandler(assetService)
	calcHandler := handler.NewCalculationHandler(calcService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		origins = "http://localhost:5173,http://127.0.0.1:5173"
	}
	corsConfig.AllowOrigins = strings.Split(origins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", "X-Actor"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for dashboard push updates
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	rateHandler.RegisterRoutes(router.Group(""))
	assetHandler.RegisterRoutes(router.Group(""))
	calcHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
