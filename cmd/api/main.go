package main

import (
	"log"

	_ "depot-backend/api/swagger" // swagger docs
	"depot-backend/internal/config"
	"depot-backend/internal/database"
	"depot-backend/internal/handler"
	"depot-backend/internal/mailer"
	"depot-backend/internal/middleware"
	"depot-backend/internal/repository"
	"depot-backend/internal/service"
	"depot-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Depot Management API
// @version         1.0
// @description     Inventory and point-of-sale backend: products, stock entries, sales and staff accounts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	entryRepo := repository.NewStockEntryRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	txManager := repository.NewTransactionManager(db)

	smtpMailer := mailer.NewSMTPMailer(cfg)

	userService := service.NewUserService(userRepo, smtpMailer, cfg)
	inventoryService := service.NewInventoryService(productRepo, entryRepo, saleRepo, txManager, wsHub)

	auth := middleware.NewAuth(cfg.JWTSecret)

	userHandler := handler.NewUserHandler(userService, auth)
	productHandler := handler.NewProductHandler(inventoryService, auth)
	saleHandler := handler.NewSaleHandler(inventoryService, auth)
	stockEntryHandler := handler.NewStockEntryHandler(inventoryService, auth)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))
	stockEntryHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
