package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"cuentas/internal/config"
	"cuentas/internal/database"
	"cuentas/internal/handlers"
	"cuentas/internal/logger"
	"cuentas/internal/mailer"
	"cuentas/internal/middleware"
	"cuentas/internal/services"
	"cuentas/internal/storage"
	"cuentas/internal/validator"
)

// @title           Cuentas API
// @version         1.0
// @description     Cuentas is a personal finance tracker: record income and expense movements with receipt images, set a monthly base budget, and export monthly Excel reports.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	receiptStore, err := storage.NewReceiptStore(appConfig.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize receipt store: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, receiptStore)
	transactionService := services.NewTransactionService(db, receiptStore)
	budgetService := services.NewBudgetService(db)
	reportService := services.NewReportService(db)

	// Initialize handlers
	smtpMailer := mailer.NewSMTPMailer(appConfig)
	authHandler := handlers.NewAuthHandler(userService, smtpMailer)
	transactionHandler := handlers.NewTransactionHandler(transactionService, budgetService, receiptStore)
	reportHandler := handlers.NewReportHandler(reportService, userService)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "env": os.Getenv("ENV")})
	})

	// Receipt images
	router.Static("/uploads", receiptStore.Dir())

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgotpassword", authHandler.ForgotPassword)
			auth.PUT("/resetpassword/:resettoken", authHandler.ResetPassword)
			auth.DELETE("/me", middleware.AuthMiddleware(), authHandler.DeleteMe)
		}

		protected := api.Group("", middleware.AuthMiddleware())
		{
			transactions := protected.Group("/transactions")
			{
				transactions.GET("", transactionHandler.GetTransactions)
				transactions.POST("", transactionHandler.CreateTransaction)
				transactions.POST("/budget", transactionHandler.SetBudget)
				transactions.PUT("/:id", transactionHandler.UpdateTransaction)
				transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
			}

			protected.GET("/reports/excel", reportHandler.DownloadExcel)
		}
	}

	addr := ":" + appConfig.Port
	log.Infof("Starting server on %s", addr)
	return router.Run(addr)
}
