package main

import (
	"fmt"
	"net/http"
	"os"

	"budgetly/internal/config"
	"budgetly/internal/database"
	"budgetly/internal/handlers"
	"budgetly/internal/importexport"
	"budgetly/internal/logger"
	"budgetly/internal/middleware"
	"budgetly/internal/services"
	"budgetly/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "budgetly/internal/docs" // Import swagger docs
)

// @title           Budgetly API
// @version         1.0
// @description     Budgetly is a personal budget tracker: categorized income and expense transactions, per-category budgets with progress tracking, spending analytics, and bulk CSV/XLSX import and export.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

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

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db)
	analyticsService := services.NewAnalyticsService(db, budgetService)
	importExportService := importexport.NewService(db, appConfig.Limits)

	// Initialize handlers
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	importExportHandler := handlers.NewImportExportHandler(importExportService, auditService, appConfig.Limits)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	v1.GET("/config/limits", importExportHandler.GetLimits)

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/hierarchy", categoryHandler.GetCategoryHierarchy)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/progress", budgetHandler.GetActiveBudgetsProgress)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Analytics routes
	analytics := v1.Group("/analytics")
	analytics.GET("/summary", analyticsHandler.GetSummary)
	analytics.GET("/alerts", analyticsHandler.GetBudgetAlerts)

	// Bulk import/export routes
	v1.POST("/import", importExportHandler.Import)
	v1.POST("/export", importExportHandler.Export)
	v1.GET("/templates/:type", importExportHandler.GetTemplate)

	log.Infof("Starting Budgetly backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
