// Package router assembles the HTTP API from services.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "financehub/internal/docs" // registers the swagger spec
	"financehub/internal/events"
	"financehub/internal/handlers"
	"financehub/internal/middleware"
	"financehub/internal/reconcile"
	"financehub/internal/services"
)

// Services is the set of business services the API is built from.
type Services struct {
	Users        services.UserServicer
	Accounts     services.AccountServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Budgets      services.BudgetServicer
	Projects     services.ProjectServicer
	Investments  services.InvestmentServicer
	Analytics    services.AnalyticsServicer
	Audit        services.AuditServicer
	Reconciler   handlers.ReconcileRunner
}

// NewServices wires every service over db. Ledger events go to publisher.
func NewServices(db *gorm.DB, publisher events.Publisher) Services {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	accountService := services.NewAccountService(db)
	budgetService := services.NewBudgetService(db)
	return Services{
		Users:        services.NewUserService(db),
		Accounts:     accountService,
		Categories:   services.NewCategoryService(db),
		Transactions: services.NewTransactionService(db, accountService, budgetService, publisher),
		Budgets:      budgetService,
		Projects:     services.NewProjectService(db),
		Investments:  services.NewInvestmentService(db, accountService, publisher),
		Analytics:    services.NewAnalyticsService(db),
		Audit:        services.NewAuditService(db),
		Reconciler:   reconcile.New(db),
	}
}

// Options holds router settings that do not come from services.
type Options struct {
	// InternalAPIKey guards /internal routes. Empty disables them.
	InternalAPIKey       string
	ReconcileConcurrency int
	// RequestLogging enables the per-request access log.
	RequestLogging bool
}

// New builds the gin engine with every route mounted.
func New(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	projectHandler := handlers.NewProjectHandler(svc.Projects, svc.Audit)
	investmentHandler := handlers.NewInvestmentHandler(svc.Investments, svc.Audit)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	reconcileHandler := handlers.NewReconcileHandler(svc.Reconciler, opts.ReconcileConcurrency)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	internal := v1.Group("/internal")
	internal.Use(middleware.InternalAPIKeyMiddleware(opts.InternalAPIKey))
	internal.POST("/reconcile", reconcileHandler.Reconcile)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/total-balance", accountHandler.GetTotalBalance)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeactivateAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/active", budgetHandler.GetActiveBudgets)
	budgets.GET("/alerts", budgetHandler.GetBudgetAlerts)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.GetActiveProjects)
	projects.GET("/mine", projectHandler.GetMyProjects)
	projects.GET("/:id", projectHandler.GetProject)

	investments := protected.Group("/investments")
	investments.POST("", investmentHandler.Invest)
	investments.GET("", investmentHandler.GetUserInvestments)
	investments.GET("/total", investmentHandler.GetTotalInvested)
	investments.GET("/:id", investmentHandler.GetInvestmentByID)

	analytics := protected.Group("/analytics")
	analytics.GET("/summary", analyticsHandler.GetFinancialSummary)
	analytics.GET("/categories", analyticsHandler.GetExpensesByCategory)
	analytics.GET("/trends", analyticsHandler.GetMonthlyTrends)
	analytics.GET("/cashflow", analyticsHandler.GetCashFlow)
	analytics.GET("/dashboard", analyticsHandler.GetDashboard)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
