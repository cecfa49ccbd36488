package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	database "github.com/sebuszqo/ExpenseFlow/db"
	"github.com/sebuszqo/ExpenseFlow/internal/auth"
	"github.com/sebuszqo/ExpenseFlow/internal/billing"
	emailService "github.com/sebuszqo/ExpenseFlow/internal/email"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/application"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/infrastructure"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/interfaces"
	"github.com/sebuszqo/ExpenseFlow/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errorList ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errorList) > 0 && len(errorList[0]) > 0 {
		payload["errors"] = errorList[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router          *http.ServeMux
	dbService       *database.DBService
	authHandler     *auth.Handler
	authService     auth.Service
	userHandler     *user.Handler
	categoryHandler *interfaces.CategoryHandler
	expenseHandler  *interfaces.ExpenseHandler
	budgetHandler   *interfaces.BudgetHandler
	savingsHandler  *interfaces.SavingsHandler
	billingHandler  *billing.Handler
	webhookHandler  *billing.WebhookHandler
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	for _, key := range []string{
		"JWT_SECRET",
		"DB_CONNECTION_STRING",
		"STRIPE_SECRET_KEY",
		"STRIPE_WEBHOOK_SECRET",
		"STRIPE_PRICE_ID",
	} {
		if os.Getenv(key) == "" {
			return errors.New("no " + key + " provided")
		}
	}
	return nil
}

func billingConfigFromEnv() billing.Config {
	freeClickLimit := 100
	if raw := os.Getenv("FREE_CLICK_LIMIT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			log.Fatalf("FREE_CLICK_LIMIT must be a non-negative integer, got %q", raw)
		}
		freeClickLimit = parsed
	}

	return billing.Config{
		SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PriceID:        os.Getenv("STRIPE_PRICE_ID"),
		PlanName:       "ExpenseFlow Premium",
		SuccessURL:     os.Getenv("BILLING_SUCCESS_URL"),
		CancelURL:      os.Getenv("BILLING_CANCEL_URL"),
		FreeClickLimit: freeClickLimit,
	}
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.dbService.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, stats)
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.userHandler.HandleRegister))
	publicRoutes.Handle("POST /api/email/verify", http.HandlerFunc(s.userHandler.HandleVerifyEmail))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("POST /api/auth/2fa/verify", http.HandlerFunc(s.authHandler.HandleVerifyTwoFactor))
	publicRoutes.Handle("POST /api/auth/logout", http.HandlerFunc(s.authHandler.HandleLogout))
	publicRoutes.Handle("POST /api/webhooks/stripe", http.HandlerFunc(s.webhookHandler.HandleWebhook))
	publicRoutes.Handle("GET /api/billing/config", http.HandlerFunc(s.billingHandler.GetConfig))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	publicRoutes.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))

	// Protected routes (using JWT Access Token Middleware)
	protected := func(h http.HandlerFunc) http.Handler {
		return s.authService.JWTAccessTokenMiddleware()(h)
	}

	protectedRoutes := http.NewServeMux()
	protectedRoutes.Handle("GET /api/protected/profile", protected(s.userHandler.HandleGetProfile))
	protectedRoutes.Handle("POST /api/protected/change-password", protected(s.userHandler.HandleChangePassword))

	protectedRoutes.Handle("POST /api/protected/2fa/enable", protected(s.authHandler.HandleEnableTwoFactor))
	protectedRoutes.Handle("POST /api/protected/2fa/confirm", protected(s.authHandler.HandleConfirmTwoFactor))
	protectedRoutes.Handle("DELETE /api/protected/2fa/disable", protected(s.authHandler.HandleDisableTwoFactor))

	// CATEGORIES API
	protectedRoutes.Handle("GET /api/protected/categories", protected(s.categoryHandler.GetCategories))
	protectedRoutes.Handle("POST /api/protected/categories", protected(s.categoryHandler.CreateCategory))
	protectedRoutes.Handle("PUT /api/protected/categories/{categoryID}", protected(s.categoryHandler.UpdateCategory))
	protectedRoutes.Handle("DELETE /api/protected/categories/{categoryID}", protected(s.categoryHandler.DeleteCategory))

	// EXPENSES API
	protectedRoutes.Handle("GET /api/protected/expenses", protected(s.expenseHandler.GetExpenses))
	protectedRoutes.Handle("POST /api/protected/expenses", protected(s.expenseHandler.CreateExpense))
	protectedRoutes.Handle("PUT /api/protected/expenses/{expenseID}", protected(s.expenseHandler.UpdateExpense))
	protectedRoutes.Handle("DELETE /api/protected/expenses/{expenseID}", protected(s.expenseHandler.DeleteExpense))
	protectedRoutes.Handle("GET /api/protected/expenses/summary", protected(s.expenseHandler.GetMonthlySummary))

	// BUDGETS API
	protectedRoutes.Handle("GET /api/protected/budgets", protected(s.budgetHandler.GetBudget))
	protectedRoutes.Handle("PUT /api/protected/budgets", protected(s.budgetHandler.SetBudget))
	protectedRoutes.Handle("GET /api/protected/budgets/history", protected(s.budgetHandler.GetBudgetHistory))
	protectedRoutes.Handle("GET /api/protected/category-budgets", protected(s.budgetHandler.GetCategoryBudgets))
	protectedRoutes.Handle("PUT /api/protected/category-budgets", protected(s.budgetHandler.SetCategoryBudget))
	protectedRoutes.Handle("DELETE /api/protected/category-budgets/{categoryBudgetID}", protected(s.budgetHandler.DeleteCategoryBudget))

	// SAVING GOALS API
	protectedRoutes.Handle("GET /api/protected/savings/goals", protected(s.savingsHandler.GetGoals))
	protectedRoutes.Handle("POST /api/protected/savings/goals", protected(s.savingsHandler.CreateGoal))
	protectedRoutes.Handle("PUT /api/protected/savings/goals/{goalID}", protected(s.savingsHandler.UpdateGoal))
	protectedRoutes.Handle("DELETE /api/protected/savings/goals/{goalID}", protected(s.savingsHandler.DeleteGoal))
	protectedRoutes.Handle("POST /api/protected/savings/goals/{goalID}/reverse", protected(s.savingsHandler.ReverseContributions))
	protectedRoutes.Handle("PUT /api/protected/savings/goals/{goalID}/achieved", protected(s.savingsHandler.SetAchieved))
	protectedRoutes.Handle("POST /api/protected/savings/distribute", protected(s.savingsHandler.Distribute))
	protectedRoutes.Handle("GET /api/protected/savings/recovered", protected(s.savingsHandler.GetRecovered))
	protectedRoutes.Handle("GET /api/protected/savings/distributed", protected(s.savingsHandler.GetDistributed))

	// BILLING API
	protectedRoutes.Handle("POST /api/protected/billing/checkout-session", protected(s.billingHandler.CreateCheckoutSession))
	protectedRoutes.Handle("GET /api/protected/billing/subscription", protected(s.billingHandler.GetSubscription))
	protectedRoutes.Handle("GET /api/protected/billing/history", protected(s.billingHandler.GetPaymentHistory))
	protectedRoutes.Handle("POST /api/protected/usage/click", protected(s.billingHandler.RegisterClick))

	// Refresh token routes
	refreshTokenRoutes := http.NewServeMux()
	refreshTokenRoutes.Handle("PUT /api/refresh/token", s.authService.JWTRefreshTokenMiddleware()(http.HandlerFunc(s.authHandler.HandleRefreshToken)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/api/refresh/", refreshTokenRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server: %v", err)
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	if err := dbService.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Could not apply database schema: %v", err)
	}

	newEmailService := emailService.NewEmailService()

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo, newEmailService)
	userHandler := user.NewHandler(userService)

	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)
	categoryService := application.NewCategoryService(categoryRepo)
	categoryHandler := interfaces.NewCategoryHandler(categoryService, respondJSON, respondError)

	budgetRepo := infrastructure.NewBudgetRepository(dbService.DB)
	budgetService := application.NewBudgetService(budgetRepo, categoryService)
	budgetHandler := interfaces.NewBudgetHandler(budgetService, respondJSON, respondError)

	expenseRepo := infrastructure.NewExpenseRepository(dbService.DB)
	expenseService := application.NewExpenseService(expenseRepo, categoryService, budgetService)
	expenseHandler := interfaces.NewExpenseHandler(expenseService, respondJSON, respondError)

	savingGoalRepo := infrastructure.NewSavingGoalRepository(dbService.DB)
	savingsLedger := application.NewSavingsLedger()
	savingsService := application.NewSavingsService(savingGoalRepo, savingsLedger)
	savingsHandler := interfaces.NewSavingsHandler(savingsService, respondJSON, respondError)

	sessionManager := auth.NewSessionManager()
	sessionManager.StartSessionTokenCleanup(time.Minute)
	jwtManager := auth.NewJWTManager()
	authenticator := auth.Authenticator{}

	authService := auth.NewAuthService(userService, sessionManager, jwtManager, authenticator, categoryService)
	authHandler := auth.NewHandler(authService)

	billingConfig := billingConfigFromEnv()
	billingRepo := billing.NewRepository(dbService.DB)
	billingService := billing.NewService(billingRepo, userService, newEmailService, billingConfig)
	if err := billingService.SyncAPIKeys(context.Background()); err != nil {
		log.Fatalf("Error syncing payment api keys: %v", err)
	}
	billingHandler := billing.NewHandler(billingService, respondJSON, respondError)
	webhookHandler := billing.NewWebhookHandler(billingService, billingConfig.WebhookSecret)

	server := &Server{
		router:          http.NewServeMux(),
		dbService:       dbService,
		authHandler:     authHandler,
		authService:     authService,
		userHandler:     userHandler,
		categoryHandler: categoryHandler,
		expenseHandler:  expenseHandler,
		budgetHandler:   budgetHandler,
		savingsHandler:  savingsHandler,
		billingHandler:  billingHandler,
		webhookHandler:  webhookHandler,
	}
	server.RegisterRoutes()

	if err := StartSubscriptionSweep(billingService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(http.HandlerFunc(server.router.ServeHTTP))
	log.Println("Starting perf on port 6060...")
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// StartSubscriptionSweep marks overdue subscriptions expired once a day so
// the click gate stops honoring them.
func StartSubscriptionSweep(billingService billing.Service) error {
	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		expired, err := billingService.ExpireOverdueSubscriptions(context.Background())
		if err != nil {
			log.Printf("Error expiring overdue subscriptions: %v", err)
		} else if expired > 0 {
			log.Printf("Marked %d subscriptions expired", expired)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
