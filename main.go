package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/optimoney/backend/src/config"
	"github.com/username/optimoney/backend/src/handlers"
	"github.com/username/optimoney/backend/src/identity"
	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/security"
	"github.com/username/optimoney/backend/src/services"
	"github.com/username/optimoney/backend/src/storage"
)

const version = "1.0.0"

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("OptiMoney backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Connecting to Supabase...", "url", config.Cfg.SupabaseURL)
	supabaseClient, err := storage.NewSupabaseClient(config.Cfg.SupabaseURL, config.Cfg.SupabaseKey)
	if err != nil {
		logger.L.Error("Failed to create Supabase client", "error", err)
		os.Exit(1)
	}
	stores := supabaseClient.Stores()

	provider := identity.NewGoTrueProvider(config.Cfg.SupabaseProjectRef, config.Cfg.SupabaseKey, config.Cfg.SupabaseURL)

	allowDevTokens := !config.Cfg.IsProduction()
	if allowDevTokens {
		logger.L.Warn("Dev tokens are enabled", "environment", config.Cfg.Environment)
	}
	tokenService := security.NewTokenService(config.Cfg.JWTSecret, config.Cfg.TokenExpiry, allowDevTokens)

	logger.L.Info("Initializing analysis cache...")
	analysisCache := cache.New(config.Cfg.AnalysisCacheTTL, 2*config.Cfg.AnalysisCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	emailService := services.NewEmailService()
	analysisService := services.NewAnalysisService(stores.Transactions, stores.Categories, stores.Budgets, analysisCache)
	recommendationService := services.NewRecommendationService(stores.Recommendations, analysisService)
	alertService := services.NewAlertService(stores.Users, stores.Budgets, stores.Categories, stores.Transactions, emailService)

	authMiddleware := handlers.NewAuthMiddleware(provider, tokenService, stores.Users)
	authHandler := handlers.NewAuthHandler(provider, tokenService, stores.Users, emailService)
	categoryHandler := handlers.NewCategoryHandler(stores.Categories)
	transactionHandler := handlers.NewTransactionHandler(stores.Transactions, stores.Categories, stores.Users, analysisService, alertService)
	budgetHandler := handlers.NewBudgetHandler(stores.Budgets, stores.Categories, analysisService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	healthHandler := handlers.NewHealthHandler(supabaseClient, version)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public routes
	apiRouter.HandleFunc("GET /api/ping", healthHandler.PingHandler)
	apiRouter.HandleFunc("GET /api/health", healthHandler.HealthHandler)
	apiRouter.HandleFunc("POST /api/auth/register", authHandler.RegisterHandler)
	apiRouter.HandleFunc("POST /api/auth/login", authHandler.LoginHandler)

	requireAuth := func(handler http.HandlerFunc) http.Handler {
		return authMiddleware.Require(handler)
	}

	apiRouter.Handle("GET /api/auth/profile", requireAuth(authHandler.GetProfileHandler))
	apiRouter.Handle("PUT /api/auth/profile", requireAuth(authHandler.UpdateProfileHandler))
	apiRouter.Handle("POST /api/auth/change-password", requireAuth(authHandler.ChangePasswordHandler))
	apiRouter.Handle("GET /api/auth/verify", requireAuth(authHandler.VerifyHandler))

	apiRouter.Handle("GET /api/categories", requireAuth(categoryHandler.ListHandler))
	apiRouter.Handle("POST /api/categories", requireAuth(categoryHandler.CreateHandler))
	apiRouter.Handle("PUT /api/categories/{id}", requireAuth(categoryHandler.UpdateHandler))
	apiRouter.Handle("DELETE /api/categories/{id}", requireAuth(categoryHandler.DeleteHandler))
	apiRouter.Handle("POST /api/categories/initialize-defaults", requireAuth(categoryHandler.InitializeDefaultsHandler))

	apiRouter.Handle("GET /api/transactions", requireAuth(transactionHandler.ListHandler))
	apiRouter.Handle("POST /api/transactions", requireAuth(transactionHandler.CreateHandler))
	apiRouter.Handle("GET /api/transactions/{id}", requireAuth(transactionHandler.GetHandler))
	apiRouter.Handle("PUT /api/transactions/{id}", requireAuth(transactionHandler.UpdateHandler))
	apiRouter.Handle("DELETE /api/transactions/{id}", requireAuth(transactionHandler.DeleteHandler))

	apiRouter.Handle("GET /api/budgets", requireAuth(budgetHandler.ListHandler))
	apiRouter.Handle("POST /api/budgets", requireAuth(budgetHandler.CreateHandler))
	apiRouter.Handle("GET /api/budgets/{id}", requireAuth(budgetHandler.GetHandler))
	apiRouter.Handle("PUT /api/budgets/{id}", requireAuth(budgetHandler.UpdateHandler))
	apiRouter.Handle("DELETE /api/budgets/{id}", requireAuth(budgetHandler.DeleteHandler))
	apiRouter.Handle("GET /api/budgets/summary", requireAuth(budgetHandler.SummaryHandler))

	apiRouter.Handle("GET /api/analysis/overview", requireAuth(analysisHandler.OverviewHandler))
	apiRouter.Handle("GET /api/analysis/expenses", requireAuth(analysisHandler.ExpensesHandler))
	apiRouter.Handle("GET /api/analysis/income-expense-ratio", requireAuth(analysisHandler.RatioHandler))
	apiRouter.Handle("GET /api/analysis/savings-potential", requireAuth(analysisHandler.SavingsPotentialHandler))
	apiRouter.Handle("GET /api/analysis/category-trends/{id}", requireAuth(analysisHandler.CategoryTrendsHandler))

	apiRouter.Handle("GET /api/recommendations", requireAuth(recommendationHandler.ListHandler))
	apiRouter.Handle("POST /api/recommendations/generate", requireAuth(recommendationHandler.GenerateHandler))
	apiRouter.Handle("POST /api/recommendations/{id}/shown", requireAuth(recommendationHandler.MarkShownHandler))
	apiRouter.Handle("POST /api/recommendations/{id}/interaction", requireAuth(recommendationHandler.InteractionHandler))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "OptiMoney Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
