package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/trustbank/lending-engine/internal/config"
	"github.com/trustbank/lending-engine/internal/handler"
	"github.com/trustbank/lending-engine/internal/repository"
	"github.com/trustbank/lending-engine/internal/service"
	"github.com/trustbank/lending-engine/pkg/response"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Repositories
	loanRepo := repository.NewLoanRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Services
	loanService := service.NewLoanService(loanRepo, transactionRepo, userRepo, redisClient, cfg)
	transactionService := service.NewTransactionService(transactionRepo)
	overdueService := service.NewOverdueService(loanRepo)
	userService := service.NewUserService(userRepo)
	paymentService := service.NewPaymentService(paymentRepo, userRepo, cfg)

	// Handlers
	loanHandler := handler.NewLoanHandler(loanService, overdueService)
	transactionHandler := handler.NewTransactionHandler(loanService, transactionService)
	userHandler := handler.NewUserHandler(userService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(loanHandler, transactionHandler, userHandler, paymentHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	loanHandler *handler.LoanHandler,
	transactionHandler *handler.TransactionHandler,
	userHandler *handler.UserHandler,
	paymentHandler *handler.PaymentHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware, response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Static loan paths must register before the {id} patterns.
	api.HandleFunc("/loans", loanHandler.Create).Methods("POST")
	api.HandleFunc("/loans", loanHandler.List).Methods("GET")
	api.HandleFunc("/loans/active", loanHandler.ListActive).Methods("GET")
	api.HandleFunc("/loans/active-and-overdue", loanHandler.ListActiveAndOverdue).Methods("GET")
	api.HandleFunc("/loans/overdue", loanHandler.ListOverdue).Methods("GET")
	api.HandleFunc("/loans/overdue/count", loanHandler.OverdueCount).Methods("GET")
	api.HandleFunc("/loans/total-active", loanHandler.TotalActive).Methods("GET")
	api.HandleFunc("/loans/total-remaining", loanHandler.TotalRemaining).Methods("GET")
	api.HandleFunc("/loans/home-stats", loanHandler.HomeStats).Methods("GET")
	api.HandleFunc("/loans/recalculate-balances", loanHandler.RecalculateBalances).Methods("POST")
	api.HandleFunc("/loans/check-overdue", loanHandler.CheckOverdue).Methods("POST")
	api.HandleFunc("/loans/user/{userId}", loanHandler.ListByUser).Methods("GET")
	api.HandleFunc("/loans/user/{userId}/active-and-overdue", loanHandler.ListActiveAndOverdueByUser).Methods("GET")
	api.HandleFunc("/loans/{id}", loanHandler.Get).Methods("GET")
	api.HandleFunc("/loans/{id}", loanHandler.Delete).Methods("DELETE")
	api.HandleFunc("/loans/{id}/status", loanHandler.UpdateStatus).Methods("PUT")
	api.HandleFunc("/loans/{id}/progress", loanHandler.Progress).Methods("GET")

	api.HandleFunc("/transactions", transactionHandler.Create).Methods("POST")
	api.HandleFunc("/transactions", transactionHandler.List).Methods("GET")
	api.HandleFunc("/transactions/by-date-range", transactionHandler.ListByDateRange).Methods("GET")
	api.HandleFunc("/transactions/total-payments", transactionHandler.TotalPayments).Methods("GET")
	api.HandleFunc("/transactions/fix-principal-amounts", transactionHandler.FixPrincipalAmounts).Methods("POST")
	api.HandleFunc("/transactions/loan/{loanId}", transactionHandler.ListByLoan).Methods("GET")
	api.HandleFunc("/transactions/{id}", transactionHandler.Get).Methods("GET")
	api.HandleFunc("/transactions/{id}", transactionHandler.Delete).Methods("DELETE")

	api.HandleFunc("/users", userHandler.Create).Methods("POST")
	api.HandleFunc("/users", userHandler.List).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Get).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Update).Methods("PUT")
	api.HandleFunc("/users/{id}", userHandler.Delete).Methods("DELETE")

	api.HandleFunc("/payments", paymentHandler.Create).Methods("POST")
	api.HandleFunc("/payments", paymentHandler.List).Methods("GET")
	api.HandleFunc("/payments/user/{userId}", paymentHandler.ListByUser).Methods("GET")
	api.HandleFunc("/payments/{id}", paymentHandler.Get).Methods("GET")
	api.HandleFunc("/payments/{id}", paymentHandler.Delete).Methods("DELETE")

	return router
}
