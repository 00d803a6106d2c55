package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/trustbank/lending-engine/internal/config"
	"github.com/trustbank/lending-engine/internal/repository"
	"github.com/trustbank/lending-engine/internal/service"
)

func main() {
	log.Println("Starting lending scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	overdueService := service.NewOverdueService(loanRepo)
	paymentService := service.NewPaymentService(paymentRepo, userRepo, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	setupCronJobs(c, cfg, overdueService, paymentService)

	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, overdue *service.OverdueService, payments *service.PaymentService) {
	runSweep := func(label string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		flipped, err := overdue.Sweep(ctx)
		if err != nil {
			log.Printf("%s overdue sweep failed: %v", label, err)
			return
		}
		log.Printf("%s overdue sweep: %d loans marked overdue", label, len(flipped))
	}

	if _, err := c.AddFunc(cfg.Scheduler.OverdueDailySpec, func() { runSweep("daily") }); err != nil {
		log.Printf("Error scheduling daily overdue sweep: %v", err)
	}

	if _, err := c.AddFunc(cfg.Scheduler.OverdueHourlySpec, func() { runSweep("hourly") }); err != nil {
		log.Printf("Error scheduling hourly overdue sweep: %v", err)
	}

	if _, err := c.AddFunc(cfg.Scheduler.CleanupSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		removed, err := payments.DeleteOldRegistered(ctx)
		if err != nil {
			log.Printf("Payment retention cleanup failed: %v", err)
			return
		}
		log.Printf("Payment retention cleanup: %d payments removed", removed)
	}); err != nil {
		log.Printf("Error scheduling payment retention cleanup: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}
