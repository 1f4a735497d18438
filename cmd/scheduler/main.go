package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/lendex/emi-engine/internal/config"
	"github.com/lendex/emi-engine/internal/notifier"
	"github.com/lendex/emi-engine/internal/repository"
	"github.com/lendex/emi-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	logger.Info("starting reminder scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	emiRepo := repository.NewEMIRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	scheduleService := service.NewScheduleService(loanRepo, emiRepo, service.NewRepositoryGateway(paymentRepo), redisClient, cfg, logger)

	sweeper := notifier.NewSweeper(scheduleService, redisClient, logger)
	sweeper.Subscribe(notifier.NewLogSubscriber(logger))

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatalf("Invalid scheduler timezone: %v", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	_, err = c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := sweeper.Sweep(ctx); err != nil {
			logger.WithError(err).Error("overdue sweep failed")
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule overdue sweep: %v", err)
	}

	c.Start()
	logger.WithField("cron", cfg.Scheduler.ReminderSpec).Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	// Development keeps the readable text formatter.
	if cfg.Logging.Format == "json" && !cfg.IsDevelopment() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
