package main

import (
	"context"
	"errors"
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
	"github.com/sirupsen/logrus"

	"github.com/lendex/emi-engine/internal/client"
	"github.com/lendex/emi-engine/internal/config"
	"github.com/lendex/emi-engine/internal/handler"
	"github.com/lendex/emi-engine/internal/recorder"
	"github.com/lendex/emi-engine/internal/repository"
	"github.com/lendex/emi-engine/internal/service"
	"github.com/lendex/emi-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	db, err := initDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	emiRepo := repository.NewEMIRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	var gateway recorder.Gateway = service.NewRepositoryGateway(paymentRepo)
	if cfg.Payments.APIURL != "" {
		logger.WithField("url", cfg.Payments.APIURL).Info("using remote payments API")
		gateway = client.NewPaymentsClient(cfg.Payments.APIURL, cfg.Payments.APITimeout)
	}

	scheduleService := service.NewScheduleService(loanRepo, emiRepo, gateway, redisClient, cfg, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(scheduleHandler, healthHandler, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight background reconciliations land before exiting.
	scheduleService.Recorder().Wait()

	logger.Info("server exited")
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

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(scheduleHandler *handler.ScheduleHandler, healthHandler *handler.HealthHandler, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware)
	router.Use(response.LoggingMiddleware(logger))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/reminders", scheduleHandler.Reminders).Methods("GET")

	obligations := api.PathPrefix("/{kind:loans|emis}/{id}").Subrouter()
	obligations.HandleFunc("/schedule", scheduleHandler.GetSchedule).Methods("GET")
	obligations.HandleFunc("/outstanding", scheduleHandler.GetOutstanding).Methods("GET")
	obligations.HandleFunc("/schedule/full", scheduleHandler.RecordFullPayment).Methods("POST")
	obligations.HandleFunc("/schedule/partial", scheduleHandler.RecordPartialPayment).Methods("POST")
	obligations.HandleFunc("/payments", scheduleHandler.ListPayments).Methods("GET")
	obligations.HandleFunc("/payments", scheduleHandler.CreatePayment).Methods("POST")

	return router
}
