package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clinic-queue-server/internal/config"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/internal/notifications"
	"clinic-queue-server/internal/queue"
	"clinic-queue-server/internal/reminders"
	"clinic-queue-server/internal/routes"
	"clinic-queue-server/internal/storage"
	"clinic-queue-server/pkg/logging"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Wire the queue engine and its notification pipeline
	var mailer notifications.EmailSender
	if sender := notifications.NewSendGridSender(cfg.Mailer, logger); sender != nil {
		mailer = sender
	} else {
		logger.Warn("SENDGRID_API_KEY not set, email notifications disabled")
	}
	dispatcher := notifications.NewDispatcher(db, mailer, logger)
	queueService := queue.NewService(storage.NewGormStore(db), dispatcher, cfg.Queue, logger)

	// Start the reminder poller
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler := reminders.NewScheduler(db, dispatcher, cfg.Reminder.PollInterval, logger)
	go scheduler.Start(ctx)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes
	routes.SetupRoutes(router, db, cfg, queueService, dispatcher)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
