package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"taskhub/configs"
	v1 "taskhub/internal/api/v1"
	"taskhub/internal/api/v1/handlers"
	"taskhub/internal/auth"
	"taskhub/internal/cache"
	"taskhub/internal/middleware"
	"taskhub/internal/repository"
	myws "taskhub/internal/websocket"
	"taskhub/pkg/database"
	"taskhub/pkg/logger"
)

func main() {
	// Load config sekali di awal; seluruh komponen menerima nilai ini
	// secara eksplisit
	cfg := configs.LoadConfig()

	// Inisialisasi logger
	logger.InitLoggers(cfg.LogDir)
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Inisialisasi database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.SystemLogger.Info("Database Connected")

	// Buat tabel jika belum ada
	if err := repository.CreateTableIfNotExists(db); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Inisialisasi Redis
	redisClient, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// Token issuer; gagal kalau secret tidak di-set
	issuer, err := auth.NewTokenIssuer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	// WebSocket hub untuk event task per user
	hub := myws.NewHub()
	go hub.Run()

	validate := validator.New()
	userRepo := repository.NewUserRepo(db)
	taskRepo := repository.NewTaskRepo(db)
	taskCache := cache.NewTaskCache(redisClient)

	deps := v1.Deps{
		Auth:   handlers.NewAuthHandler(userRepo, issuer, validate, cfg.BcryptCost),
		Task:   handlers.NewTaskHandler(taskRepo, taskCache, hub, validate),
		User:   handlers.NewUserHandler(userRepo),
		Issuer: issuer,
		Hub:    hub,
	}

	app := fiber.New()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Daftarkan route API v1
	v1.RegisterRoutes(app, deps)

	logger.SystemLogger.Info("Application ready", zap.Int("port", cfg.AppPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.AppPort)); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
		log.Fatalf("Application failed to start: %v", err)
	}
}
