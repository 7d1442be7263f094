package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/coursedeck/api/internal/config"
	"github.com/coursedeck/api/internal/extract"
	"github.com/coursedeck/api/internal/handler"
	"github.com/coursedeck/api/internal/middleware"
	"github.com/coursedeck/api/internal/registry"
	"github.com/coursedeck/api/internal/service"
	"github.com/coursedeck/api/internal/worker"
	ws "github.com/coursedeck/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Redis backs the rate limiter only; job state is in-process memory.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis not available, rate limiting disabled: %v", err)
	}

	// WebSocket hub for live job progress
	hub := ws.NewHub()
	go hub.Run()

	// Extraction pipeline: registry, backend chain in priority order, worker
	jobRegistry := registry.New()
	backends := []extract.Backend{
		extract.NewPDFBackend(),
		extract.NewPlainTextBackend(),
		extract.NewRemoteBackend(cfg.Extraction.RemoteURL, cfg.Extraction.RemoteAPIKey),
	}
	extractionWorker := worker.NewExtractionWorker(jobRegistry, backends, hub, cfg.Extraction)
	extractionService := service.NewExtractionService(jobRegistry, extractionWorker, cfg.Extraction)

	extractionHandler := handler.NewExtractionHandler(extractionService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.AdminToken)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Body limit sits above the extraction cap so oversized uploads reach
	// the orchestrator's own size gate and fail as jobs, not as raw 413s.
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(cfg.Extraction.MaxFileSize) + 8*1024*1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Admin-Token",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Extraction routes
	owner := authMiddleware.Authenticate()
	app.Post("/upload", owner, rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), extractionHandler.Upload)
	app.Get("/status/:processId", owner, extractionHandler.Status)
	app.Get("/user-status", owner, extractionHandler.UserStatus)
	app.Get("/result/:processId", owner, extractionHandler.Result)
	app.Post("/cancel/:processId", owner, rateLimiter.CancelLimit(cfg.RateLimit.CancelPerHour), extractionHandler.Cancel)
	app.Get("/stats", authMiddleware.RequireAdmin(), extractionHandler.Stats)

	// WebSocket progress stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:processId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("processId"))
	}))

	// Periodic GC of stale job records
	gcCtx, stopGC := context.WithCancel(context.Background())
	go extractionService.StartGC(gcCtx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		stopGC()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
