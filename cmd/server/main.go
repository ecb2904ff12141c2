package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/drifthq/driftchat-backend/internal/cache"
	"github.com/drifthq/driftchat-backend/internal/handlers"
	"github.com/drifthq/driftchat-backend/internal/httpx"
	"github.com/drifthq/driftchat-backend/internal/middleware"
	"github.com/drifthq/driftchat-backend/internal/repository"
	"github.com/drifthq/driftchat-backend/internal/service"
	"github.com/drifthq/driftchat-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "Driftchat Backend",
		// Attachment uploads up to 10MB + multipart overhead.
		BodyLimit: 12 * 1024 * 1024,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis is optional; every cache degrades to a miss without it.
	redisCache := cache.NewRedisCacheFromEnv()
	if redisCache != nil {
		if err := redisCache.Ping(); err != nil {
			log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
			redisCache = nil
		} else {
			log.Println("Redis cache connected successfully")
		}
	}
	conversationCache := cache.NewConversationCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	unreadRepo := repository.NewUnreadRepository(db)

	// Services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	conversationService := service.NewConversationService(conversationRepo, messageRepo, unreadRepo)
	messageService := service.NewMessageService(messageRepo, conversationRepo, unreadRepo)

	// S3/MinIO storage (best-effort; attachment endpoints return 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}
	attachmentService := service.NewAttachmentService(conversationRepo, s3Store)

	// Handlers
	wsHandler := handlers.NewWebSocketHandler(messageService, conversationService, userService, presenceCache)
	hub := wsHandler.GetHub()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, presenceCache)
	conversationHandler := handlers.NewConversationHandler(conversationService, conversationCache, hub)
	messageHandler := handlers.NewMessageHandler(messageService, conversationService, conversationCache, hub)
	mediaHandler := handlers.NewMediaHandler(attachmentService, s3Store)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired())
	protected.Get("/auth/me", authHandler.Me)
	protected.Get("/users/search", userHandler.SearchUsers)
	protected.Get("/users/:id", userHandler.GetUser)

	protected.Get("/conversations", conversationHandler.GetConversations)
	protected.Post("/conversations", conversationHandler.CreateDirect)
	protected.Post("/conversations/group", conversationHandler.CreateGroup)
	protected.Get("/conversations/unread/count", conversationHandler.GetUnreadCount)
	protected.Get("/conversations/:id", conversationHandler.GetConversation)
	protected.Get("/conversations/:id/messages", messageHandler.GetMessages)
	protected.Post("/conversations/:id/messages", messageHandler.SendMessage)
	protected.Put("/conversations/:id/seen", messageHandler.MarkSeen)
	protected.Get("/conversations/:id/unread", messageHandler.GetConversationUnread)
	protected.Post(
		"/conversations/:id/attachments",
		limiter.New(limiter.Config{
			Max:        20,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalUint(c, "userID"); err == nil {
					return "attach:" + strconv.FormatUint(uint64(uid), 10)
				}
				return c.IP()
			},
		}),
		mediaHandler.UploadAttachment,
	)
	protected.Get("/media/*", mediaHandler.GetAttachment)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Driftchat is running",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
