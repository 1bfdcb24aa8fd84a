package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"team-access-service/internal/config"
	"team-access-service/internal/database/postgres"
	redisdb "team-access-service/internal/database/redis"
	"team-access-service/internal/event"
	"team-access-service/internal/handlers"
	"team-access-service/internal/repository"
	"team-access-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/team-access", "log")
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	var cacheClient *redis.Client
	redisClient, err := redisdb.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		slog.Error("failed to connect to Redis, unread counts will hit the database", "error", err)
	} else {
		defer redisClient.Close()
		cacheClient = redisClient.GetClient()
	}

	var publisher services.PushPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Error("failed to connect to RabbitMQ, push notifications disabled", "error", err)
	} else {
		defer rabbitConn.Close()
		publisher = event.NewNotificationPublisher(rabbitConn)
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	requestRepo := repository.NewAccessRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	resolver := services.NewGroupMembershipResolver()
	auditService := services.NewAuditService(auditRepo)
	notificationService := services.NewNotificationService(notificationRepo, cacheClient, publisher)
	decisionService := services.NewAccessDecisionService(userRepo, resourceRepo, permissionRepo, resolver)
	permissionService := services.NewPermissionService(permissionRepo, userRepo, resourceRepo, auditService)
	resourceService := services.NewResourceService(resourceRepo, userRepo, projectRepo, permissionRepo, resolver, auditService)
	requestService := services.NewAccessRequestService(requestRepo, userRepo, resourceRepo, projectRepo, permissionRepo, notificationService, auditService)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Team access service is healthy")
	})

	handlers.NewAccessRequestHandler(requestService).Register(app)
	handlers.NewPermissionHandler(permissionService, decisionService).Register(app)
	handlers.NewResourceHandler(resourceService).Register(app)
	handlers.NewNotificationHandler(notificationService).Register(app)
	handlers.NewAuditHandler(auditService).Register(app)

	log.Printf("Starting team-access-service on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
