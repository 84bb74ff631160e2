package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/config"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/handlers"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/realtime"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/routes"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Rogerio-auto/livechat-monorepo-sub005/docs"
)

func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// === Store ===
	var (
		taskRepo  repositories.TaskRepository
		inbox     repositories.NotificationRepository
		directory repositories.UserDirectory
	)
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatal("failed to open database: ", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("failed to close database: %v", err)
			}
		}()
		taskRepo = repositories.NewTaskRepository(db)
		inbox = repositories.NewNotificationRepository(db)
		directory = repositories.NewUserDirectory(db)
	} else {
		log.Println("[app] no database url configured, using in-memory store")
		taskRepo = repositories.NewMemoryTaskRepository()
		inbox = repositories.NewMemoryNotificationRepository()
	}

	// === Realtime ===
	hub := realtime.NewHub()

	// === Services ===
	taskService := services.NewTaskService(taskRepo, hub)

	dispatcher := services.NewNotificationDispatcher(directory, hub,
		services.NewInAppChannel(inbox),
		services.NewEmailChannel(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		),
		services.NewWhatsAppChannel(
			cfg.WhatsApp.BaseURL,
			cfg.WhatsApp.Session,
			cfg.WhatsApp.APIKey,
			cfg.WhatsApp.DryRun,
		),
	)

	scheduler := services.NewReminderScheduler(taskRepo, dispatcher, services.SchedulerConfig{
		Interval:     time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		BatchLimit:   cfg.Scheduler.BatchLimit,
		Workers:      cfg.Scheduler.Workers,
		ClaimTimeout: time.Duration(cfg.Scheduler.ClaimTimeoutSeconds) * time.Second,
	})
	if err := scheduler.Start(); err != nil {
		log.Fatal("failed to start reminder scheduler: ", err)
	}
	defer scheduler.Stop()

	// === Handlers ===
	taskHandler := handlers.NewTaskHandler(taskService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, taskHandler, realtimeHandler, []byte(cfg.Auth.JWTSecret))

	// === Run ===
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[app] shutdown error: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
