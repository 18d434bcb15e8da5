package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/7rockstarmade/LogicModule/internal/api"
	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common/security"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository/memory"
	"github.com/7rockstarmade/LogicModule/internal/platform/config"
	"github.com/7rockstarmade/LogicModule/internal/platform/database"
	"github.com/7rockstarmade/LogicModule/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Storage
	var store *repository.Store
	switch config.AppConfig.StorageDriver {
	case config.StorageMemory:
		store = memory.NewStore()
		log.Println("WARN: Using in-memory storage, data is lost on restart.")
	case config.StoragePostgres:
		database.Connect()
		defer database.Close()
		store = repository.NewPgStore(database.DB)
	default:
		log.Fatalf("Unknown STORAGE_DRIVER %q", config.AppConfig.StorageDriver)
	}

	// 4. Initialize Redis (optional)
	queue.ConnectRedis()
	defer queue.CloseRedis()

	var (
		locker    service.AttemptLocker
		publisher service.NotificationPublisher
	)
	if queue.RDB != nil {
		ttl := time.Duration(config.AppConfig.AttemptLockTTLSeconds) * time.Second
		locker = queue.NewLocker(queue.RDB, config.AppConfig.AttemptLockPrefix, ttl)
		publisher = queue.NewNotificationQueue(queue.RDB, config.AppConfig.NotificationQueueName)
		fmt.Println("Attempt lock and notification queue enabled.")
	}

	// 5. Initialize Services
	notificationService := service.NewNotificationService(store, publisher)
	services := api.Services{
		Users:         service.NewUserService(store),
		Courses:       service.NewCourseService(store, notificationService),
		Tests:         service.NewTestService(store, notificationService),
		Questions:     service.NewQuestionService(store),
		Attempts:      service.NewAttemptService(store, locker),
		Answers:       service.NewAnswerService(store),
		Results:       service.NewResultService(store),
		Notifications: notificationService,
	}

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(services)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.AppConfig.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
