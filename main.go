// File: guestara/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guestara/config"
	"guestara/database"
	userRepoPkg "guestara/database/repository/user"
	"guestara/handlers"
	"guestara/middleware"
	"guestara/routes"
	"guestara/services/automation"
	"guestara/services/booking"
	"guestara/services/rates"
	"guestara/services/session"
	"guestara/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSMiddleware([]string{"*"}))

	// repositories and stores.
	userRepo := userRepoPkg.NewMongoUserRepo()
	sessionStore := session.NewRedisStore(utils.GetSessionCacheClient(), logger)

	// external collaborators.
	ratesClient := rates.NewAZDSClient(config.AppConfig.AZDSBaseURL, logger)
	automationClient := automation.NewHTTPClient(config.AppConfig.BrowserAutomationURL, logger)

	// services.
	bookingService := booking.NewVoiceBookingService(
		sessionStore,
		ratesClient,
		automationClient,
		config.AppConfig.HotelCode,
		config.AppConfig.HotelName,
		logger,
	)

	// handlers.
	webhookHandler := handlers.NewWebhookHandler(bookingService, logger)
	userHandler := handlers.NewUserHandler(userRepo, logger)

	// Register routes.
	routes.RegisterWebhookRoutes(router, webhookHandler)
	routes.RegisterUserRoutes(router, userHandler)
	routes.RegisterHealthRoutes(router)

	utils.StartHealthMonitor([]*redis.Client{utils.GetSessionCacheClient()}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
