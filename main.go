package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parcelio/config"
	"parcelio/handlers"
	"parcelio/middleware"
	"parcelio/routes"
	"parcelio/services/booking"
	"parcelio/services/payment"
	"parcelio/services/tasks"
	"parcelio/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitDraftCache()
	utils.StartHealthMonitor(utils.GetDraftCacheClient())

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// External collaborators.
	gateway := payment.NewHTTPGateway(logger)
	bookingAPI := booking.NewHTTPBookingAPI(logger)
	reconciler := tasks.NewAsynqEnqueuer(logger)
	defer reconciler.Close()

	// Services.
	draftStore := booking.NewRedisDraftStore(utils.GetDraftCacheClient())
	draftService := &booking.DefaultDraftService{
		Drafts: draftStore,
		Logger: logger,
	}
	coordinator := booking.NewCoordinator(
		gateway,
		bookingAPI,
		draftStore,
		reconciler,
		logger,
		config.AppConfig.Currency,
		time.Duration(config.AppConfig.HTTPTimeoutSeconds)*time.Second,
	)

	bookingHandler := handlers.NewBookingHandler(draftService, coordinator, logger)
	routes.RegisterRoutes(router, bookingHandler)

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
