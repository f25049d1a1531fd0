package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/api"
	"github.com/crmkit/portal-api/internal/auth"
	"github.com/crmkit/portal-api/internal/config"
	"github.com/crmkit/portal-api/internal/content"
	"github.com/crmkit/portal-api/internal/crm"
	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/internal/spot"
	"github.com/crmkit/portal-api/internal/storage"
	"github.com/crmkit/portal-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const (
	spotTickInterval     = 2 * time.Second
	storageWatchInterval = 2 * time.Second
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the portal gateway with graceful shutdown
// support. It wires the device storage, session store, upstream client,
// domain store, and the spot simulator, then serves the portal routes.
func main() {
	cfg := config.Load()

	// Device-local persisted state
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to open device storage")
	}

	sessions := session.NewStore(store)
	client := api.NewClient(cfg.APIBaseURL, sessions)

	authService := auth.NewService(client, sessions)
	authHandlers := auth.NewGinHandlers(authService, sessions)

	crmStore := crm.NewStore(client)
	crmHandlers := crm.NewGinHandlers(crmStore)

	feed := spot.NewFeed("BTC/USDT")
	spotService := spot.NewService(feed, store)
	spotHandlers := spot.NewGinHandlers(spotService)

	articles := content.NewArticleStore(store)
	banners := content.NewBannerStore(store)
	contentHandlers := content.NewGinHandlers(articles, banners)

	// Background loops
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go store.Watch(bgCtx, storageWatchInterval)
	go spotService.Start(bgCtx, spotTickInterval)

	// Warm the collection cache; failures are isolated per collection and
	// the first authenticated request refreshes again.
	if sessions.IsAuthenticated() {
		crmStore.RefreshAll(bgCtx)
	}

	// Initialize router
	router := gin.Default()
	router.Use(middleware.RateLimit())

	setupRoutes(router, sessions, authHandlers, crmHandlers, spotHandlers, contentHandlers)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	bgCancel()

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures the portal surface:
// - Public: login
// - Authenticated: dashboard, CRM collections, news reads, spot widget
// - Admin: employees, news mutations, articles, banners
func setupRoutes(
	router *gin.Engine,
	sessions *session.Store,
	authHandlers *auth.GinHandlers,
	crmHandlers *crm.GinHandlers,
	spotHandlers *spot.GinHandlers,
	contentHandlers *content.GinHandlers,
) {
	// Public routes
	router.GET("/login", authHandlers.LoginPageHandler())
	router.POST("/login", authHandlers.LoginHandler())

	// Routes gated on session presence
	authed := router.Group("")
	authed.Use(middleware.RequireAuth(sessions))
	{
		authed.POST("/logout", authHandlers.LogoutHandler())
		authed.GET("/session", authHandlers.SessionHandler())
		authed.GET("/dashboard", crmHandlers.DashboardHandler())

		authed.GET("/customers", crmHandlers.ListCustomersHandler())
		authed.POST("/customers", crmHandlers.CreateCustomerHandler())
		authed.PUT("/customers/:id", crmHandlers.UpdateCustomerHandler())
		authed.DELETE("/customers/:id", crmHandlers.DeleteCustomerHandler())

		authed.GET("/orders", crmHandlers.ListOrdersHandler())
		authed.POST("/orders", crmHandlers.CreateOrderHandler())
		authed.PUT("/orders/:id", crmHandlers.UpdateOrderHandler())
		authed.DELETE("/orders/:id", crmHandlers.DeleteOrderHandler())

		authed.GET("/visits", crmHandlers.ListVisitsHandler())
		authed.POST("/visits", crmHandlers.CreateVisitHandler())
		authed.PUT("/visits/:id", crmHandlers.UpdateVisitHandler())
		authed.DELETE("/visits/:id", crmHandlers.DeleteVisitHandler())

		authed.GET("/finance", crmHandlers.ListFinanceHandler())
		authed.POST("/finance", crmHandlers.CreateFinanceHandler())
		authed.PUT("/finance/:id", crmHandlers.UpdateFinanceHandler())
		authed.DELETE("/finance/:id", crmHandlers.DeleteFinanceHandler())

		authed.GET("/news", crmHandlers.ListNewsHandler())

		spotGroup := authed.Group("/spot")
		{
			spotGroup.GET("/snapshot", spotHandlers.SnapshotHandler())
			spotGroup.GET("/orders", spotHandlers.ListOrdersHandler())
			spotGroup.POST("/orders", spotHandlers.PlaceOrderHandler())
			spotGroup.POST("/orders/:id/cancel", spotHandlers.CancelOrderHandler())
			spotGroup.GET("/ws", spotHandlers.StreamHandler(spotTickInterval))
		}

		// Routes additionally gated on the admin role claim
		admin := authed.Group("")
		admin.Use(middleware.RequireAdmin(sessions))
		{
			admin.GET("/employees", crmHandlers.ListEmployeesHandler())
			admin.POST("/employees", crmHandlers.CreateEmployeeHandler())
			admin.PUT("/employees/:id", crmHandlers.UpdateEmployeeHandler())
			admin.DELETE("/employees/:id", crmHandlers.DeleteEmployeeHandler())

			admin.POST("/news", crmHandlers.CreateNewsHandler())
			admin.PUT("/news/:id", crmHandlers.UpdateNewsHandler())
			admin.DELETE("/news/:id", crmHandlers.DeleteNewsHandler())

			admin.GET("/articles", contentHandlers.ListArticlesHandler())
			admin.POST("/articles", contentHandlers.CreateArticleHandler())
			admin.PUT("/articles/:id", contentHandlers.UpdateArticleHandler())
			admin.DELETE("/articles/:id", contentHandlers.DeleteArticleHandler())

			admin.GET("/banners", contentHandlers.ListBannersHandler())
			admin.POST("/banners", contentHandlers.CreateBannerHandler())
			admin.PUT("/banners/:id", contentHandlers.UpdateBannerHandler())
			admin.DELETE("/banners/:id", contentHandlers.DeleteBannerHandler())
		}
	}
}
