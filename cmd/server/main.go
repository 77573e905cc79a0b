package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shawty-app/shawty/internal/cache"
	"github.com/shawty-app/shawty/internal/config"
	"github.com/shawty-app/shawty/internal/geo"
	"github.com/shawty-app/shawty/internal/handler"
	"github.com/shawty-app/shawty/internal/middleware"
	"github.com/shawty-app/shawty/internal/notifier"
	"github.com/shawty-app/shawty/internal/repository"
	"github.com/shawty-app/shawty/internal/scheduler"
	"github.com/shawty-app/shawty/internal/service"
	"github.com/shawty-app/shawty/internal/urlutil"
)

const (
	ReconcileInterval = 1 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	postgresRepo, err := repository.NewPostgresRepository(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer postgresRepo.Close()
	log.Println("Connected to PostgreSQL")

	redisRepo, err := repository.NewRedisRepository(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisRepo.Close()
	log.Println("Connected to Redis")

	reconciler := scheduler.NewClickReconciler(postgresRepo, ReconcileInterval)
	reconciler.Start()
	defer reconciler.Stop()

	linkCache := cache.New(cfg.Link.CacheTTL)
	geoClient := geo.NewClient(cfg.Track.GeoBaseURL, cfg.Track.GeoTimeout)
	slackNotifier := notifier.NewSlackNotifier(cfg.Slack.WebhookURL)

	blockedHostnames := urlutil.BlockedHostnames(cfg.App.PublicURL, cfg.App.DomainAliases)

	linkService := service.NewLinkService(postgresRepo, slackNotifier, blockedHostnames, cfg.Link.ShortCodeLength)
	tracker := service.NewClickTracker(postgresRepo, geoClient)
	resolver := service.NewRedirectResolver(postgresRepo, linkCache, tracker)
	analyticsService := service.NewAnalyticsService(postgresRepo)
	authService := service.NewAuthService(postgresRepo, cfg)

	h := handler.NewHandler(linkService, resolver, analyticsService, postgresRepo, redisRepo, cfg.App.Env == "production")
	authHandler := handler.NewAuthHandler(authService, cfg.App.Env == "production")

	sessionAuth := middleware.NewSessionAuth(cfg.Auth.SessionSecret, postgresRepo)
	rateLimiter := middleware.NewRateLimiter(redisRepo.Client(), &cfg.RateLimit)

	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic recovered: path=%s err=%v", c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}))
	router.Use(gin.Logger())

	// Behind Nginx/Proxy the client IP comes from forwarded headers; without
	// trusted proxies ClientIP() could be spoofed.
	router.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	router.GET("/health", h.Health)
	router.GET("/health/detailed", h.HealthDetailed)

	SetupSwagger(router, &cfg.Auth)

	router.GET("/auth/login", authHandler.Login)
	router.GET("/auth/callback", authHandler.Callback)
	router.GET("/auth/github", authHandler.GitHubLogin)
	router.GET("/auth/github/callback", authHandler.GitHubCallback)
	router.GET("/auth/logout", authHandler.Logout)

	api := router.Group("/api")
	api.Use(rateLimiter.Middleware())
	{
		api.GET("/leaderboard", h.Leaderboard)

		authed := api.Group("")
		authed.Use(sessionAuth.Middleware())
		{
			authed.POST("/links", h.CreateLink)
			authed.GET("/links", h.ListLinks)
			authed.PATCH("/links/:id", h.UpdateLink)
			authed.DELETE("/links/:id", h.DeleteLink)
			authed.GET("/links/:id/analytics", h.LinkAnalytics)
		}
	}

	router.GET("/:code", rateLimiter.Middleware(), h.Redirect)
	router.GET("/:code/verify", h.VerifyPage)
	router.POST("/:code/verify", h.VerifySubmit)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
