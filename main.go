package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/tablereserve/reservation-app/config"
	"github.com/tablereserve/reservation-app/database"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/router"
	"github.com/tablereserve/reservation-app/services"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			utils.ErrorLogger.Printf("Sentry init failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTExpiry)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	bootstrap(db, cfg)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		utils.InfoLogger.Printf("Restaurant cache using Redis at %s", cfg.RedisAddr)
	}

	dispatcher := services.NewNotificationDispatcher(db, cfg.NotifyTimeout)
	var sms *services.TwilioClient
	if cfg.SMSConfigured() {
		sms = services.NewTwilioClient(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.NotifyTimeout)
		dispatcher.Register(models.ChannelSMS, sms)
	} else {
		utils.InfoLogger.Warn("Twilio not configured, SMS confirmations disabled")
	}
	if cfg.EmailConfigured() {
		dispatcher.Register(models.ChannelEmail, services.NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.ResendFrom, cfg.NotifyTimeout))
	} else {
		utils.InfoLogger.Warn("Resend not configured, email confirmations disabled")
	}

	r := router.SetupRouter(router.Deps{
		DB:          db,
		Bookings:    services.NewBookingService(db, dispatcher, cfg.Location()),
		Restaurants: services.NewRestaurantCache(db, redisClient, cfg.CacheTTL),
		SMS:         sms,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Printf("Failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
	dispatcher.Wait()
	utils.InfoLogger.Println("Server stopped")
}

func bootstrap(db *gorm.DB, cfg *config.Config) {
	ctx := context.Background()
	if err := services.EnsureSuperAdmin(ctx, db, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
		utils.ErrorLogger.Printf("Super admin bootstrap failed: %v", err)
	}
	if _, err := services.EnsureDefaultRestaurant(ctx, db, cfg.DefaultRestaurantSlug); err != nil {
		utils.ErrorLogger.Printf("Default restaurant seed failed: %v", err)
	}
}
