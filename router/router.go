package router

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/controllers"
	"github.com/tablereserve/reservation-app/middlewares"
	"github.com/tablereserve/reservation-app/services"
	"gorm.io/gorm"
)

// Deps are the shared services the handlers need. SMS may be nil when Twilio
// is not configured.
type Deps struct {
	DB          *gorm.DB
	Bookings    *services.BookingService
	Restaurants *services.RestaurantCache
	SMS         *services.TwilioClient
	CORSOrigins []string
	RateLimit   int
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.GlobalRateLimit(deps.RateLimit))

	userCtrl := controllers.NewUserController(deps.DB)
	restaurantCtrl := controllers.NewRestaurantController(deps.DB, deps.Restaurants)
	reservationCtrl := controllers.NewReservationController(deps.DB, deps.Bookings, deps.Restaurants)
	adminCtrl := controllers.NewAdminController(deps.DB, deps.Bookings)
	notificationCtrl := controllers.NewNotificationController(deps.DB, deps.SMS)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Rate limiter for login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/restaurants", restaurantCtrl.GetAllRestaurants)
	r.GET("/restaurants/:slug", restaurantCtrl.GetRestaurantBySlug)
	r.GET("/restaurants/:slug/slots", reservationCtrl.GetAvailability)

	booking := r.Group("/restaurants/:slug/reservations")
	booking.Use(middlewares.NewBookingRateLimiter().RateLimit(), middlewares.OptionalAuth())
	{
		booking.POST("", reservationCtrl.CreateReservation)
	}

	r.GET("/reservations/:code", middlewares.NoStore(), reservationCtrl.GetReservationByCode)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.GET("/me/reservations", middlewares.NoStore(), reservationCtrl.GetMyReservations)
	}

	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireAdmin(), middlewares.NoStore())
	{
		admin.GET("/reservations", adminCtrl.GetReservations)
		admin.GET("/reservations/export", adminCtrl.ExportReservations)
		admin.POST("/reservations/override", adminCtrl.CreateOverrideReservation)
		admin.PATCH("/reservations/:id", adminCtrl.UpdateReservation)
		admin.POST("/reservations/:id/cancel", adminCtrl.CancelReservation)
		admin.GET("/stats", adminCtrl.GetStats)

		admin.PATCH("/restaurants/:slug", restaurantCtrl.UpdateRestaurant)

		admin.GET("/notifications", notificationCtrl.GetAllNotifications)
		admin.POST("/notifications/test-sms", notificationCtrl.SendTestSMS)
	}

	super := r.Group("/admin")
	super.Use(middlewares.AuthMiddleware(), middlewares.RequireSuperAdmin())
	{
		super.POST("/restaurants", restaurantCtrl.CreateRestaurant)
		super.DELETE("/restaurants/:slug", restaurantCtrl.DeleteRestaurant)

		super.GET("/users", userCtrl.GetAllUsers)
		super.POST("/users/:id/promote", userCtrl.PromoteUser)
		super.PATCH("/users/:id/restaurant", userCtrl.SetUserRestaurant)
	}

	// WebSocket endpoint with its own auth
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/reservations", controllers.ReservationStreamHandler)
	}

	return r
}
