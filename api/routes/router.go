package routes

import (
	"net/http"
	"time"

	"billetter/internal/admin"
	"billetter/internal/analytics"
	"billetter/internal/bookings"
	"billetter/internal/cleanup"
	"billetter/internal/events"
	"billetter/internal/payments"
	"billetter/internal/seats"
	"billetter/internal/shared/config"
	"billetter/internal/shared/database"
	"billetter/internal/shared/middleware"
	"billetter/internal/shared/utils/response"
	"billetter/pkg/cache"
	"billetter/pkg/metrics"
	"billetter/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries the services assembled in main.
type Deps struct {
	Config *config.Config
	DB     *database.DB
	Cache  cache.Service

	SeatService    seats.Service
	BookingService bookings.Service
	EventService   events.Service
	EventRepo      events.Repository
	AnalyticsRepo  analytics.Repository
	PaymentsCtrl   *payments.Controller
	AdminService   *admin.Service
	CleanupService *cleanup.Service
	RateLimiter    *ratelimit.RateLimiter
}

// Setup wires the full HTTP surface.
func Setup(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger())
	engine.Use(metrics.Middleware())
	engine.Use(cors.Default())

	setupOperationalRoutes(engine, deps)

	authRequired := middleware.BasicAuth(deps.DB.PostgreSQL, deps.Cache, deps.Config.Redis.AuthTTL)

	seatsCtrl := seats.NewController(deps.SeatService)
	bookingsCtrl := bookings.NewController(deps.BookingService)
	eventsCtrl := events.NewController(deps.EventService)
	analyticsCtrl := analytics.NewController(deps.AnalyticsRepo, deps.EventRepo)
	adminCtrl := admin.NewController(deps.AdminService)

	api := engine.Group(deps.Config.APIPrefix)
	{
		public := api.Group("")
		if deps.RateLimiter != nil {
			public.Use(ratelimit.Middleware(deps.RateLimiter, ratelimit.ScopePublic))
		}
		{
			public.GET("/events", eventsCtrl.SearchEvents)
			public.GET("/seats", seatsCtrl.ListSeats)
			public.GET("/analytics", analyticsCtrl.GetEventAnalytics)

			// Payment gateway callbacks are unauthenticated by contract.
			public.POST("/webhook/payment", deps.PaymentsCtrl.PaymentWebhook)
			public.GET("/payments/success", deps.PaymentsCtrl.PaymentSuccess)
			public.GET("/payments/fail", deps.PaymentsCtrl.PaymentFail)
			public.GET("/payments/circuit-breaker-status", deps.PaymentsCtrl.CircuitBreakerStatus)

			// Test-only hard reset; assumes quiesced traffic.
			public.POST("/reset", adminCtrl.Reset)
		}

		private := api.Group("")
		private.Use(authRequired)
		if deps.RateLimiter != nil {
			private.Use(ratelimit.Middleware(deps.RateLimiter, ratelimit.ScopeUser))
		}
		{
			private.PATCH("/seats/select", seatsCtrl.SelectSeat)
			private.PATCH("/seats/release", seatsCtrl.ReleaseSeat)

			private.POST("/bookings", bookingsCtrl.CreateBooking)
			private.GET("/bookings", bookingsCtrl.GetUserBookings)
			private.PATCH("/bookings/cancel", bookingsCtrl.CancelBooking)
			private.PATCH("/bookings/initiatePayment", bookingsCtrl.InitiatePayment)
			private.GET("/bookings/:id/payment-status", bookingsCtrl.GetPaymentStatus)
		}
	}

	return engine
}

func setupOperationalRoutes(engine *gin.Engine, deps Deps) {
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Billetter API")
	})

	engine.GET("/health", func(c *gin.Context) {
		if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
			response.RespondJSON(c, "error", http.StatusServiceUnavailable, "unhealthy", nil, err.Error())
			return
		}
		response.RespondJSON(c, "success", http.StatusOK, "healthy", gin.H{"time": time.Now().UTC()}, nil)
	})

	engine.GET("/metrics", metrics.Handler())

	// Cleanup stats for load-test monitoring.
	engine.GET("/cleanup/stats", func(c *gin.Context) {
		stats, err := deps.CleanupService.GetStats(c.Request.Context())
		if err != nil {
			response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to collect stats", nil, err.Error())
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}
