package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"heavenly/internal/infra/config"
	"heavenly/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
	Validate(c *gin.Context)
	ListForProperty(c *gin.Context)
	CheckAvailability(c *gin.Context)
	AvailabilityGrid(c *gin.Context)
}

type AvailabilityHTTP interface {
	Create(c *gin.Context)
	CreateBatch(c *gin.Context)
	Calendar(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type PaymentHTTP interface {
	Pay(c *gin.Context)
	ListForBooking(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Availability   AvailabilityHTTP
	Payment        PaymentHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.GET("/availability", h.Booking.CheckAvailability)
		api.GET("/availability/grid", h.Booking.AvailabilityGrid)
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/validate", h.Booking.Validate)
		api.GET("/bookings", h.Booking.ListMine)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/properties/:id/bookings", h.Booking.ListForProperty)
	}
	if h.Availability != nil {
		hostGroup := api.Group("/host/availability")
		hostGroup.POST("", h.Availability.Create)
		hostGroup.POST("/batch", h.Availability.CreateBatch)
		hostGroup.GET("/property/:id/:region", h.Availability.Calendar)
		hostGroup.PUT("/:id/:region", h.Availability.Update)
		hostGroup.DELETE("/:id/:region", h.Availability.Delete)
	}
	if h.Payment != nil {
		api.POST("/payments/booking/:id/pay", h.Payment.Pay)
		api.GET("/payments/booking/:id", h.Payment.ListForBooking)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
