package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"basobas/internal/infra/config"
	"basobas/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Booking        BookingHTTP
	Listing        ListingHTTP
	Owner          OwnerHTTP
	Admin          AdminHTTP
	Review         ReviewHTTP
	Notifications  NotificationHTTP
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
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
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
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Catalog)
		api.GET("/listings/:id/overview", h.Listing.Overview)
		api.GET("/listings/:id/reviews", h.Listing.Reviews)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/decision", h.Booking.Decide)
		api.POST("/bookings/:id/payment", h.Booking.RecordPayment)
		api.GET("/me/bookings", h.Booking.ListMine)
	}
	if h.Review != nil {
		api.POST("/reviews", h.Review.Submit)
	}
	if h.Notifications != nil {
		api.GET("/me/notifications", h.Notifications.Unread)
		api.POST("/me/notifications/read", h.Notifications.MarkRead)
	}
	if h.Owner != nil {
		ownerGroup := api.Group("/owner")
		ownerGroup.GET("/listings", h.Owner.List)
		ownerGroup.POST("/listings", h.Owner.Create)
		ownerGroup.PUT("/listings/:id", h.Owner.Update)
		ownerGroup.POST("/listings/:id/publish", h.Owner.Publish)
		ownerGroup.POST("/listings/:id/unpublish", h.Owner.Unpublish)
		ownerGroup.DELETE("/listings/:id", h.Owner.Remove)
		ownerGroup.POST("/listings/:id/photos", h.Owner.UploadPhoto)
		ownerGroup.GET("/bookings", h.Owner.Bookings)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.POST("/listings/:id/lock", h.Admin.Lock)
		adminGroup.POST("/listings/:id/unlock", h.Admin.Unlock)
		adminGroup.DELETE("/listings/:id", h.Admin.Remove)
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
