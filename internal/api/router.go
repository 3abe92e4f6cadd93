package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/soiree-app/soiree/internal/auth"
	"github.com/soiree-app/soiree/internal/handlers"
	"github.com/soiree-app/soiree/internal/middleware"
	"github.com/soiree-app/soiree/internal/services"
)

// Deps carries the wired services the router needs.
type Deps struct {
	DB         *gorm.DB
	Hosts      *auth.HostService
	OTP        *auth.OTPService
	Rsvps      *services.RsvpService
	Albums     *services.AlbumService
	Photos     *services.PhotoService
	Broadcasts *services.BroadcastService

	// RateStore is optional; when set the limiter is shared across instances.
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Hosts == nil || deps.OTP == nil {
		return nil, fmt.Errorf("auth services must be provided")
	}
	if deps.Rsvps == nil || deps.Albums == nil || deps.Photos == nil || deps.Broadcasts == nil {
		return nil, fmt.Errorf("domain services must be provided")
	}

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middleware.NewMemoryRateStore()
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimitWithStore(rateStore, 100, time.Minute))

	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Hosts)
	galleryAuth := handlers.NewGalleryAuthHandler(deps.OTP)
	rsvpHandler := handlers.NewRsvpHandler(deps.Rsvps)
	exportHandler := handlers.NewExportHandler(deps.Rsvps)
	albumHandler := handlers.NewAlbumHandler(deps.Albums, deps.Photos)
	photoHandler := handlers.NewPhotoHandler(deps.Albums, deps.Photos)
	broadcastHandler := handlers.NewBroadcastHandler(deps.Broadcasts)

	requireHost := middleware.HostAuth(deps.Hosts)
	requireGuest := middleware.GuestAuth(deps.OTP)
	requireAny := middleware.HostOrGuestAuth(deps.Hosts, deps.OTP)

	// Code request and verification get a tighter window than the rest of
	// the API so codes cannot be brute-forced across sessions.
	verifyLimit := middleware.RateLimitWithStore(rateStore, 10, time.Minute)

	// Public routes
	r.POST("/api/rsvp", rsvpHandler.Create)
	r.POST("/api/auth/login", verifyLimit, authHandler.Login)
	r.POST("/api/auth/logout", authHandler.Logout)
	r.POST("/api/gallery/verify", verifyLimit, galleryAuth.Verify)
	r.POST("/api/gallery/logout", galleryAuth.Logout)
	r.GET("/api/gallery/media/:token", photoHandler.Media)

	// Host-only routes
	host := r.Group("/api")
	host.Use(requireHost)
	{
		host.GET("/auth/check", authHandler.Check)
		host.GET("/rsvp", rsvpHandler.List)
		host.GET("/export", exportHandler.Xlsx)
		host.GET("/export/json", exportHandler.JSON)

		host.POST("/albums", albumHandler.Create)
		host.GET("/albums", albumHandler.List)
		host.PUT("/albums/:id", albumHandler.Rename)
		host.DELETE("/albums/:id", albumHandler.Delete)
		host.GET("/albums/:id/shares", albumHandler.ListShares)
		host.POST("/albums/:id/shares", albumHandler.Share)
		host.DELETE("/albums/:id/shares/:email", albumHandler.Revoke)
		host.POST("/albums/:id/photos", photoHandler.Upload)
		host.DELETE("/albums/:id/photos/*path", photoHandler.Delete)
		host.POST("/photos/move", photoHandler.Move)

		host.POST("/broadcast/reminders", broadcastHandler.Reminders)
		host.POST("/broadcast/thankyou", broadcastHandler.ThankYou)
	}

	// Guest routes
	r.GET("/api/gallery/albums", requireGuest, albumHandler.ListForGuest)

	// Shared routes: hosts see everything, guests only shared albums
	r.GET("/api/albums/:id/photos", requireAny, photoHandler.List)

	return r, nil
}
