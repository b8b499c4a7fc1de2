package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"device-lending-backend/config"
	"device-lending-backend/internal/lifecycle"
	"device-lending-backend/internal/mw"
	"device-lending-backend/internal/session"
	"device-lending-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, engine *lifecycle.Engine, sessions session.Store) *gin.Engine {
	r := gin.Default()

	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AddAllowHeaders("Authorization")
		r.Use(cors.New(corsCfg))
	}

	handler := NewHandler(s, engine)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(cacheTTL, 2*cacheTTL), cacheTTL)
	authed := mw.Auth(sessions)
	staffOnly := mw.StaffOnly()

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Public catalogue reads.
		api.GET("/device-models", caching, handler.ListDeviceModels)
		api.GET("/device-models/:id", caching, handler.GetDeviceModel)
	}

	user := api.Group("", authed)
	{
		user.GET("/device-models/:id/availability", handler.GetAvailability)

		user.POST("/reservations", handler.CreateReservation)
		user.GET("/reservations", handler.ListReservations)
		user.GET("/reservations/:id", handler.GetReservation)
		user.PUT("/reservations/:id/cancel", handler.CancelReservation)
	}

	staff := api.Group("", authed, staffOnly)
	{
		staff.PUT("/reservations/:id/collect", handler.CollectReservation)
		staff.PUT("/reservations/:id/return", handler.ReturnReservation)

		staff.POST("/device-models", handler.CreateDeviceModel)
		staff.PUT("/device-models/:id", handler.UpdateDeviceModel)
		staff.DELETE("/device-models/:id", handler.DeleteDeviceModel)

		staff.GET("/devices", handler.ListDevices)
		staff.POST("/devices", handler.CreateDevice)
		staff.GET("/devices/:id", handler.GetDevice)
		staff.PUT("/devices/:id", handler.UpdateDevice)
		staff.PUT("/devices/:id/status", handler.SetDeviceStatus)
		staff.DELETE("/devices/:id", handler.DeleteDevice)

		admin := staff.Group("/admin")
		{
			admin.GET("/dashboard/stats", caching, handler.DashboardStats)
			admin.GET("/reservations", handler.AdminListReservations)
			admin.GET("/reservations/overdue", handler.ListOverdueReservations)
			admin.GET("/reservations/pending", handler.ListPendingReservations)

			admin.PUT("/subscriptions", handler.PutSubscription)
			admin.DELETE("/subscriptions", handler.DeleteSubscription)
		}
	}

	return r
}
