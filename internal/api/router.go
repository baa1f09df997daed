package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"fleetops-backend/config"
	"fleetops-backend/internal/maintenance"
	"fleetops-backend/internal/mw"
	"fleetops-backend/internal/notification"
	"fleetops-backend/internal/schedule"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(db *gorm.DB, cfg *config.Config, pool *notification.WorkerPool, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(
		db,
		schedule.NewService(db),
		maintenance.NewService(db, cfg.Maintenance.DueSoonDays),
		pool,
		webpushOptions,
	)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, cfg.Server.RequestIPHeader)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Admin-scope reference data.
	api.GET("/routes", caching, handler.ListRoutes)
	api.POST("/routes", handler.CreateRoute)
	api.PUT("/routes/:id", handler.UpdateRoute)
	api.DELETE("/routes/:id", handler.DeleteRoute)

	api.GET("/depots", handler.ListDepots)
	api.POST("/depots", handler.CreateDepot)
	api.PUT("/depots/:id", handler.UpdateDepot)
	api.DELETE("/depots/:id", handler.DeleteDepot)

	api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	// Everything below operates within an explicit depot scope.
	depot := api.Group("")
	depot.Use(mw.DepotScope())
	{
		depot.GET("/buses", handler.ListBuses)
		depot.GET("/buses/assignable", handler.ListAssignableBuses)
		depot.GET("/buses/:id/maintenance-status", handler.GetBusMaintenanceStatus)
		depot.POST("/buses", handler.CreateBus)
		depot.PUT("/buses/:id", handler.UpdateBus)
		depot.DELETE("/buses/:id", handler.DeleteBus)

		depot.GET("/drivers", handler.ListDrivers)
		depot.GET("/drivers/assignable", handler.ListAssignableDrivers)
		depot.POST("/drivers", handler.CreateDriver)
		depot.PUT("/drivers/:id", handler.UpdateDriver)
		depot.DELETE("/drivers/:id", handler.DeleteDriver)

		depot.GET("/conductors", handler.ListConductors)
		depot.GET("/conductors/assignable", handler.ListAssignableConductors)
		depot.POST("/conductors", handler.CreateConductor)
		depot.PUT("/conductors/:id", handler.UpdateConductor)
		depot.DELETE("/conductors/:id", handler.DeleteConductor)

		depot.GET("/schedules", handler.ListSchedules)
		depot.GET("/schedules/:id", handler.GetSchedule)
		depot.POST("/schedules", handler.CreateSchedule)
		depot.PUT("/schedules/:id", handler.UpdateSchedule)
		depot.POST("/schedules/:id/reassign", handler.ReassignSchedule)
		depot.DELETE("/schedules/:id", handler.DeleteSchedule)

		depot.GET("/maintenance", handler.ListMaintenance)
		depot.GET("/maintenance/due", caching, handler.ListMaintenanceDue)
		depot.POST("/maintenance", handler.CreateMaintenance)
		depot.PUT("/maintenance/:id", handler.UpdateMaintenance)
		depot.DELETE("/maintenance/:id", handler.DeleteMaintenance)

		depot.GET("/subscriptions", handler.GetSubscription)
		depot.PUT("/subscriptions", handler.PutSubscription)
		depot.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
