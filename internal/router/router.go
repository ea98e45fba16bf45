package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/campus-room-reservation/internal/config"
	"github.com/iliyamo/campus-room-reservation/internal/handler"
	"github.com/iliyamo/campus-room-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the public availability
// view.  Availability responses are cached in Redis when a client is
// configured; a nil client leaves the route uncached.
func RegisterRoutes(e *echo.Echo, avail *handler.AvailabilityHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Availability is browsed by unauthenticated users planning a request.
	// The response cache sits only on this route; everything mutating runs
	// uncached.
	e.GET("/v1/availability", avail.Query, middleware.NewRedisCache(cacheCfg, rdb))
}
