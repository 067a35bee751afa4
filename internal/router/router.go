// Package router wires handlers to their routes and applies the
// middleware each route group needs.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/controllab/clinic-ops/internal/config"
	"github.com/controllab/clinic-ops/internal/handler"
	"github.com/controllab/clinic-ops/internal/middleware"
)

// RegisterHealth registers the unauthenticated probe endpoint.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterBoards registers the public display endpoints the waiting
// room screens poll.  They carry no authentication; the response cache
// and rate limiter absorb the polling load.
func RegisterBoards(e *echo.Echo, calls *handler.CallHandler, rooms *handler.RoomHandler, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.RateLimit(rlCfg, rdb))
	g.Use(middleware.BoardCache(cacheCfg, rdb))
	g.GET("/calls", calls.Board)
	g.GET("/rooms/status", rooms.Status)
}
