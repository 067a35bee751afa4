package router

import (
	"github.com/labstack/echo/v4"

	"github.com/controllab/clinic-ops/internal/handler"
	"github.com/controllab/clinic-ops/internal/middleware"
)

// RegisterRooms registers room inventory management.  Writes are
// admin-only; the list is readable by all staff.
func RegisterRooms(e *echo.Echo, rooms *handler.RoomHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	staff := middleware.RequireRole(
		middleware.RoleDoctor,
		middleware.RoleRegistrar,
		middleware.RoleCashier,
		middleware.RoleAccountant,
	)

	g.GET("/rooms", rooms.List, staff)
	g.POST("/rooms", rooms.Create, middleware.RequireRole())
	g.PUT("/rooms/:id", rooms.Update, middleware.RequireRole())
	g.DELETE("/rooms/:id", rooms.Delete, middleware.RequireRole())
}
