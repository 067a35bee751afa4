package router

import (
	"github.com/labstack/echo/v4"

	"github.com/controllab/clinic-ops/internal/handler"
	"github.com/controllab/clinic-ops/internal/middleware"
)

// RegisterDoctors registers the doctor directory and each doctor's own
// worklist.  Directory writes are admin-only; reads are open to all
// authenticated staff.
func RegisterDoctors(e *echo.Echo, doctors *handler.DoctorHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	staff := middleware.RequireRole(
		middleware.RoleDoctor,
		middleware.RoleRegistrar,
		middleware.RoleCashier,
		middleware.RoleAccountant,
	)

	g.POST("/doctors", doctors.Create, middleware.RequireRole())
	g.GET("/doctors", doctors.List, staff)
	g.GET("/doctors/:id", doctors.Get, staff)

	g.GET("/doctors/me/appointments", doctors.MyAppointments, middleware.RequireRole(middleware.RoleDoctor))
	g.PATCH("/appointments/:id", doctors.UpdateAppointment, middleware.RequireRole(middleware.RoleDoctor, middleware.RoleRegistrar))
}
