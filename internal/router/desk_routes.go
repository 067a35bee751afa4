package router

import (
	"github.com/labstack/echo/v4"

	"github.com/controllab/clinic-ops/internal/handler"
	"github.com/controllab/clinic-ops/internal/middleware"
)

// RegisterDesk registers the front-desk routes: walk-in registration,
// turn issuance, call-board control and room assignment.
func RegisterDesk(e *echo.Echo, patients *handler.PatientHandler, turns *handler.TurnHandler, calls *handler.CallHandler, regs *handler.RegistrationHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	desk := middleware.RequireRole(middleware.RoleRegistrar, middleware.RoleDoctor)

	g.POST("/patients/register", patients.Register, middleware.RequireRole(middleware.RoleRegistrar))
	g.GET("/patients", patients.List, desk)
	g.GET("/patients/recent", patients.Recent, desk)
	g.GET("/patients/:id", patients.Get, desk)

	g.POST("/turns/:doctor_id/next", turns.Next, desk)

	g.POST("/calls", calls.Call, desk)
	g.DELETE("/calls/:appointment_id", calls.Clear, desk)

	g.POST("/rooms/assign", regs.Assign, middleware.RequireRole(middleware.RoleRegistrar))
	g.POST("/registrations/:id/discharge", regs.Discharge, middleware.RequireRole(middleware.RoleRegistrar, middleware.RoleDoctor))
	g.POST("/registrations/:id/move", regs.Move, middleware.RequireRole(middleware.RoleRegistrar))
	g.GET("/rooms/history", regs.History, middleware.RequireRole(middleware.RoleRegistrar, middleware.RoleAccountant))
}
