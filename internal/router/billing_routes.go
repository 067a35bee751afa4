package router

import (
	"github.com/labstack/echo/v4"

	"github.com/controllab/clinic-ops/internal/handler"
	"github.com/controllab/clinic-ops/internal/middleware"
)

// RegisterBilling registers the money-handling routes: treatment
// payments, the cash register and the accounting dashboard.
func RegisterBilling(e *echo.Echo, payments *handler.PaymentHandler, cash *handler.CashHandler, accounting *handler.AccountingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	cashier := middleware.RequireRole(middleware.RoleCashier)
	finance := middleware.RequireRole(middleware.RoleCashier, middleware.RoleAccountant)

	g.POST("/treatment-payments", payments.Record, cashier)
	g.GET("/treatment-payments/rooms", payments.RoomsBoard, finance)
	g.GET("/treatment-payments/stats", payments.Stats, finance)
	g.GET("/treatment-payments/:id/receipt", payments.Receipt, finance)
	g.GET("/patients/:id/treatment-payments", payments.PatientPayments, finance)

	g.POST("/cash-register", cash.Create, cashier)
	g.GET("/cash-register", cash.List, finance)
	g.GET("/cash-register/:id/receipt", cash.Receipt, finance)
	g.GET("/patients/:id/statement", cash.PatientStatement, finance)

	g.GET("/accounting/dashboard", accounting.Dashboard, middleware.RequireRole(middleware.RoleAccountant))
}
