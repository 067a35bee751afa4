package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role names carried in the token's "role" claim.
const (
	RoleAdmin      = "ADMIN"
	RoleDoctor     = "DOCTOR"
	RoleRegistrar  = "REGISTRAR"
	RoleCashier    = "CASHIER"
	RoleAccountant = "ACCOUNTANT"
)

// RequireRole aborts with 403 unless the authenticated user carries one
// of the given roles.  ADMIN always passes.  Must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles)+1)
	allowed[RoleAdmin] = true
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
