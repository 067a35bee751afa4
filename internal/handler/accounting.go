package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/repository"
)

// AccountingHandler serves the revenue dashboard.
type AccountingHandler struct {
	CashRepo    *repository.CashRepo
	PaymentRepo *repository.PaymentRepo
	Logger      zerolog.Logger
}

func NewAccountingHandler(cash *repository.CashRepo, payments *repository.PaymentRepo, logger zerolog.Logger) *AccountingHandler {
	if cash == nil || payments == nil {
		panic("nil repository passed to NewAccountingHandler")
	}
	return &AccountingHandler{CashRepo: cash, PaymentRepo: payments, Logger: logger}
}

// Dashboard handles GET /v1/accounting/dashboard.  The period query
// parameter selects the window: "today" (default), "week", "month" or
// "all".
func (h *AccountingHandler) Dashboard(c echo.Context) error {
	since, ok := periodStart(c.QueryParam("period"), time.Now())
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid period"})
	}
	ctx := c.Request().Context()

	total, err := h.CashRepo.Total(ctx, since)
	if err != nil {
		h.Logger.Error().Err(err).Msg("cash total failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	byType, err := h.CashRepo.TotalsByType(ctx, since)
	if err != nil {
		h.Logger.Error().Err(err).Msg("totals by type failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	byMethod, err := h.CashRepo.TotalsByMethod(ctx, since)
	if err != nil {
		h.Logger.Error().Err(err).Msg("totals by method failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	byDoctor, err := h.CashRepo.TotalsByDoctor(ctx, since)
	if err != nil {
		h.Logger.Error().Err(err).Msg("totals by doctor failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	treatment, err := h.PaymentRepo.Stats(ctx, time.Now())
	if err != nil {
		h.Logger.Error().Err(err).Msg("treatment stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"since":              since,
		"cash_total_cents":   total,
		"by_type":            byType,
		"by_method":          byMethod,
		"by_doctor":          byDoctor,
		"treatment_payments": treatment,
	})
}

// periodStart maps a period name to its window start in local time.
func periodStart(period string, now time.Time) (time.Time, bool) {
	local := now.Local()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	switch period {
	case "", "today":
		return midnight, true
	case "week":
		return midnight.AddDate(0, 0, -7), true
	case "month":
		return midnight.AddDate(0, -1, 0), true
	case "all":
		return time.Time{}, true
	}
	return time.Time{}, false
}
