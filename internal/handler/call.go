package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/config"
	"github.com/controllab/clinic-ops/internal/repository"
)

// CallHandler manages the waiting-room call board: which turn numbers
// are currently being called and who is still queued.
type CallHandler struct {
	CallRepo *repository.CallRepo
	Cfg      *config.Config
	Logger   zerolog.Logger
}

func NewCallHandler(callRepo *repository.CallRepo, cfg *config.Config, logger zerolog.Logger) *CallHandler {
	if callRepo == nil || cfg == nil {
		panic("nil dependency passed to NewCallHandler")
	}
	return &CallHandler{CallRepo: callRepo, Cfg: cfg, Logger: logger}
}

// Call handles POST /v1/calls.  It marks an appointment as currently
// called; calling an already-called appointment refreshes its call time
// and moves it to the front of the board.
func (h *CallHandler) Call(c echo.Context) error {
	var body struct {
		AppointmentID uint64 `json:"appointment_id"`
	}
	if err := c.Bind(&body); err != nil || body.AppointmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "appointment_id is required"})
	}

	if err := h.CallRepo.Call(c.Request().Context(), body.AppointmentID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		h.Logger.Error().Err(err).Uint64("appointment_id", body.AppointmentID).Msg("record call failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"appointment_id": body.AppointmentID, "called": true})
}

// Clear handles DELETE /v1/calls/:appointment_id.  It removes the
// appointment from the called section once the patient has been seen.
func (h *CallHandler) Clear(c echo.Context) error {
	appointmentID, err := pathID(c, "appointment_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}

	if err := h.CallRepo.Clear(c.Request().Context(), appointmentID); err != nil {
		if errors.Is(err, repository.ErrCallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "call not found"})
		}
		h.Logger.Error().Err(err).Uint64("appointment_id", appointmentID).Msg("clear call failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Board handles GET /v1/calls, the payload the waiting-room displays
// poll.  Called entries are split into the doctor lanes and the service
// desk lane by the first letter of the turn number; behind them renders
// the queued section in arrival order.
func (h *CallHandler) Board(c echo.Context) error {
	ctx := c.Request().Context()

	called, skipped, err := h.CallRepo.ListCalled(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list called failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if skipped > 0 {
		h.Logger.Warn().Int("skipped", skipped).Msg("call board: entries without turn numbers omitted")
	}

	queued, err := h.CallRepo.ListQueued(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list queued failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	serviceLanes := h.Cfg.ServiceLaneSet()
	doctorCalls := make([]repository.BoardEntry, 0, len(called))
	deskCalls := make([]repository.BoardEntry, 0)
	for _, e := range called {
		if serviceLanes[e.TurnNumber[:1]] {
			deskCalls = append(deskCalls, e)
		} else {
			doctorCalls = append(doctorCalls, e)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"called": echo.Map{
			"doctor_lanes": doctorCalls,
			"service_desk": deskCalls,
		},
		"queued": queued,
	})
}
