package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/repository"
)

// TurnHandler issues queue turn codes for doctors' visit lanes.
type TurnHandler struct {
	TurnRepo   *repository.TurnRepo
	DoctorRepo *repository.DoctorRepo
	Logger     zerolog.Logger
}

func NewTurnHandler(turnRepo *repository.TurnRepo, doctorRepo *repository.DoctorRepo, logger zerolog.Logger) *TurnHandler {
	if turnRepo == nil || doctorRepo == nil {
		panic("nil repository passed to NewTurnHandler")
	}
	return &TurnHandler{TurnRepo: turnRepo, DoctorRepo: doctorRepo, Logger: logger}
}

// Next handles POST /v1/turns/:doctor_id/next.  It issues the next turn
// code in the doctor's lane: the doctor's letter plus a counter that
// restarts at 1 each local day.  A doctor with no lane yet claims the
// lowest unused letter on first call.
func (h *TurnHandler) Next(c echo.Context) error {
	doctorID, err := pathID(c, "doctor_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid doctor id"})
	}

	doctor, err := h.DoctorRepo.GetByID(c.Request().Context(), doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrDoctorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		h.Logger.Error().Err(err).Uint64("doctor_id", doctorID).Msg("load doctor failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	code, err := h.TurnRepo.NextTurn(c.Request().Context(), doctorID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDoctorNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		case errors.Is(err, repository.ErrLettersExhausted):
			h.Logger.Error().Uint64("doctor_id", doctorID).Msg("turn letter pool exhausted")
			return c.JSON(http.StatusConflict, echo.Map{"error": "no turn letters available"})
		default:
			h.Logger.Error().Err(err).Uint64("doctor_id", doctorID).Msg("issue turn failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"doctor_id":   doctorID,
		"doctor_name": doctor.Name,
		"turn_number": code,
	})
}
