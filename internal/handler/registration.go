package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/repository"
)

// RegistrationHandler manages treatment-room stays: admission,
// discharge, moves between rooms and stay history.
type RegistrationHandler struct {
	RegRepo *repository.RegistrationRepo
	Logger  zerolog.Logger
}

func NewRegistrationHandler(regs *repository.RegistrationRepo, logger zerolog.Logger) *RegistrationHandler {
	if regs == nil {
		panic("nil repository passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{RegRepo: regs, Logger: logger}
}

// Assign handles POST /v1/rooms/assign.  Admission fails cleanly when
// the room is full; a failed admission leaves nothing behind.
func (h *RegistrationHandler) Assign(c echo.Context) error {
	var body struct {
		PatientID uint64 `json:"patient_id"`
		RoomID    uint64 `json:"room_id"`
	}
	if err := c.Bind(&body); err != nil || body.PatientID == 0 || body.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patient_id and room_id are required"})
	}

	reg, err := h.RegRepo.Assign(c.Request().Context(), body.PatientID, body.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPatientNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrAppointmentNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "patient has no appointment"})
		case errors.Is(err, repository.ErrRoomFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room is at capacity"})
		default:
			h.Logger.Error().Err(err).
				Uint64("patient_id", body.PatientID).
				Uint64("room_id", body.RoomID).
				Msg("assign room failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"registration_id":        reg.ID,
		"patient_id":             reg.PatientID,
		"room_id":                *reg.RoomID,
		"appointment_id":         reg.AppointmentID,
		"assigned_at":            reg.AssignedAt,
		"expected_accrued_cents": reg.ExpectedAccruedCents,
	})
}

// Discharge handles POST /v1/registrations/:id/discharge.
func (h *RegistrationHandler) Discharge(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}

	if err := h.RegRepo.Discharge(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRegistrationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already discharged"})
		default:
			h.Logger.Error().Err(err).Uint64("registration_id", id).Msg("discharge failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"registration_id": id, "discharged": true})
}

// Move handles POST /v1/registrations/:id/move.  The stay keeps its
// original start date and appointment, so billing continues unbroken in
// the new room.
func (h *RegistrationHandler) Move(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	var body struct {
		RoomID uint64 `json:"room_id"`
	}
	if err := c.Bind(&body); err != nil || body.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}

	reg, err := h.RegRepo.Move(c.Request().Context(), id, body.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRegistrationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already discharged"})
		case errors.Is(err, repository.ErrRoomFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room is at capacity"})
		default:
			h.Logger.Error().Err(err).Uint64("registration_id", id).Msg("move failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"registration_id":        reg.ID,
		"patient_id":             reg.PatientID,
		"room_id":                *reg.RoomID,
		"appointment_id":         reg.AppointmentID,
		"assigned_at":            reg.AssignedAt,
		"expected_accrued_cents": reg.ExpectedAccruedCents,
	})
}

// History handles GET /v1/rooms/history, all stays newest first.
func (h *RegistrationHandler) History(c echo.Context) error {
	records, err := h.RegRepo.History(c.Request().Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list registration history failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"registrations": records})
}
