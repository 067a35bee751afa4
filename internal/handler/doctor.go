package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/model"
	"github.com/controllab/clinic-ops/internal/repository"
)

// DoctorHandler serves the doctor directory and each doctor's own
// worklist.
type DoctorHandler struct {
	DoctorRepo      *repository.DoctorRepo
	AppointmentRepo *repository.AppointmentRepo
	Logger          zerolog.Logger
}

func NewDoctorHandler(doctors *repository.DoctorRepo, appts *repository.AppointmentRepo, logger zerolog.Logger) *DoctorHandler {
	if doctors == nil || appts == nil {
		panic("nil repository passed to NewDoctorHandler")
	}
	return &DoctorHandler{DoctorRepo: doctors, AppointmentRepo: appts, Logger: logger}
}

// Create handles POST /v1/doctors.
func (h *DoctorHandler) Create(c echo.Context) error {
	var body struct {
		Name                   string `json:"name"`
		Specialty              string `json:"specialty"`
		ConsultationPriceCents int64  `json:"consultation_price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.ConsultationPriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "consultation_price_cents must not be negative"})
	}

	d := &model.Doctor{
		Name:                   body.Name,
		Specialty:              body.Specialty,
		ConsultationPriceCents: body.ConsultationPriceCents,
	}
	if err := h.DoctorRepo.Create(c.Request().Context(), d); err != nil {
		h.Logger.Error().Err(err).Msg("create doctor failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, doctorView(*d))
}

// List handles GET /v1/doctors.
func (h *DoctorHandler) List(c echo.Context) error {
	doctors, err := h.DoctorRepo.List(c.Request().Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list doctors failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	views := make([]echo.Map, 0, len(doctors))
	for _, d := range doctors {
		views = append(views, doctorView(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"doctors": views})
}

// Get handles GET /v1/doctors/:id.
func (h *DoctorHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid doctor id"})
	}
	d, err := h.DoctorRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDoctorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, doctorView(*d))
}

// MyAppointments handles GET /v1/doctors/me/appointments, the signed-in
// doctor's worklist.  The doctor id comes from the token, never from
// the request, so doctors cannot read each other's queues.
func (h *DoctorHandler) MyAppointments(c echo.Context) error {
	doctorID, err := getDoctorID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no doctor profile on this account"})
	}

	appts, queued, err := h.AppointmentRepo.ListByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("doctor_id", doctorID).Msg("list appointments failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	views := make([]echo.Map, 0, len(appts))
	for _, a := range appts {
		v := echo.Map{
			"id":         a.ID,
			"patient_id": a.PatientID,
			"reason":     a.Reason,
			"status":     a.Status,
			"created_at": a.CreatedAt,
		}
		if a.TurnNumber != nil {
			v["turn_number"] = *a.TurnNumber
		}
		views = append(views, v)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"appointments": views,
		"queued_count": queued,
	})
}

// UpdateAppointment handles PATCH /v1/appointments/:id, moving an
// appointment through its lifecycle.  Terminal appointments cannot be
// reopened.
func (h *DoctorHandler) UpdateAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidAppointmentStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	if err := h.AppointmentRepo.UpdateStatus(c.Request().Context(), id, body.Status); err != nil {
		switch {
		case errors.Is(err, repository.ErrAppointmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "appointment already finalized"})
		default:
			h.Logger.Error().Err(err).Uint64("appointment_id", id).Msg("update appointment failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": body.Status})
}

func doctorView(d model.Doctor) echo.Map {
	return echo.Map{
		"id":                       d.ID,
		"name":                     d.Name,
		"specialty":                d.Specialty,
		"consultation_price_cents": d.ConsultationPriceCents,
		"created_at":               d.CreatedAt,
	}
}
