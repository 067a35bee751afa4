package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/model"
	"github.com/controllab/clinic-ops/internal/queue"
	"github.com/controllab/clinic-ops/internal/repository"
)

// PatientHandler covers walk-in registration and the patient directory.
// Registration is the front-desk composite: it records the patient,
// issues a turn code in the doctor's lane, opens a queued appointment
// and takes the consultation fee in one flow.
type PatientHandler struct {
	PatientRepo     *repository.PatientRepo
	DoctorRepo      *repository.DoctorRepo
	TurnRepo        *repository.TurnRepo
	AppointmentRepo *repository.AppointmentRepo
	CashRepo        *repository.CashRepo
	DeskLetter      string
	Logger          zerolog.Logger
	// Publish is called after a consultation fee is recorded.  Nil
	// disables publishing; failures are logged and never fail the
	// registration.
	Publish func(ctx context.Context, ev queue.PaymentRecordedEvent) error
}

func NewPatientHandler(patients *repository.PatientRepo, doctors *repository.DoctorRepo, turns *repository.TurnRepo, appts *repository.AppointmentRepo, cash *repository.CashRepo, deskLetter string, logger zerolog.Logger) *PatientHandler {
	if patients == nil || doctors == nil || turns == nil || appts == nil || cash == nil {
		panic("nil repository passed to NewPatientHandler")
	}
	return &PatientHandler{
		PatientRepo:     patients,
		DoctorRepo:      doctors,
		TurnRepo:        turns,
		AppointmentRepo: appts,
		CashRepo:        cash,
		DeskLetter:      deskLetter,
		Logger:          logger,
	}
}

// Register handles POST /v1/patients/register, the walk-in flow.
func (h *PatientHandler) Register(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		FirstName     string `json:"first_name"`
		LastName      string `json:"last_name"`
		Age           *int   `json:"age"`
		Phone         string `json:"phone"`
		Address       string `json:"address"`
		DoctorID      uint64 `json:"doctor_id"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.FirstName = strings.TrimSpace(body.FirstName)
	body.LastName = strings.TrimSpace(body.LastName)
	if body.FirstName == "" || body.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name and last_name are required"})
	}
	if body.DoctorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "doctor_id is required"})
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = model.MethodCash
	}
	if !model.ValidPaymentMethod(body.PaymentMethod) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
	}

	ctx := c.Request().Context()

	doctor, err := h.DoctorRepo.GetByID(ctx, body.DoctorID)
	if err != nil {
		if errors.Is(err, repository.ErrDoctorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	patient := &model.Patient{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Age:       body.Age,
		Phone:     body.Phone,
		Address:   body.Address,
		DoctorID:  &body.DoctorID,
	}
	if err := h.PatientRepo.Create(ctx, patient); err != nil {
		h.Logger.Error().Err(err).Msg("create patient failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	turnCode, err := h.TurnRepo.NextTurn(ctx, body.DoctorID)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("doctor_id", body.DoctorID).Msg("issue turn failed")
		if errors.Is(err, repository.ErrLettersExhausted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no turn letters available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	appt := &model.Appointment{
		PatientID:  patient.ID,
		DoctorID:   body.DoctorID,
		Status:     model.AppointmentQueued,
		TurnNumber: &turnCode,
	}
	if err := h.AppointmentRepo.Create(ctx, appt); err != nil {
		h.Logger.Error().Err(err).Msg("create appointment failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx := &model.CashRegister{
		PatientID:       patient.ID,
		DoctorID:        &body.DoctorID,
		TransactionType: model.TxConsultation,
		AmountCents:     doctor.ConsultationPriceCents,
		PaymentMethod:   body.PaymentMethod,
		CreatedBy:       userID,
	}
	if err := h.CashRepo.Create(ctx, h.DeskLetter, tx); err != nil {
		h.Logger.Error().Err(err).Uint64("patient_id", patient.ID).Msg("record consultation fee failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if h.Publish != nil {
		ev := queue.PaymentRecordedEvent{
			PaymentID:       tx.ID,
			PatientID:       patient.ID,
			PatientName:     patient.FullName(),
			Source:          "cash_register",
			TransactionType: tx.TransactionType,
			AmountCents:     tx.AmountCents,
			Method:          tx.PaymentMethod,
			TurnReference:   tx.TurnReference,
			RecordedBy:      userID,
			RecordedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.Publish(ctx, ev); err != nil {
			h.Logger.Warn().Err(err).Msg("publish payment event failed")
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"patient_id":     patient.ID,
		"appointment_id": appt.ID,
		"turn_number":    turnCode,
		"doctor": echo.Map{
			"id":   doctor.ID,
			"name": doctor.Name,
		},
		"consultation_fee_cents": doctor.ConsultationPriceCents,
		"receipt_reference":      tx.TurnReference,
	})
}

// List handles GET /v1/patients.
func (h *PatientHandler) List(c echo.Context) error {
	patients, err := h.PatientRepo.List(c.Request().Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list patients failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"patients": patientViews(patients)})
}

// Recent handles GET /v1/patients/recent. The window defaults to one
// day and can be widened with ?days=N for the front-desk overview.
func (h *PatientHandler) Recent(c echo.Context) error {
	days := 1
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
		}
		days = n
	}
	since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	patients, err := h.PatientRepo.RecentSince(c.Request().Context(), since)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list recent patients failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"patients": patientViews(patients)})
}

// Get handles GET /v1/patients/:id.  The latest appointment rides along
// so the desk sees the current visit and turn code without a second call.
func (h *PatientHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid patient id"})
	}
	ctx := c.Request().Context()
	p, err := h.PatientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	view := patientView(*p)
	appt, err := h.AppointmentRepo.LatestByPatient(ctx, id)
	switch {
	case err == nil:
		av := echo.Map{
			"id":         appt.ID,
			"doctor_id":  appt.DoctorID,
			"status":     appt.Status,
			"created_at": appt.CreatedAt,
		}
		if appt.TurnNumber != nil {
			av["turn_number"] = *appt.TurnNumber
		}
		view["latest_appointment"] = av
	case errors.Is(err, repository.ErrAppointmentNotFound):
		// new patient, nothing to attach
	default:
		h.Logger.Error().Err(err).Uint64("patient_id", id).Msg("latest appointment lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, view)
}

func patientView(p model.Patient) echo.Map {
	v := echo.Map{
		"id":         p.ID,
		"name":       p.FullName(),
		"phone":      p.Phone,
		"address":    p.Address,
		"created_at": p.CreatedAt,
	}
	if p.Age != nil {
		v["age"] = *p.Age
	}
	if p.DoctorID != nil {
		v["doctor_id"] = *p.DoctorID
	}
	return v
}

func patientViews(patients []model.Patient) []echo.Map {
	out := make([]echo.Map, 0, len(patients))
	for _, p := range patients {
		out = append(out, patientView(p))
	}
	return out
}
