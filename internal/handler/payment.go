package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/model"
	"github.com/controllab/clinic-ops/internal/queue"
	"github.com/controllab/clinic-ops/internal/repository"
)

// PaymentHandler covers the treatment payment ledger: recording money
// against stays, the per-room billing board, receipts and rollups.
type PaymentHandler struct {
	PaymentRepo *repository.PaymentRepo
	RegRepo     *repository.RegistrationRepo
	RoomRepo    *repository.RoomRepo
	Logger      zerolog.Logger
	// Publish mirrors PatientHandler.Publish; nil disables it.
	Publish func(ctx context.Context, ev queue.PaymentRecordedEvent) error
}

func NewPaymentHandler(payments *repository.PaymentRepo, regs *repository.RegistrationRepo, rooms *repository.RoomRepo, logger zerolog.Logger) *PaymentHandler {
	if payments == nil || regs == nil || rooms == nil {
		panic("nil repository passed to NewPaymentHandler")
	}
	return &PaymentHandler{PaymentRepo: payments, RegRepo: regs, RoomRepo: rooms, Logger: logger}
}

// Record handles POST /v1/treatment-payments.
func (h *PaymentHandler) Record(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		PatientID     uint64 `json:"patient_id"`
		AmountCents   int64  `json:"amount_cents"`
		PaymentMethod string `json:"payment_method"`
		Notes         string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PatientID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patient_id is required"})
	}
	if body.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = model.MethodCash
	}
	if !model.ValidPaymentMethod(body.PaymentMethod) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
	}

	ctx := c.Request().Context()

	// Status stored with the entry reflects the balance after this
	// payment; the board recomputes it live on every read.
	paidBefore, err := h.PaymentRepo.SumByPatient(ctx, body.PatientID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("sum payments failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var expected int64
	if reg, err := h.RegRepo.ActiveByPatient(ctx, body.PatientID); err == nil {
		expected = reg.ExpectedAccruedCents
	} else if !errors.Is(err, repository.ErrRegistrationNotFound) {
		h.Logger.Error().Err(err).Msg("lookup active stay failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	status, _ := model.ClassifyPayment(paidBefore+body.AmountCents, expected)
	if status == model.PaymentPrepaid {
		// Ledger rows only record the three observable states.
		status = model.PaymentPaid
	}

	p := &model.TreatmentPayment{
		PatientID:     body.PatientID,
		AmountCents:   body.AmountCents,
		Status:        status,
		PaymentMethod: body.PaymentMethod,
		Notes:         body.Notes,
		RecordedBy:    userID,
		PaidAt:        time.Now().UTC(),
	}
	if err := h.PaymentRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		h.Logger.Error().Err(err).Msg("record payment failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if h.Publish != nil {
		ev := queue.PaymentRecordedEvent{
			PaymentID:   p.ID,
			PatientID:   p.PatientID,
			Source:      "treatment",
			AmountCents: p.AmountCents,
			Method:      p.PaymentMethod,
			RecordedBy:  userID,
			RecordedAt:  p.PaidAt.Format(time.RFC3339),
		}
		if err := h.Publish(ctx, ev); err != nil {
			h.Logger.Warn().Err(err).Msg("publish payment event failed")
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"payment_id":   p.ID,
		"patient_id":   p.PatientID,
		"amount_cents": p.AmountCents,
		"status":       p.Status,
		"paid_at":      p.PaidAt,
	})
}

// RoomsBoard handles GET /v1/treatment-payments/rooms, the billing
// board: every room with its occupants, each carrying expected accrual,
// ledger total and live payment status.
func (h *PaymentHandler) RoomsBoard(c echo.Context) error {
	ctx := c.Request().Context()
	rooms, err := h.RoomRepo.List(ctx)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list rooms failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]echo.Map, 0, len(rooms))
	for _, room := range rooms {
		stays, err := h.RegRepo.ActiveStaysByRoom(ctx, room.ID)
		if err != nil {
			h.Logger.Error().Err(err).Uint64("room_id", room.ID).Msg("list stays failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		patients := make([]echo.Map, 0, len(stays))
		for _, s := range stays {
			view, err := h.stayBilling(ctx, s)
			if err != nil {
				h.Logger.Error().Err(err).Uint64("registration_id", s.RegistrationID).Msg("stay billing failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
			patients = append(patients, view)
		}
		out = append(out, echo.Map{
			"room":     roomView(room),
			"patients": patients,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

func (h *PaymentHandler) stayBilling(ctx context.Context, s repository.ActiveStay) (echo.Map, error) {
	paid, err := h.PaymentRepo.SumByPatient(ctx, s.PatientID)
	if err != nil {
		return nil, err
	}
	status, overpaid := model.ClassifyPayment(paid, s.ExpectedAccruedCents)
	due := s.ExpectedAccruedCents - paid
	if due < 0 {
		due = 0
	}
	return echo.Map{
		"registration_id":        s.RegistrationID,
		"patient_id":             s.PatientID,
		"patient_name":           s.PatientName,
		"assigned_at":            s.AssignedAt,
		"expected_accrued_cents": s.ExpectedAccruedCents,
		"paid_cents":             paid,
		"due_cents":              due,
		"overpaid_cents":         overpaid,
		"payment_status":         status,
	}, nil
}

// Stats handles GET /v1/treatment-payments/stats.
func (h *PaymentHandler) Stats(c echo.Context) error {
	stats, err := h.PaymentRepo.Stats(c.Request().Context(), time.Now())
	if err != nil {
		h.Logger.Error().Err(err).Msg("payment stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Receipt handles GET /v1/treatment-payments/:id/receipt.
func (h *PaymentHandler) Receipt(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	p, patientName, err := h.PaymentRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		h.Logger.Error().Err(err).Uint64("payment_id", id).Msg("load payment failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"receipt": echo.Map{
			"payment_id":     p.ID,
			"patient_id":     p.PatientID,
			"patient_name":   patientName,
			"amount_cents":   p.AmountCents,
			"status":         p.Status,
			"payment_method": p.PaymentMethod,
			"notes":          p.Notes,
			"paid_at":        p.PaidAt,
		},
	})
}

// PatientPayments handles GET /v1/patients/:id/treatment-payments, the
// patient's ledger with running totals.
func (h *PaymentHandler) PatientPayments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid patient id"})
	}
	ctx := c.Request().Context()
	payments, err := h.PaymentRepo.ListByPatient(ctx, id)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("patient_id", id).Msg("list payments failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var total int64
	views := make([]echo.Map, 0, len(payments))
	for _, p := range payments {
		total += p.AmountCents
		views = append(views, echo.Map{
			"id":             p.ID,
			"amount_cents":   p.AmountCents,
			"status":         p.Status,
			"payment_method": p.PaymentMethod,
			"notes":          p.Notes,
			"paid_at":        p.PaidAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id":  id,
		"payments":    views,
		"total_cents": total,
	})
}
