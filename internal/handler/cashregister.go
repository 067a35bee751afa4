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

// CashHandler records front-desk transactions and serves receipts and
// patient statements.
type CashHandler struct {
	CashRepo   *repository.CashRepo
	DeskLetter string
	Logger     zerolog.Logger
	// Publish mirrors PatientHandler.Publish; nil disables it.
	Publish func(ctx context.Context, ev queue.PaymentRecordedEvent) error
}

func NewCashHandler(cash *repository.CashRepo, deskLetter string, logger zerolog.Logger) *CashHandler {
	if cash == nil {
		panic("nil repository passed to NewCashHandler")
	}
	return &CashHandler{CashRepo: cash, DeskLetter: deskLetter, Logger: logger}
}

// Create handles POST /v1/cash-register.  Each transaction also serves
// as a service-desk queue ticket: the issued turn reference shows on
// the call board in the desk lane.
func (h *CashHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		PatientID       uint64  `json:"patient_id"`
		DoctorID        *uint64 `json:"doctor_id"`
		TransactionType string  `json:"transaction_type"`
		AmountCents     int64   `json:"amount_cents"`
		PaymentMethod   string  `json:"payment_method"`
		Notes           string  `json:"notes"`
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
	if !model.ValidTransactionType(body.TransactionType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction type"})
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = model.MethodCash
	}
	if !model.ValidPaymentMethod(body.PaymentMethod) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
	}

	ctx := c.Request().Context()
	tx := &model.CashRegister{
		PatientID:       body.PatientID,
		DoctorID:        body.DoctorID,
		TransactionType: body.TransactionType,
		AmountCents:     body.AmountCents,
		PaymentMethod:   body.PaymentMethod,
		Notes:           body.Notes,
		CreatedBy:       userID,
	}
	if err := h.CashRepo.Create(ctx, h.DeskLetter, tx); err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		h.Logger.Error().Err(err).Uint64("patient_id", body.PatientID).Msg("record transaction failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if h.Publish != nil {
		ev := queue.PaymentRecordedEvent{
			PaymentID:       tx.ID,
			PatientID:       tx.PatientID,
			Source:          "cash_register",
			TransactionType: tx.TransactionType,
			AmountCents:     tx.AmountCents,
			Method:          tx.PaymentMethod,
			TurnReference:   tx.TurnReference,
			RecordedBy:      userID,
			RecordedAt:      tx.CreatedAt.Format(time.RFC3339),
		}
		if err := h.Publish(ctx, ev); err != nil {
			h.Logger.Warn().Err(err).Msg("publish payment event failed")
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"transaction_id": tx.ID,
		"turn_reference": tx.TurnReference,
		"amount_cents":   tx.AmountCents,
		"created_at":     tx.CreatedAt,
	})
}

// List handles GET /v1/cash-register, the most recent transactions.
func (h *CashHandler) List(c echo.Context) error {
	records, err := h.CashRepo.ListRecent(c.Request().Context(), 100)
	if err != nil {
		h.Logger.Error().Err(err).Msg("list transactions failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": transactionViews(records)})
}

// PatientStatement handles GET /v1/patients/:id/statement, every desk
// transaction for the patient with the running total.
func (h *CashHandler) PatientStatement(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid patient id"})
	}
	records, err := h.CashRepo.ListByPatient(c.Request().Context(), id)
	if err != nil {
		h.Logger.Error().Err(err).Uint64("patient_id", id).Msg("list patient transactions failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var total int64
	for _, r := range records {
		total += r.AmountCents
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id":   id,
		"transactions": transactionViews(records),
		"total_cents":  total,
	})
}

func transactionViews(records []repository.TransactionRecord) []echo.Map {
	out := make([]echo.Map, 0, len(records))
	for _, r := range records {
		v := echo.Map{
			"id":             r.ID,
			"patient_id":     r.PatientID,
			"patient_name":   r.PatientName,
			"type":           r.TransactionType,
			"amount_cents":   r.AmountCents,
			"payment_method": r.PaymentMethod,
			"turn_reference": r.TurnReference,
			"notes":          r.Notes,
			"created_at":     r.CreatedAt,
		}
		if r.DoctorName != nil {
			v["doctor_name"] = *r.DoctorName
		}
		out = append(out, v)
	}
	return out
}

// Receipt handles GET /v1/cash-register/:id/receipt.
func (h *CashHandler) Receipt(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	rec, err := h.CashRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		h.Logger.Error().Err(err).Uint64("transaction_id", id).Msg("load transaction failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	receipt := echo.Map{
		"transaction_id": rec.ID,
		"patient_name":   rec.PatientName,
		"type":           rec.TransactionType,
		"amount_cents":   rec.AmountCents,
		"payment_method": rec.PaymentMethod,
		"turn_reference": rec.TurnReference,
		"notes":          rec.Notes,
		"created_at":     rec.CreatedAt,
	}
	if rec.DoctorName != nil {
		receipt["doctor_name"] = *rec.DoctorName
	}
	return c.JSON(http.StatusOK, echo.Map{"receipt": receipt})
}
