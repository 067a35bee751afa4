package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controllab/clinic-ops/internal/repository"
)

func newRegistrationHandler(t *testing.T) (*RegistrationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRegistrationHandler(repository.NewRegistrationRepo(db), zerolog.Nop()), mock
}

func TestAssignFullRoomReturns409(t *testing.T) {
	h, mock := newRegistrationHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM patients WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`SELECT capacity, price_per_day_cents FROM treatment_rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "price_per_day_cents"}).AddRow(2, 150000))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM treatment_registrations`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/rooms/assign",
		strings.NewReader(`{"patient_id":5,"room_id":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "capacity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRejectsMissingFields(t *testing.T) {
	h, _ := newRegistrationHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/rooms/assign",
		strings.NewReader(`{"patient_id":5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDischargeTwiceReturns409(t *testing.T) {
	h, mock := newRegistrationHandler(t)

	mock.ExpectExec(`UPDATE treatment_registrations SET discharged_at = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM treatment_registrations WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/registrations/10/discharge", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("10")

	require.NoError(t, h.Discharge(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
