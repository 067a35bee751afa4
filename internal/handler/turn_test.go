package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controllab/clinic-ops/internal/repository"
)

// nowMidnight keeps the mocked sequence row on today's date so the
// counter increments instead of resetting.
func nowMidnight() time.Time {
	n := time.Now().Local()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}

func newTurnHandler(t *testing.T) (*TurnHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTurnHandler(repository.NewTurnRepo(db), repository.NewDoctorRepo(db), zerolog.Nop()), mock
}

func TestNextTurnUnknownDoctorReturns404(t *testing.T) {
	h, mock := newTurnHandler(t)

	mock.ExpectQuery(`FROM doctors WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/turns/404/next", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("doctor_id")
	c.SetParamValues("404")

	require.NoError(t, h.Next(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextTurnIssuesCode(t *testing.T) {
	h, mock := newTurnHandler(t)

	mock.ExpectQuery(`FROM doctors WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "specialty", "consultation_price_cents", "created_at"}).
			AddRow(7, "Dr. Azizi", "cardiology", 500000, time.Now()))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM doctors WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM turn_sequences WHERE doctor_id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "letter", "current_number", "last_reset_date"}).
			AddRow(3, "A", 6, nowMidnight()))
	mock.ExpectExec(`UPDATE turn_sequences SET current_number = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/turns/7/next", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("doctor_id")
	c.SetParamValues("7")

	require.NoError(t, h.Next(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		DoctorName string `json:"doctor_name"`
		TurnNumber string `json:"turn_number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Dr. Azizi", body.DoctorName)
	assert.Equal(t, "A007", body.TurnNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextTurnRejectsBadDoctorID(t *testing.T) {
	h, _ := newTurnHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/turns/zero/next", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("doctor_id")
	c.SetParamValues("zero")

	require.NoError(t, h.Next(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
