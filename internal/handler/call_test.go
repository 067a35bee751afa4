package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controllab/clinic-ops/internal/config"
	"github.com/controllab/clinic-ops/internal/repository"
)

func newCallHandler(t *testing.T) (*CallHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := &config.Config{ServiceLaneLetters: "B"}
	return NewCallHandler(repository.NewCallRepo(db), cfg, zerolog.Nop()), mock
}

func TestBoardSplitsLanesByTurnLetter(t *testing.T) {
	h, mock := newCallHandler(t)

	mock.ExpectQuery(`FROM current_calls cc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "turn_number", "first_name", "last_name"}).
			AddRow(1, "B003", "Omid", "Rahimi").
			AddRow(2, "A007", "Sara", "Karimi").
			AddRow(3, "C001", "Ali", "Hosseini"))
	mock.ExpectQuery(`WHERE a\.status = 'queued'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "turn_number", "first_name", "last_name"}).
			AddRow(4, "A008", "Mina", "Saberi"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/calls", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Board(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Called struct {
			DoctorLanes []struct {
				TurnNumber string `json:"turn_number"`
			} `json:"doctor_lanes"`
			ServiceDesk []struct {
				TurnNumber string `json:"turn_number"`
			} `json:"service_desk"`
		} `json:"called"`
		Queued []struct {
			TurnNumber string `json:"turn_number"`
		} `json:"queued"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Called.DoctorLanes, 2)
	assert.Equal(t, "A007", body.Called.DoctorLanes[0].TurnNumber)
	assert.Equal(t, "C001", body.Called.DoctorLanes[1].TurnNumber)
	require.Len(t, body.Called.ServiceDesk, 1)
	assert.Equal(t, "B003", body.Called.ServiceDesk[0].TurnNumber)
	require.Len(t, body.Queued, 1)
	assert.Equal(t, "A008", body.Queued[0].TurnNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallRequiresAppointmentID(t *testing.T) {
	h, _ := newCallHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/calls", nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Call(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearReportsMissingCall(t *testing.T) {
	h, mock := newCallHandler(t)

	mock.ExpectExec(`DELETE FROM current_calls WHERE appointment_id = \?`).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/calls/9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("appointment_id")
	c.SetParamValues("9")

	require.NoError(t, h.Clear(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
