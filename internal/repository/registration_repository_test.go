package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRegRepo(t *testing.T, now time.Time) (*RegistrationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewRegistrationRepo(db)
	repo.now = func() time.Time { return now }
	return repo, mock
}

func TestAssignSeedsFirstDayCharge(t *testing.T) {
	now := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)
	repo, mock := newMockRegRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM patients WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`SELECT capacity, price_per_day_cents FROM treatment_rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "price_per_day_cents"}).AddRow(3, 150000))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM treatment_registrations WHERE room_id = \? AND discharged_at IS NULL`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id FROM appointments WHERE patient_id = \? ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(44))
	mock.ExpectExec(`INSERT INTO treatment_registrations`).
		WithArgs(uint64(5), uint64(2), uint64(44), now, int64(150000)).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	reg, err := repo.Assign(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), reg.ID)
	assert.Equal(t, int64(150000), reg.ExpectedAccruedCents)
	assert.Equal(t, uint64(44), reg.AppointmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRejectsFullRoom(t *testing.T) {
	now := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)
	repo, mock := newMockRegRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM patients WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`SELECT capacity, price_per_day_cents FROM treatment_rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "price_per_day_cents"}).AddRow(2, 150000))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM treatment_registrations WHERE room_id = \? AND discharged_at IS NULL`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.Assign(context.Background(), 5, 2)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDischargeTwiceConflicts(t *testing.T) {
	now := time.Date(2026, 4, 3, 16, 0, 0, 0, time.UTC)
	repo, mock := newMockRegRepo(t, now)

	mock.ExpectExec(`UPDATE treatment_registrations SET discharged_at = \? WHERE id = \? AND discharged_at IS NULL`).
		WithArgs(now, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM treatment_registrations WHERE id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	err := repo.Discharge(context.Background(), 10)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDischargeUnknownRegistration(t *testing.T) {
	now := time.Date(2026, 4, 3, 16, 0, 0, 0, time.UTC)
	repo, mock := newMockRegRepo(t, now)

	mock.ExpectExec(`UPDATE treatment_registrations SET discharged_at = \? WHERE id = \? AND discharged_at IS NULL`).
		WithArgs(now, uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM treatment_registrations WHERE id = \?`).
		WithArgs(uint64(77)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Discharge(context.Background(), 77)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveKeepsStayStartAndAppointment(t *testing.T) {
	now := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	assignedAt := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)
	repo, mock := newMockRegRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT patient_id, appointment_id, assigned_at, discharged_at, expected_accrued_cents\s+FROM treatment_registrations WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "appointment_id", "assigned_at", "discharged_at", "expected_accrued_cents"}).
			AddRow(5, 44, assignedAt, nil, 750000))
	mock.ExpectQuery(`SELECT capacity, price_per_day_cents FROM treatment_rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "price_per_day_cents"}).AddRow(4, 200000))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM treatment_registrations WHERE room_id = \? AND discharged_at IS NULL`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE treatment_registrations SET discharged_at = \? WHERE id = \?`).
		WithArgs(now, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO treatment_registrations`).
		WithArgs(uint64(5), uint64(3), uint64(44), assignedAt, int64(750000)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	reg, err := repo.Move(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), reg.ID)
	assert.Equal(t, assignedAt, reg.AssignedAt)
	assert.Equal(t, uint64(44), reg.AppointmentID)
	assert.Equal(t, int64(750000), reg.ExpectedAccruedCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveAlreadyDischarged(t *testing.T) {
	now := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	repo, mock := newMockRegRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT patient_id, appointment_id, assigned_at, discharged_at, expected_accrued_cents\s+FROM treatment_registrations WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "appointment_id", "assigned_at", "discharged_at", "expected_accrued_cents"}).
			AddRow(5, 44, time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC), time.Date(2026, 4, 4, 9, 0, 0, 0, time.UTC), 450000))
	mock.ExpectRollback()

	_, err := repo.Move(context.Background(), 10, 3)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatchetExpectedOnlyRaises(t *testing.T) {
	repo, mock := newMockRegRepo(t, time.Now())

	mock.ExpectExec(`UPDATE treatment_registrations SET expected_accrued_cents = \? WHERE id = \? AND expected_accrued_cents < \?`).
		WithArgs(int64(300000), uint64(10), int64(300000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	changed, err := repo.RatchetExpected(context.Background(), 10, 300000)
	require.NoError(t, err)
	assert.True(t, changed)

	mock.ExpectExec(`UPDATE treatment_registrations SET expected_accrued_cents = \? WHERE id = \? AND expected_accrued_cents < \?`).
		WithArgs(int64(300000), uint64(10), int64(300000)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	changed, err = repo.RatchetExpected(context.Background(), 10, 300000)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
