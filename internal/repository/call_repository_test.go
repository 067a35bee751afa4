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

func newMockCallRepo(t *testing.T) (*CallRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCallRepo(db), mock
}

func TestCallUpsertsExistingCall(t *testing.T) {
	repo, mock := newMockCallRepo(t)
	calledAt := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id FROM appointments WHERE id = \?`).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(`INSERT INTO current_calls \(appointment_id, called_at\) VALUES \(\?, \?\)\s+ON DUPLICATE KEY UPDATE called_at = VALUES\(called_at\)`).
		WithArgs(uint64(12), calledAt).
		WillReturnResult(sqlmock.NewResult(0, 2)) // 2 affected rows means an update path in MySQL

	err := repo.Call(context.Background(), 12, calledAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallUnknownAppointment(t *testing.T) {
	repo, mock := newMockCallRepo(t)

	mock.ExpectQuery(`SELECT id FROM appointments WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Call(context.Background(), 404, time.Now())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearMissingCall(t *testing.T) {
	repo, mock := newMockCallRepo(t)

	mock.ExpectExec(`DELETE FROM current_calls WHERE appointment_id = \?`).
		WithArgs(uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Clear(context.Background(), 12)
	assert.ErrorIs(t, err, ErrCallNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCalledSkipsEntriesWithoutTurnNumbers(t *testing.T) {
	repo, mock := newMockCallRepo(t)

	mock.ExpectQuery(`SELECT a\.id, a\.turn_number, p\.first_name, p\.last_name\s+FROM current_calls cc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "turn_number", "first_name", "last_name"}).
			AddRow(3, "A004", "Sara", "Karimi").
			AddRow(4, nil, "Omid", "Rahimi").
			AddRow(5, "", "Neda", "Moradi").
			AddRow(6, "B012", "Ali", "Hosseini"))

	entries, skipped, err := repo.ListCalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, entries, 2)
	assert.Equal(t, "A004", entries[0].TurnNumber)
	assert.Equal(t, "Sara Karimi", entries[0].PatientName)
	assert.Equal(t, "B012", entries[1].TurnNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQueuedOrdersByArrival(t *testing.T) {
	repo, mock := newMockCallRepo(t)

	mock.ExpectQuery(`WHERE a\.status = 'queued'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "turn_number", "first_name", "last_name"}).
			AddRow(7, "A005", "Mina", "Saberi").
			AddRow(8, "A006", "Reza", "Tehrani"))

	entries, err := repo.ListQueued(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(7), entries[0].AppointmentID)
	assert.Equal(t, "A006", entries[1].TurnNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
