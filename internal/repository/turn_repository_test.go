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

func newMockTurnRepo(t *testing.T, now time.Time) (*TurnRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewTurnRepo(db)
	repo.now = func() time.Time { return now }
	return repo, mock
}

func TestNextTurnIncrementsSameDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.Local)
	repo, mock := newMockTurnRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM doctors WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT id, letter, current_number, last_reset_date FROM turn_sequences WHERE doctor_id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "letter", "current_number", "last_reset_date"}).
			AddRow(3, "A", 6, time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)))
	mock.ExpectExec(`UPDATE turn_sequences SET current_number = \?, last_reset_date = \? WHERE id = \?`).
		WithArgs(7, "2026-03-10", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.NextTurn(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "A007", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextTurnResetsOnNewDay(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local)
	repo, mock := newMockTurnRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM doctors WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT id, letter, current_number, last_reset_date FROM turn_sequences WHERE doctor_id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "letter", "current_number", "last_reset_date"}).
			AddRow(3, "C", 42, time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)))
	mock.ExpectExec(`UPDATE turn_sequences SET current_number = \?, last_reset_date = \? WHERE id = \?`).
		WithArgs(1, "2026-03-11", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	code, err := repo.NextTurn(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "C001", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextTurnClaimsLowestFreeLetter(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	repo, mock := newMockTurnRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM doctors WHERE id = \?`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(`SELECT id, letter, current_number, last_reset_date FROM turn_sequences WHERE doctor_id = \? FOR UPDATE`).
		WithArgs(uint64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT letter FROM turn_sequences FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"letter"}).AddRow("A").AddRow("B").AddRow("D"))
	mock.ExpectExec(`INSERT INTO turn_sequences`).
		WithArgs(uint64(2), "C", 1, "2026-03-10").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	code, err := repo.NextTurn(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "C001", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextTurnLettersExhausted(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	repo, mock := newMockTurnRepo(t, now)

	letters := sqlmock.NewRows([]string{"letter"})
	for _, l := range turnLetters {
		letters.AddRow(string(l))
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM doctors WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(99))
	mock.ExpectQuery(`SELECT id, letter, current_number, last_reset_date FROM turn_sequences WHERE doctor_id = \? FOR UPDATE`).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT letter FROM turn_sequences FOR UPDATE`).
		WillReturnRows(letters)
	mock.ExpectRollback()

	_, err := repo.NextTurn(context.Background(), 99)
	assert.ErrorIs(t, err, ErrLettersExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextTurnUnknownDoctor(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	repo, mock := newMockTurnRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM doctors WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.NextTurn(context.Background(), 404)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatTurnCode(t *testing.T) {
	tests := []struct {
		letter string
		n      int
		want   string
	}{
		{"A", 1, "A001"},
		{"B", 42, "B042"},
		{"Z", 999, "Z999"},
		{"Z", 1000, "Z1000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTurnCode(tt.letter, tt.n))
	}
}
