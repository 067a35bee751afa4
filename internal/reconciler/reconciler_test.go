package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controllab/clinic-ops/internal/repository"
)

func TestDaysElapsed(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "same day",
			from: time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local),
			to:   time.Date(2026, 6, 1, 23, 59, 0, 0, time.Local),
			want: 0,
		},
		{
			name: "ticks over at midnight",
			from: time.Date(2026, 6, 1, 23, 50, 0, 0, time.Local),
			to:   time.Date(2026, 6, 2, 0, 10, 0, 0, time.Local),
			want: 1,
		},
		{
			name: "one week",
			from: time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local),
			to:   time.Date(2026, 6, 8, 8, 0, 0, 0, time.Local),
			want: 7,
		},
		{
			name: "clock skew never goes negative",
			from: time.Date(2026, 6, 2, 9, 0, 0, 0, time.Local),
			to:   time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local),
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysElapsed(tt.from, tt.to))
		})
	}
}

func TestExpectedChargeCountsAdmissionDay(t *testing.T) {
	admitted := time.Date(2026, 6, 1, 14, 0, 0, 0, time.Local)

	// Day of admission bills one full day.
	sameDay := time.Date(2026, 6, 1, 18, 0, 0, 0, time.Local)
	assert.Equal(t, int64(150000), ExpectedCharge(admitted, sameDay, 150000))

	// Third calendar day bills three days.
	thirdDay := time.Date(2026, 6, 3, 8, 0, 0, 0, time.Local)
	assert.Equal(t, int64(450000), ExpectedCharge(admitted, thirdDay, 150000))
}

func TestSweepRatchetsAndSkipsRatelessStays(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	regs := repository.NewRegistrationRepo(db)
	r := New(regs, time.Minute, zerolog.Nop())
	now := time.Date(2026, 6, 3, 8, 0, 0, 0, time.Local)
	r.now = func() time.Time { return now }

	assignedAt := time.Date(2026, 6, 1, 14, 0, 0, 0, time.Local)
	mock.ExpectQuery(`FROM treatment_registrations tr\s+JOIN patients p`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "patient_id", "first_name", "last_name", "room_id", "price_per_day_cents",
			"assigned_at", "expected_accrued_cents",
		}).
			AddRow(1, 5, "Sara", "Karimi", 2, 150000, assignedAt, 150000).
			AddRow(2, 6, "Omid", "Rahimi", nil, nil, assignedAt, 90000))

	// Only the stay with a room rate gets an update; the rateless one is
	// skipped.
	mock.ExpectExec(`UPDATE treatment_registrations SET expected_accrued_cents = \?`).
		WithArgs(int64(450000), uint64(1), int64(450000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r.Sweep(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	regs := repository.NewRegistrationRepo(db)
	r := New(regs, time.Minute, zerolog.Nop())
	now := time.Date(2026, 6, 3, 8, 0, 0, 0, time.Local)
	r.now = func() time.Time { return now }

	assignedAt := time.Date(2026, 6, 1, 14, 0, 0, 0, time.Local)
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`FROM treatment_registrations tr\s+JOIN patients p`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "patient_id", "first_name", "last_name", "room_id", "price_per_day_cents",
				"assigned_at", "expected_accrued_cents",
			}).AddRow(1, 5, "Sara", "Karimi", 2, 150000, assignedAt, 150000))
		affected := int64(1)
		if i > 0 {
			affected = 0 // the guard leaves an already-current row alone
		}
		mock.ExpectExec(`UPDATE treatment_registrations SET expected_accrued_cents = \?`).
			WithArgs(int64(450000), uint64(1), int64(450000)).
			WillReturnResult(sqlmock.NewResult(0, affected))
	}

	r.Sweep(context.Background())
	r.Sweep(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
