package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TurnRepo issues per-doctor turn codes.  All state lives in the
// turn_sequences table (one row per doctor, unique letter); the
// read-modify-write of the counter runs under SELECT ... FOR UPDATE so
// two concurrent requests for the same doctor can never produce the same
// code.  Letter claiming locks the whole letter pool for the duration of
// the transaction, which is fine: it happens once per doctor, ever.
type TurnRepo struct {
	db *sql.DB
	// now is stubbed in tests; production uses time.Now.
	now func() time.Time
}

// NewTurnRepo returns a new TurnRepo bound to the given database.
func NewTurnRepo(db *sql.DB) *TurnRepo { return &TurnRepo{db: db, now: time.Now} }

const turnLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// formatTurnCode renders letter + zero-padded number.  Padding is three
// digits; numbers past 999 simply widen, there is no wraparound.
func formatTurnCode(letter string, n int) string {
	return fmt.Sprintf("%s%03d", letter, n)
}

// NextTurn returns the next turn code for the doctor, creating the
// sequence (and claiming the smallest unused letter) on first use.  The
// counter restarts at 1 the first time the sequence is touched on a new
// calendar day, in server-local time.  Returns ErrDoctorNotFound when
// the doctor does not exist and ErrLettersExhausted when a new sequence
// is needed but all 26 letters are taken.
func (r *TurnRepo) NextTurn(ctx context.Context, doctorID uint64) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM doctors WHERE id = ?`, doctorID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrDoctorNotFound
		}
		return "", err
	}

	today := r.now().Local().Format("2006-01-02")

	var (
		seqID     uint64
		letter    string
		current   int
		lastReset time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, letter, current_number, last_reset_date FROM turn_sequences WHERE doctor_id = ? FOR UPDATE`,
		doctorID,
	).Scan(&seqID, &letter, &current, &lastReset)
	switch {
	case err == sql.ErrNoRows:
		letter, err = r.claimLetterTx(ctx, tx)
		if err != nil {
			return "", err
		}
		current = 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turn_sequences (doctor_id, letter, current_number, last_reset_date) VALUES (?, ?, ?, ?)`,
			doctorID, letter, current, today,
		); err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		if lastReset.Format("2006-01-02") != today {
			current = 1
		} else {
			current++
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE turn_sequences SET current_number = ?, last_reset_date = ? WHERE id = ?`,
			current, today, seqID,
		); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	committed = true
	return formatTurnCode(letter, current), nil
}

// claimLetterTx picks the lexicographically smallest letter not yet held
// by any sequence.  The existing rows are locked so two doctors created
// concurrently cannot claim the same letter; the unique index on letter
// backs this up.
func (r *TurnRepo) claimLetterTx(ctx context.Context, tx *sql.Tx) (string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT letter FROM turn_sequences FOR UPDATE`)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, 26)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			rows.Close()
			return "", err
		}
		used[l] = true
	}
	if err := rows.Close(); err != nil {
		return "", err
	}
	for _, l := range turnLetters {
		if !used[string(l)] {
			return string(l), nil
		}
	}
	return "", ErrLettersExhausted
}
