package repository

import (
	"context"
	"database/sql"

	"github.com/controllab/clinic-ops/internal/model"
)

// RoomRepo provides persistence for treatment rooms.  Occupancy is never
// stored on the room row; it is always derived from undischarged
// registrations so the capacity invariant has a single source of truth.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Create inserts a room and populates the generated ID and timestamp.
func (r *RoomRepo) Create(ctx context.Context, room *model.TreatmentRoom) error {
	const q = `INSERT INTO treatment_rooms (name, capacity, floor, price_per_day_cents) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, room.Name, room.Capacity, room.Floor, room.PricePerDayCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	const sel = `SELECT created_at FROM treatment_rooms WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, room.ID).Scan(&room.CreatedAt)
}

// GetByID returns a room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.TreatmentRoom, error) {
	const q = `SELECT id, name, capacity, floor, price_per_day_cents, created_at FROM treatment_rooms WHERE id = ?`
	var room model.TreatmentRoom
	err := r.db.QueryRowContext(ctx, q, id).Scan(&room.ID, &room.Name, &room.Capacity, &room.Floor, &room.PricePerDayCents, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns all rooms ordered by floor and name.
func (r *RoomRepo) List(ctx context.Context) ([]model.TreatmentRoom, error) {
	const q = `SELECT id, name, capacity, floor, price_per_day_cents, created_at FROM treatment_rooms ORDER BY floor, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TreatmentRoom, 0)
	for rows.Next() {
		var room model.TreatmentRoom
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity, &room.Floor, &room.PricePerDayCents, &room.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// Update rewrites the mutable room attributes.  Returns ErrRoomNotFound
// when the row does not exist.
func (r *RoomRepo) Update(ctx context.Context, room *model.TreatmentRoom) error {
	const q = `UPDATE treatment_rooms SET name = ?, capacity = ?, floor = ?, price_per_day_cents = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, room.Name, room.Capacity, room.Floor, room.PricePerDayCents, room.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Could also be an unchanged row; confirm it exists.
		var id uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM treatment_rooms WHERE id = ?`, room.ID).Scan(&id); err == sql.ErrNoRows {
			return ErrRoomNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a room.  Registration history survives: the schema's
// ON DELETE SET NULL leaves past stays pointing at a null room, which
// the billing sweep and history views handle explicitly.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM treatment_rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
