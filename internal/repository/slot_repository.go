package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// SlotRepo is the read-only abstract-slot catalog.  A slot row stores its
// weekday as 0 (Sunday) through 6 (Saturday), matching time.Weekday.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

func (r *SlotRepo) Slot(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	const q = `SELECT id, name, weekday, start_time, end_time, created_at FROM time_slots WHERE id = ?`
	var slot model.TimeSlot
	var weekday int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&slot.ID, &slot.Name, &weekday,
		&slot.StartTime, &slot.EndTime, &slot.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slot.Weekday = time.Weekday(weekday)
	return &slot, nil
}

func (r *SlotRepo) Slots(ctx context.Context) ([]*model.TimeSlot, error) {
	const q = `SELECT id, name, weekday, start_time, end_time, created_at FROM time_slots ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.TimeSlot
	for rows.Next() {
		var slot model.TimeSlot
		var weekday int
		if err := rows.Scan(&slot.ID, &slot.Name, &weekday, &slot.StartTime, &slot.EndTime, &slot.CreatedAt); err != nil {
			return nil, err
		}
		slot.Weekday = time.Weekday(weekday)
		out = append(out, &slot)
	}
	return out, rows.Err()
}
