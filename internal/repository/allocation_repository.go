package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// AllocationRepo persists timetables, course allocations and the set of
// cells each allocation has materialized (allocation_cells).
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo returns an AllocationRepo bound to the given database.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

func (r *AllocationRepo) Allocation(ctx context.Context, id uint64) (*model.TimetableAllocation, error) {
	const q = `SELECT id, timetable_id, course_id, room_id, slot_id, created_at FROM allocations WHERE id = ?`
	var alloc model.TimetableAllocation
	err := r.db.QueryRowContext(ctx, q, id).Scan(&alloc.ID, &alloc.TimetableID, &alloc.CourseID,
		&alloc.RoomID, &alloc.SlotID, &alloc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

func (r *AllocationRepo) Timetable(ctx context.Context, id uint64) (*model.Timetable, error) {
	const q = `SELECT id, name, DATE_FORMAT(semester_from, '%Y-%m-%d'), DATE_FORMAT(semester_to, '%Y-%m-%d'), created_at
	           FROM timetables WHERE id = ?`
	var tt model.Timetable
	err := r.db.QueryRowContext(ctx, q, id).Scan(&tt.ID, &tt.Name, &tt.SemesterFrom, &tt.SemesterTo, &tt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *AllocationRepo) ListByTimetable(ctx context.Context, timetableID uint64) ([]*model.TimetableAllocation, error) {
	const q = `SELECT id, timetable_id, course_id, room_id, slot_id, created_at
	           FROM allocations WHERE timetable_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, timetableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.TimetableAllocation
	for rows.Next() {
		var alloc model.TimetableAllocation
		if err := rows.Scan(&alloc.ID, &alloc.TimetableID, &alloc.CourseID,
			&alloc.RoomID, &alloc.SlotID, &alloc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &alloc)
	}
	return out, rows.Err()
}

func (r *AllocationRepo) UpdateSlot(ctx context.Context, id, slotID uint64) error {
	return r.updateColumn(ctx, id, `UPDATE allocations SET slot_id = ? WHERE id = ?`, slotID)
}

func (r *AllocationRepo) UpdateRoom(ctx context.Context, id, roomID uint64) error {
	return r.updateColumn(ctx, id, `UPDATE allocations SET room_id = ? WHERE id = ?`, roomID)
}

func (r *AllocationRepo) updateColumn(ctx context.Context, id uint64, q string, value uint64) error {
	res, err := r.db.ExecContext(ctx, q, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", engine.ErrAllocationNotFound, id)
	}
	return nil
}

// MaterializedCells lists the cells the allocation currently holds with the
// timetable-derived request occupying each.
func (r *AllocationRepo) MaterializedCells(ctx context.Context, allocationID uint64) ([]model.OccupiedCell, error) {
	const q = `SELECT room_id, DATE_FORMAT(date, '%Y-%m-%d'), slot_id, request_id
	           FROM allocation_cells WHERE allocation_id = ? ORDER BY date, room_id`
	rows, err := r.db.QueryContext(ctx, q, allocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.OccupiedCell
	for rows.Next() {
		var oc model.OccupiedCell
		if err := rows.Scan(&oc.Key.RoomID, &oc.Key.Date, &oc.Key.SlotID, &oc.Occupant); err != nil {
			return nil, err
		}
		out = append(out, oc)
	}
	return out, rows.Err()
}

func (r *AllocationRepo) RecordMaterialized(ctx context.Context, allocationID uint64, key model.CellKey, requestID uint64) error {
	const q = `INSERT INTO allocation_cells (allocation_id, room_id, date, slot_id, request_id)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, allocationID, key.RoomID, key.Date, key.SlotID, requestID)
	return err
}

func (r *AllocationRepo) ClearMaterialized(ctx context.Context, allocationID uint64, key model.CellKey) error {
	const q = `DELETE FROM allocation_cells
	           WHERE allocation_id = ? AND room_id = ? AND date = ? AND slot_id = ?`
	_, err := r.db.ExecContext(ctx, q, allocationID, key.RoomID, key.Date, key.SlotID)
	return err
}

// CoursesAtSlot lists course ids with an allocation in the given slot,
// excluding excludeCourseID.
func (r *AllocationRepo) CoursesAtSlot(ctx context.Context, slotID, excludeCourseID uint64) ([]uint64, error) {
	const q = `SELECT DISTINCT course_id FROM allocations
	           WHERE slot_id = ? AND course_id <> ? ORDER BY course_id`
	rows, err := r.db.QueryContext(ctx, q, slotID, excludeCourseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
