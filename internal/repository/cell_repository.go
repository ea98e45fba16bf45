package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// CellRepo is the MySQL-backed cell ledger.  The cells table carries one row
// per ever-touched cell with a UNIQUE(room_id, slot_id, date) key; a NULL
// occupant_request_id means free.  Rows are created lazily on first write
// and never deleted.
type CellRepo struct {
	db *sql.DB
	// rooms and cache are optional; when both are set, every successful
	// write synchronously invalidates the availability entry for the
	// affected (building, date).
	rooms engine.RoomCatalog
	cache engine.CacheInvalidator
}

// NewCellRepo constructs a CellRepo.  rooms and cache may be nil when no
// derived availability view is kept.
func NewCellRepo(db *sql.DB, rooms engine.RoomCatalog, cache engine.CacheInvalidator) *CellRepo {
	return &CellRepo{db: db, rooms: rooms, cache: cache}
}

// TryOccupy is the single atomic check-and-set.  One upsert claims the cell
// only when its occupant column is NULL; MySQL's row-level locking makes the
// statement linearizable per cell, and callers on other cells touch other
// rows and never block.  The caller's ctx bounds any lock wait, so a stalled
// writer fails the statement instead of hanging; a raced write simply loses
// and reads back the winner.
func (r *CellRepo) TryOccupy(ctx context.Context, key model.CellKey, requestID uint64) (engine.OccupyOutcome, error) {
	outcome, wrote, err := claimCell(ctx, requestID,
		func(ctx context.Context) (bool, error) { return r.upsertOccupant(ctx, key, requestID) },
		func(ctx context.Context) (uint64, error) { return r.occupant(ctx, key) },
	)
	if err != nil {
		return engine.OccupyOutcome{}, err
	}
	if wrote {
		r.invalidate(ctx, key)
	}
	return outcome, nil
}

// upsertOccupant runs the claim statement and reports whether it changed the
// row.  RowsAffected is 1 for a fresh insert and 2 for an update that set the
// column; 0 means the occupant was already present and COALESCE kept it.
func (r *CellRepo) upsertOccupant(ctx context.Context, key model.CellKey, requestID uint64) (bool, error) {
	const q = `INSERT INTO cells (room_id, slot_id, date, occupant_request_id)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE occupant_request_id = COALESCE(occupant_request_id, VALUES(occupant_request_id))`
	res, err := r.db.ExecContext(ctx, q, key.RoomID, key.SlotID, key.Date, requestID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// claimCell drives the upsert/read-back pair to a definitive outcome.  The
// two statements are not one atomic unit: the occupant can release between a
// lost upsert and the read-back, in which case the read sees a free cell and
// the claim must be retried rather than reported as contended against nobody.
// The loop is bounded by ctx; each retry re-runs the atomic upsert, so the
// result is always a real commit or a real occupant id.  The second return
// reports whether the row actually changed; an idempotent re-commit does not
// write and must not invalidate the availability cache.
func claimCell(ctx context.Context, requestID uint64, upsert func(context.Context) (bool, error), readOccupant func(context.Context) (uint64, error)) (engine.OccupyOutcome, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return engine.OccupyOutcome{}, false, err
		}
		changed, err := upsert(ctx)
		if err != nil {
			return engine.OccupyOutcome{}, false, err
		}
		if changed {
			return engine.OccupyOutcome{Committed: true, Occupant: requestID}, true, nil
		}
		occupant, err := readOccupant(ctx)
		if err != nil {
			return engine.OccupyOutcome{}, false, err
		}
		switch occupant {
		case requestID:
			// Idempotent re-commit by the current holder.
			return engine.OccupyOutcome{Committed: true, Occupant: requestID}, false, nil
		case 0:
			// Released between the statements; claim again.
			continue
		default:
			return engine.OccupyOutcome{Committed: false, Occupant: occupant}, false, nil
		}
	}
}

// Release frees the cell.  Releasing a free or never-created cell affects
// zero rows and is a no-op by design.
func (r *CellRepo) Release(ctx context.Context, key model.CellKey) error {
	const q = `UPDATE cells SET occupant_request_id = NULL
	           WHERE room_id = ? AND slot_id = ? AND date = ? AND occupant_request_id IS NOT NULL`
	res, err := r.db.ExecContext(ctx, q, key.RoomID, key.SlotID, key.Date)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		r.invalidate(ctx, key)
	}
	return nil
}

// IsFree reports advisory occupancy; a missing row counts as free.
func (r *CellRepo) IsFree(ctx context.Context, key model.CellKey) (bool, error) {
	occupant, err := r.occupant(ctx, key)
	if err != nil {
		return false, err
	}
	return occupant == 0, nil
}

func (r *CellRepo) occupant(ctx context.Context, key model.CellKey) (uint64, error) {
	const q = `SELECT occupant_request_id FROM cells WHERE room_id = ? AND slot_id = ? AND date = ?`
	var occupant sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, key.RoomID, key.SlotID, key.Date).Scan(&occupant)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !occupant.Valid {
		return 0, nil
	}
	return uint64(occupant.Int64), nil
}

// Snapshot lists occupied cells for the given rooms in [from, to].
func (r *CellRepo) Snapshot(ctx context.Context, roomIDs []uint64, from, to string) ([]model.OccupiedCell, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roomIDs)), ",")
	q := `SELECT room_id, DATE_FORMAT(date, '%Y-%m-%d'), slot_id, occupant_request_id
	      FROM cells
	      WHERE occupant_request_id IS NOT NULL AND date BETWEEN ? AND ? AND room_id IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(roomIDs)+2)
	args = append(args, from, to)
	for _, id := range roomIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
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

func (r *CellRepo) invalidate(ctx context.Context, key model.CellKey) {
	if r.rooms == nil || r.cache == nil {
		return
	}
	room, err := r.rooms.Room(ctx, key.RoomID)
	if err != nil || room == nil {
		return
	}
	r.cache.Invalidate(ctx, room.BuildingID, key.Date)
}
