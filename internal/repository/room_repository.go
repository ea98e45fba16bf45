package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// RoomRepo is the read-only room catalog.  Rooms and buildings are managed
// elsewhere; the engine only ever reads them.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, building_id, name, capacity, room_type, is_active, created_at`

func (r *RoomRepo) Room(ctx context.Context, id uint64) (*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	var room model.Room
	err := r.db.QueryRowContext(ctx, q, id).Scan(&room.ID, &room.BuildingID, &room.Name,
		&room.Capacity, &room.RoomType, &room.IsActive, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ActiveRoomsByCapacity lists active rooms with at least the given capacity,
// tightest fit first: capacity ascending, then id for determinism.
func (r *RoomRepo) ActiveRoomsByCapacity(ctx context.Context, minCapacity uint32) ([]*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms
	      WHERE is_active = 1 AND capacity >= ?
	      ORDER BY capacity, id`
	return r.list(ctx, q, minCapacity)
}

func (r *RoomRepo) RoomsByBuilding(ctx context.Context, buildingID uint64) ([]*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE building_id = ? ORDER BY id`
	return r.list(ctx, q, buildingID)
}

func (r *RoomRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.BuildingID, &room.Name, &room.Capacity,
			&room.RoomType, &room.IsActive, &room.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &room)
	}
	return out, rows.Err()
}
