package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// AvailabilityView serves fast range queries over the cell ledger through a
// redis-backed, invalidate-on-write day cache.  The view is derived and
// never authoritative: reads are "recent", not "current", within the cache
// TTL - but an invalidation always lands synchronously with the ledger
// write, so a read immediately after a commit sees the commit.
//
// A nil redis client disables caching and every query reads the ledger
// directly, following the degrade-gracefully convention of the rest of the
// service.
type AvailabilityView struct {
	Ledger CellLedger
	Rooms  RoomCatalog
	RDB    *redis.Client
	TTL    time.Duration
}

// RoomAvailability is one room's occupancy over the queried range: for each
// date, the slot ids currently occupied.  Free slots are derivable from the
// slot catalog and are not repeated per room.
type RoomAvailability struct {
	RoomID   uint64              `json:"room_id"`
	RoomName string              `json:"room_name"`
	Capacity uint32              `json:"capacity"`
	Occupied map[string][]uint64 `json:"occupied"`
}

// AvailabilityMatrix is the answer to a range query.
type AvailabilityMatrix struct {
	From  string             `json:"from"`
	To    string             `json:"to"`
	Rooms []RoomAvailability `json:"rooms"`
}

// dayEntry is the cached unit: all occupied cells of one building on one
// date.
type dayEntry struct {
	Cells []model.OccupiedCell `json:"cells"`
}

func availKey(buildingID uint64, date string) string {
	return fmt.Sprintf("avail:%d:%s", buildingID, date)
}

// Invalidate drops the cached day for the affected building.  Called
// synchronously by ledger write paths; see CacheInvalidator.
func (v *AvailabilityView) Invalidate(ctx context.Context, buildingID uint64, date string) {
	if v == nil || v.RDB == nil {
		return
	}
	if err := v.RDB.Del(ctx, availKey(buildingID, date)).Err(); err != nil {
		// Failing open here would serve stale data past a commit, which is
		// a correctness bug; expire the key instead so the worst case is a
		// short stale window bounded by the write, not the TTL.
		log.Printf("availability: invalidate %s failed: %v", availKey(buildingID, date), err)
	}
}

// QueryBuilding returns the availability matrix for every room of a
// building over [from, to].
func (v *AvailabilityView) QueryBuilding(ctx context.Context, buildingID uint64, from, to string) (*AvailabilityMatrix, error) {
	start, end, err := ValidateRange(from, to)
	if err != nil {
		return nil, err
	}
	rooms, err := v.Rooms.RoomsByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("%w: building %d", ErrCellUnknown, buildingID)
	}
	return v.build(ctx, buildingID, rooms, start, end, from, to)
}

// QueryRoom returns the availability matrix for a single room over
// [from, to].  The cache is still consulted at building granularity.
func (v *AvailabilityView) QueryRoom(ctx context.Context, roomID uint64, from, to string) (*AvailabilityMatrix, error) {
	start, end, err := ValidateRange(from, to)
	if err != nil {
		return nil, err
	}
	room, err := v.Rooms.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %d", ErrCellUnknown, roomID)
	}
	return v.build(ctx, room.BuildingID, []*model.Room{room}, start, end, from, to)
}

func (v *AvailabilityView) build(ctx context.Context, buildingID uint64, rooms []*model.Room, start, end time.Time, from, to string) (*AvailabilityMatrix, error) {
	roomIDs := make([]uint64, 0, len(rooms))
	wanted := make(map[uint64]struct{}, len(rooms))
	for _, r := range rooms {
		roomIDs = append(roomIDs, r.ID)
		wanted[r.ID] = struct{}{}
	}

	perRoom := make(map[uint64]map[string][]uint64, len(rooms))
	add := func(oc model.OccupiedCell) {
		if _, ok := wanted[oc.Key.RoomID]; !ok {
			return
		}
		byDate := perRoom[oc.Key.RoomID]
		if byDate == nil {
			byDate = make(map[string][]uint64)
			perRoom[oc.Key.RoomID] = byDate
		}
		byDate[oc.Key.Date] = append(byDate[oc.Key.Date], oc.Key.SlotID)
	}

	if v.RDB == nil {
		cells, err := v.Ledger.Snapshot(ctx, roomIDs, from, to)
		if err != nil {
			return nil, err
		}
		for _, oc := range cells {
			add(oc)
		}
	} else {
		for _, date := range DatesBetween(start, end) {
			entry, err := v.dayCells(ctx, buildingID, date)
			if err != nil {
				return nil, err
			}
			for _, oc := range entry {
				add(oc)
			}
		}
	}

	matrix := &AvailabilityMatrix{From: from, To: to}
	for _, r := range rooms {
		occupied := perRoom[r.ID]
		if occupied == nil {
			occupied = map[string][]uint64{}
		}
		matrix.Rooms = append(matrix.Rooms, RoomAvailability{
			RoomID:   r.ID,
			RoomName: r.Name,
			Capacity: r.Capacity,
			Occupied: occupied,
		})
	}
	return matrix, nil
}

// dayCells serves one (building, date) entry, filling the cache on a miss.
// Cache failures fall through to the ledger so a query never fails on valid
// input because of redis.
func (v *AvailabilityView) dayCells(ctx context.Context, buildingID uint64, date string) ([]model.OccupiedCell, error) {
	key := availKey(buildingID, date)
	if raw, err := v.RDB.Get(ctx, key).Bytes(); err == nil {
		var entry dayEntry
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			return entry.Cells, nil
		}
		// Corrupt entry: drop it and rebuild below.
		_ = v.RDB.Del(ctx, key).Err()
	}
	rooms, err := v.Rooms.RoomsByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	roomIDs := make([]uint64, 0, len(rooms))
	for _, r := range rooms {
		roomIDs = append(roomIDs, r.ID)
	}
	cells, err := v.Ledger.Snapshot(ctx, roomIDs, date, date)
	if err != nil {
		return nil, err
	}
	ttl := v.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if raw, err := json.Marshal(dayEntry{Cells: cells}); err == nil {
		if setErr := v.RDB.Set(ctx, key, raw, ttl).Err(); setErr != nil {
			log.Printf("availability: cache fill %s failed: %v", key, setErr)
		}
	}
	return cells, nil
}
