package repository

import (
	"context"
	"sync"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// MemoryCellLedger is the in-memory cell ledger used by tests and
// single-node development runs.  Each cell carries its own lock so writers
// contending for different cells never block each other; the map lock only
// guards lazy cell creation.
type MemoryCellLedger struct {
	mu    sync.RWMutex
	cells map[model.CellKey]*memCell

	// Rooms and Cache are optional; when both are set, every successful
	// write invalidates the availability entry for the cell's
	// (building, date), synchronously, matching the MySQL ledger.
	Rooms engine.RoomCatalog
	Cache engine.CacheInvalidator
}

type memCell struct {
	mu       sync.Mutex
	occupant uint64 // 0 when free
}

// NewMemoryCellLedger returns an empty ledger.
func NewMemoryCellLedger() *MemoryCellLedger {
	return &MemoryCellLedger{cells: make(map[model.CellKey]*memCell)}
}

func (l *MemoryCellLedger) cell(key model.CellKey) *memCell {
	l.mu.RLock()
	c := l.cells[key]
	l.mu.RUnlock()
	if c != nil {
		return c
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c = l.cells[key]; c == nil {
		c = &memCell{}
		l.cells[key] = c
	}
	return c
}

// TryOccupy performs the atomic check-and-set.  The critical section is a
// single comparison, so the per-cell lock is held for a bounded instant and
// the ctx bound required by the contract is trivially met.
func (l *MemoryCellLedger) TryOccupy(ctx context.Context, key model.CellKey, requestID uint64) (engine.OccupyOutcome, error) {
	if err := ctx.Err(); err != nil {
		return engine.OccupyOutcome{}, err
	}
	c := l.cell(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.occupant {
	case 0:
		c.occupant = requestID
		l.invalidate(ctx, key)
		return engine.OccupyOutcome{Committed: true, Occupant: requestID}, nil
	case requestID:
		// Re-occupying with the holder is an idempotent success.
		return engine.OccupyOutcome{Committed: true, Occupant: requestID}, nil
	default:
		return engine.OccupyOutcome{Committed: false, Occupant: c.occupant}, nil
	}
}

// Release frees the cell.  Releasing a free or unknown cell is a no-op.
func (l *MemoryCellLedger) Release(ctx context.Context, key model.CellKey) error {
	l.mu.RLock()
	c := l.cells[key]
	l.mu.RUnlock()
	if c == nil {
		return nil
	}
	c.mu.Lock()
	freed := c.occupant != 0
	c.occupant = 0
	c.mu.Unlock()
	if freed {
		l.invalidate(ctx, key)
	}
	return nil
}

// IsFree reports advisory occupancy.
func (l *MemoryCellLedger) IsFree(_ context.Context, key model.CellKey) (bool, error) {
	l.mu.RLock()
	c := l.cells[key]
	l.mu.RUnlock()
	if c == nil {
		return true, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.occupant == 0, nil
}

// Snapshot lists occupied cells for the given rooms in [from, to].
func (l *MemoryCellLedger) Snapshot(_ context.Context, roomIDs []uint64, from, to string) ([]model.OccupiedCell, error) {
	rooms := make(map[uint64]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		rooms[id] = struct{}{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.OccupiedCell
	for key, c := range l.cells {
		if _, ok := rooms[key.RoomID]; !ok {
			continue
		}
		if key.Date < from || key.Date > to {
			continue
		}
		c.mu.Lock()
		occ := c.occupant
		c.mu.Unlock()
		if occ != 0 {
			out = append(out, model.OccupiedCell{Key: key, Occupant: occ})
		}
	}
	return out, nil
}

func (l *MemoryCellLedger) invalidate(ctx context.Context, key model.CellKey) {
	if l.Rooms == nil || l.Cache == nil {
		return
	}
	room, err := l.Rooms.Room(ctx, key.RoomID)
	if err != nil || room == nil {
		return
	}
	l.Cache.Invalidate(ctx, room.BuildingID, key.Date)
}
