package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// In-memory catalog collaborators.  Catalogs are read-only to the engine;
// the Put methods exist so tests and dev fixtures can seed them.

// MemoryRoomCatalog holds rooms and their buildings.
type MemoryRoomCatalog struct {
	mu    sync.RWMutex
	rooms map[uint64]*model.Room
}

func NewMemoryRoomCatalog() *MemoryRoomCatalog {
	return &MemoryRoomCatalog{rooms: make(map[uint64]*model.Room)}
}

func (c *MemoryRoomCatalog) Put(room model.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := room
	c.rooms[room.ID] = &cp
}

func (c *MemoryRoomCatalog) Room(_ context.Context, id uint64) (*model.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	room, ok := c.rooms[id]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

func (c *MemoryRoomCatalog) ActiveRoomsByCapacity(_ context.Context, minCapacity uint32) ([]*model.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*model.Room
	for _, room := range c.rooms {
		if room.IsActive && room.Capacity >= minCapacity {
			cp := *room
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *MemoryRoomCatalog) RoomsByBuilding(_ context.Context, buildingID uint64) ([]*model.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*model.Room
	for _, room := range c.rooms {
		if room.BuildingID == buildingID {
			cp := *room
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemorySlotCatalog holds abstract slots.
type MemorySlotCatalog struct {
	mu    sync.RWMutex
	slots map[uint64]*model.TimeSlot
}

func NewMemorySlotCatalog() *MemorySlotCatalog {
	return &MemorySlotCatalog{slots: make(map[uint64]*model.TimeSlot)}
}

func (c *MemorySlotCatalog) Put(slot model.TimeSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := slot
	c.slots[slot.ID] = &cp
}

func (c *MemorySlotCatalog) Slot(_ context.Context, id uint64) (*model.TimeSlot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slot, ok := c.slots[id]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (c *MemorySlotCatalog) Slots(_ context.Context) ([]*model.TimeSlot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*model.TimeSlot
	for _, slot := range c.slots {
		cp := *slot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryHolidayCalendar holds holiday dates keyed by canonical date string.
type MemoryHolidayCalendar struct {
	mu   sync.RWMutex
	days map[string]struct{}
}

func NewMemoryHolidayCalendar(dates ...string) *MemoryHolidayCalendar {
	c := &MemoryHolidayCalendar{days: make(map[string]struct{})}
	for _, d := range dates {
		c.days[d] = struct{}{}
	}
	return c
}

func (c *MemoryHolidayCalendar) Put(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days[date] = struct{}{}
}

func (c *MemoryHolidayCalendar) HolidaysBetween(_ context.Context, from, to string) (map[string]struct{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]struct{})
	for d := range c.days {
		if d >= from && d <= to {
			out[d] = struct{}{}
		}
	}
	return out, nil
}

// MemoryEnrollmentCatalog holds student-course membership.
type MemoryEnrollmentCatalog struct {
	mu      sync.RWMutex
	byCours map[uint64][]uint64
}

func NewMemoryEnrollmentCatalog() *MemoryEnrollmentCatalog {
	return &MemoryEnrollmentCatalog{byCours: make(map[uint64][]uint64)}
}

func (c *MemoryEnrollmentCatalog) Enroll(courseID uint64, studentIDs ...uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCours[courseID] = append(c.byCours[courseID], studentIDs...)
}

func (c *MemoryEnrollmentCatalog) StudentsByCourse(_ context.Context, courseID uint64) ([]uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]uint64(nil), c.byCours[courseID]...), nil
}
