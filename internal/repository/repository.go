// Package repository provides the persistence implementations of the engine
// ports: MySQL-backed stores for production and in-memory stores for tests
// and single-node development.  Recoverable failure conditions are reported
// with the engine's sentinel errors so handlers can map them without
// knowing which backing store produced them; raw database errors only
// escape for conditions no caller can act on.
package repository

import "github.com/iliyamo/campus-room-reservation/internal/engine"

// Compile-time conformance of both store families to the engine ports.
var (
	_ engine.CellLedger        = (*CellRepo)(nil)
	_ engine.CellLedger        = (*MemoryCellLedger)(nil)
	_ engine.RequestStore      = (*RequestRepo)(nil)
	_ engine.RequestStore      = (*MemoryRequestStore)(nil)
	_ engine.ConflictStore     = (*ConflictRepo)(nil)
	_ engine.ConflictStore     = (*MemoryConflictStore)(nil)
	_ engine.AllocationStore   = (*AllocationRepo)(nil)
	_ engine.AllocationStore   = (*MemoryAllocationStore)(nil)
	_ engine.RoomCatalog       = (*RoomRepo)(nil)
	_ engine.RoomCatalog       = (*MemoryRoomCatalog)(nil)
	_ engine.SlotCatalog       = (*SlotRepo)(nil)
	_ engine.SlotCatalog       = (*MemorySlotCatalog)(nil)
	_ engine.HolidayCalendar   = (*HolidayRepo)(nil)
	_ engine.HolidayCalendar   = (*MemoryHolidayCalendar)(nil)
	_ engine.EnrollmentCatalog = (*EnrollmentRepo)(nil)
	_ engine.EnrollmentCatalog = (*MemoryEnrollmentCatalog)(nil)
)
