package engine_test

import (
	"time"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
	"github.com/iliyamo/campus-room-reservation/internal/repository"
)

// fixture wires the engine against the in-memory implementations.  Every
// test gets a fresh one; the seeded catalog is the smallest campus that can
// exercise all paths: two buildings, four rooms, a Monday and a Wednesday
// slot.
type fixture struct {
	Ledger      *repository.MemoryCellLedger
	Requests    *repository.MemoryRequestStore
	Conflicts   *repository.MemoryConflictStore
	Allocations *repository.MemoryAllocationStore
	Rooms       *repository.MemoryRoomCatalog
	Slots       *repository.MemorySlotCatalog
	Holidays    *repository.MemoryHolidayCalendar
	Enrollment  *repository.MemoryEnrollmentCatalog

	Clash     *engine.ClashDetector
	Workflow  *engine.Workflow
	Arbiter   *engine.Arbiter
	Generator *engine.Generator
}

func newFixture() *fixture {
	f := &fixture{
		Ledger:      repository.NewMemoryCellLedger(),
		Requests:    repository.NewMemoryRequestStore(),
		Allocations: repository.NewMemoryAllocationStore(),
		Rooms:       repository.NewMemoryRoomCatalog(),
		Slots:       repository.NewMemorySlotCatalog(),
		Holidays:    repository.NewMemoryHolidayCalendar(),
		Enrollment:  repository.NewMemoryEnrollmentCatalog(),
	}
	f.Conflicts = repository.NewMemoryConflictStore(f.Requests)

	f.Rooms.Put(model.Room{ID: 1, BuildingID: 1, Name: "A-101", Capacity: 40, RoomType: model.RoomSeminar, IsActive: true})
	f.Rooms.Put(model.Room{ID: 2, BuildingID: 1, Name: "A-201", Capacity: 60, RoomType: model.RoomLectureHall, IsActive: true})
	f.Rooms.Put(model.Room{ID: 3, BuildingID: 2, Name: "B-001", Capacity: 30, RoomType: model.RoomLab, IsActive: true})
	f.Rooms.Put(model.Room{ID: 4, BuildingID: 2, Name: "B-100", Capacity: 200, RoomType: model.RoomAuditorium, IsActive: false})

	f.Slots.Put(model.TimeSlot{ID: 1, Name: "Mon 09-11", Weekday: time.Monday, StartTime: "09:00", EndTime: "11:00"})
	f.Slots.Put(model.TimeSlot{ID: 2, Name: "Wed 09-11", Weekday: time.Wednesday, StartTime: "09:00", EndTime: "11:00"})

	f.Clash = &engine.ClashDetector{
		Ledger:      f.Ledger,
		Rooms:       f.Rooms,
		Holidays:    f.Holidays,
		Enrollment:  f.Enrollment,
		Allocations: f.Allocations,
	}
	f.Workflow = &engine.Workflow{
		Ledger:   f.Ledger,
		Requests: f.Requests,
		Clash:    f.Clash,
		Rooms:    f.Rooms,
		Slots:    f.Slots,
	}
	f.Arbiter = &engine.Arbiter{
		Ledger:    f.Ledger,
		Requests:  f.Requests,
		Conflicts: f.Conflicts,
	}
	f.Generator = &engine.Generator{
		Ledger:      f.Ledger,
		Requests:    f.Requests,
		Allocations: f.Allocations,
		Slots:       f.Slots,
		Holidays:    f.Holidays,
		Clash:       f.Clash,
	}
	return f
}

// Frequently used identities.
var (
	alice = model.Actor{ID: 11, Name: "alice", Role: model.RoleRequester}
	bob   = model.Actor{ID: 12, Name: "bob", Role: model.RoleRequesterWithDelegate}
	vera  = model.Actor{ID: 21, Name: "vera", Role: model.RoleVerifier}
	adam  = model.Actor{ID: 31, Name: "adam", Role: model.RoleApprover}
	anne  = model.Actor{ID: 32, Name: "anne", Role: model.RoleApprover}
	rita  = model.Actor{ID: 41, Name: "rita", Role: model.RoleArbitrator}
)

// classDraft is a valid manual draft for room 1 on a regular Monday.
func classDraft(requester model.Actor) engine.SubmitDraft {
	return engine.SubmitDraft{
		Requester:     requester,
		RoomID:        1,
		Date:          "2026-03-02",
		SlotID:        1,
		PartySize:     25,
		Category:      model.CategoryClass,
		Payload:       model.Payload{CourseID: 10},
		Justification: "weekly lecture",
	}
}
