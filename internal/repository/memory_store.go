package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// In-memory stores for tests and single-node development.  They mirror the
// MySQL stores' semantics exactly: the same transition guards, the same
// sentinel errors, the same ordering.

// MemoryRequestStore holds reservation requests and their decision trails.
type MemoryRequestStore struct {
	mu       sync.RWMutex
	nextID   uint64
	requests map[uint64]*model.ReservationRequest
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[uint64]*model.ReservationRequest)}
}

func (s *MemoryRequestStore) Create(_ context.Context, req *model.ReservationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *MemoryRequestStore) Get(_ context.Context, id uint64) (*model.ReservationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", engine.ErrRequestNotFound, id)
	}
	return copyRequest(req), nil
}

// Transition applies the compare-and-set state move and appends the record
// in one critical section, matching the MySQL store's transaction.
func (s *MemoryRequestStore) Transition(_ context.Context, id uint64, from, to model.RequestState, rec model.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrRequestNotFound, id)
	}
	if req.State != from {
		return fmt.Errorf("%w: request %d is %s, expected %s", engine.ErrInvalidTransition, id, req.State, from)
	}
	rec.RequestID = id
	rec.Seq = uint32(len(req.Decisions) + 1)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	req.State = to
	req.UpdatedAt = time.Now().UTC()
	req.Decisions = append(req.Decisions, rec)
	return nil
}

func (s *MemoryRequestStore) AssignApprover(_ context.Context, requestID, approverID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrRequestNotFound, requestID)
	}
	req.ApproverID = &approverID
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryRequestStore) ListByCellAndState(_ context.Context, key model.CellKey, state model.RequestState) ([]*model.ReservationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.ReservationRequest
	for _, req := range s.requests {
		if req.Cell() == key && req.State == state {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryRequestStore) ListByRequester(_ context.Context, requesterID uint64) ([]*model.ReservationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.ReservationRequest
	for _, req := range s.requests {
		if req.RequesterID == requesterID {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyRequest(req *model.ReservationRequest) *model.ReservationRequest {
	cp := *req
	cp.Decisions = append([]model.DecisionRecord(nil), req.Decisions...)
	return &cp
}

// MemoryConflictStore writes conflict cases against a MemoryRequestStore.
type MemoryConflictStore struct {
	mu       sync.Mutex
	nextID   uint64
	cases    map[uint64]*model.ConflictCase
	Requests *MemoryRequestStore
}

func NewMemoryConflictStore(requests *MemoryRequestStore) *MemoryConflictStore {
	return &MemoryConflictStore{cases: make(map[uint64]*model.ConflictCase), Requests: requests}
}

// ApplyResolution writes the case and every member transition atomically:
// it validates all member states first, then applies, so partial application
// is never visible.
func (s *MemoryConflictStore) ApplyResolution(_ context.Context, cse *model.ConflictCase, records []model.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests.mu.Lock()
	defer s.Requests.mu.Unlock()

	for _, rec := range records {
		req, ok := s.Requests.requests[rec.RequestID]
		if !ok {
			return fmt.Errorf("%w: %d", engine.ErrRequestNotFound, rec.RequestID)
		}
		if req.State != model.StatePendingArbitration {
			return fmt.Errorf("%w: request %d is %s, expected %s",
				engine.ErrInvalidTransition, rec.RequestID, req.State, model.StatePendingArbitration)
		}
	}

	s.nextID++
	cse.ID = s.nextID
	cp := *cse
	cp.MemberIDs = append([]uint64(nil), cse.MemberIDs...)
	s.cases[cse.ID] = &cp

	now := time.Now().UTC()
	for _, rec := range records {
		req := s.Requests.requests[rec.RequestID]
		if rec.RequestID == cse.WinnerID {
			req.State = model.StateConfirmed
		} else {
			req.State = model.StateRejected
		}
		rec.Seq = uint32(len(req.Decisions) + 1)
		caseID := cse.ID
		rec.CaseID = &caseID
		req.UpdatedAt = now
		req.Decisions = append(req.Decisions, rec)
	}
	return nil
}

func (s *MemoryConflictStore) Case(_ context.Context, id uint64) (*model.ConflictCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cse, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("conflict case %d not found", id)
	}
	cp := *cse
	return &cp, nil
}

// MemoryAllocationStore holds timetables, allocations and materialized
// cells.
type MemoryAllocationStore struct {
	mu           sync.RWMutex
	timetables   map[uint64]*model.Timetable
	allocations  map[uint64]*model.TimetableAllocation
	materialized map[uint64]map[model.CellKey]uint64 // allocation -> cell -> request
}

func NewMemoryAllocationStore() *MemoryAllocationStore {
	return &MemoryAllocationStore{
		timetables:   make(map[uint64]*model.Timetable),
		allocations:  make(map[uint64]*model.TimetableAllocation),
		materialized: make(map[uint64]map[model.CellKey]uint64),
	}
}

// PutTimetable and PutAllocation seed catalog data; timetables and
// allocations are otherwise caller-provided fixtures.
func (s *MemoryAllocationStore) PutTimetable(tt model.Timetable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := tt
	s.timetables[tt.ID] = &cp
}

func (s *MemoryAllocationStore) PutAllocation(alloc model.TimetableAllocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := alloc
	s.allocations[alloc.ID] = &cp
}

func (s *MemoryAllocationStore) Allocation(_ context.Context, id uint64) (*model.TimetableAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alloc, ok := s.allocations[id]
	if !ok {
		return nil, nil
	}
	cp := *alloc
	return &cp, nil
}

func (s *MemoryAllocationStore) Timetable(_ context.Context, id uint64) (*model.Timetable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tt, ok := s.timetables[id]
	if !ok {
		return nil, nil
	}
	cp := *tt
	return &cp, nil
}

func (s *MemoryAllocationStore) ListByTimetable(_ context.Context, timetableID uint64) ([]*model.TimetableAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.TimetableAllocation
	for _, alloc := range s.allocations {
		if alloc.TimetableID == timetableID {
			cp := *alloc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryAllocationStore) UpdateSlot(_ context.Context, id, slotID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alloc, ok := s.allocations[id]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrAllocationNotFound, id)
	}
	alloc.SlotID = slotID
	return nil
}

func (s *MemoryAllocationStore) UpdateRoom(_ context.Context, id, roomID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alloc, ok := s.allocations[id]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrAllocationNotFound, id)
	}
	alloc.RoomID = roomID
	return nil
}

func (s *MemoryAllocationStore) MaterializedCells(_ context.Context, allocationID uint64) ([]model.OccupiedCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.OccupiedCell
	for key, reqID := range s.materialized[allocationID] {
		out = append(out, model.OccupiedCell{Key: key, Occupant: reqID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Date != out[j].Key.Date {
			return out[i].Key.Date < out[j].Key.Date
		}
		return out[i].Key.RoomID < out[j].Key.RoomID
	})
	return out, nil
}

func (s *MemoryAllocationStore) RecordMaterialized(_ context.Context, allocationID uint64, key model.CellKey, requestID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := s.materialized[allocationID]
	if cells == nil {
		cells = make(map[model.CellKey]uint64)
		s.materialized[allocationID] = cells
	}
	cells[key] = requestID
	return nil
}

func (s *MemoryAllocationStore) ClearMaterialized(_ context.Context, allocationID uint64, key model.CellKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.materialized[allocationID], key)
	return nil
}

func (s *MemoryAllocationStore) CoursesAtSlot(_ context.Context, slotID, excludeCourseID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uint64]struct{})
	var out []uint64
	for _, alloc := range s.allocations {
		if alloc.SlotID != slotID || alloc.CourseID == excludeCourseID {
			continue
		}
		if _, ok := seen[alloc.CourseID]; ok {
			continue
		}
		seen[alloc.CourseID] = struct{}{}
		out = append(out, alloc.CourseID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
