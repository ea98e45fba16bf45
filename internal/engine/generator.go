package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/campus-room-reservation/internal/model"
	"github.com/iliyamo/campus-room-reservation/internal/queue"
)

// Generator bulk-materializes timetable allocations into confirmed,
// timetable-tagged requests through the same ledger path manual requests
// use.  Cells are processed independently: one contended cell becomes a
// reported gap and the rest of the batch continues.
type Generator struct {
	Ledger      CellLedger
	Requests    RequestStore
	Allocations AllocationStore
	Slots       SlotCatalog
	Holidays    HolidayCalendar
	Clash       *ClashDetector
	Notifier    Notifier
}

// Expand derives the concrete cells of one allocation over the semester:
// one cell per date matching the slot's weekly pattern, minus holidays and
// weekends.  The sequence is deterministic and side-effect-free.
func (g *Generator) Expand(ctx context.Context, alloc *model.TimetableAllocation, semesterFrom, semesterTo string) ([]model.CellKey, error) {
	start, end, err := ValidateRange(semesterFrom, semesterTo)
	if err != nil {
		return nil, err
	}
	slot, err := g.Slots.Slot(ctx, alloc.SlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrCellUnknown, alloc.SlotID)
	}
	holidays, err := g.Holidays.HolidaysBetween(ctx, semesterFrom, semesterTo)
	if err != nil {
		return nil, err
	}
	dates := Occurrences(slot.Weekday, start, end, holidays)
	cells := make([]model.CellKey, 0, len(dates))
	for _, date := range dates {
		cells = append(cells, model.CellKey{RoomID: alloc.RoomID, Date: date, SlotID: alloc.SlotID})
	}
	return cells, nil
}

// Materialize commits one request per cell.  Each request is system-authored
// and timetable-tagged; on a committed write it is confirmed, on a contended
// write it is closed with a system decision record and reported as a gap.
// Gaps never escalate to arbitration on their own and never abort the batch.
func (g *Generator) Materialize(ctx context.Context, alloc *model.TimetableAllocation, cells []model.CellKey) (*model.MaterializationReport, error) {
	return g.materialize(ctx, alloc, cells, "")
}

// materialize is Materialize with an optional note appended to every system
// decision record, so change operations leave their validation outcome on
// the persisted trail and not just the returned report.
func (g *Generator) materialize(ctx context.Context, alloc *model.TimetableAllocation, cells []model.CellKey, note string) (*model.MaterializationReport, error) {
	report := &model.MaterializationReport{TimetableID: alloc.TimetableID}
	for _, cell := range cells {
		now := time.Now().UTC()
		req := &model.ReservationRequest{
			PublicID:      uuid.NewString(),
			RequesterID:   model.SystemActor.ID,
			RequesterRole: model.SystemActor.Role,
			RoomID:        cell.RoomID,
			Date:          cell.Date,
			SlotID:        cell.SlotID,
			PartySize:     1,
			Category:      model.CategoryClass,
			Payload:       model.Payload{CourseID: alloc.CourseID},
			Justification: fmt.Sprintf("timetable allocation %d", alloc.ID),
			Source:        model.SourceTimetable,
			State:         model.StatePendingApproval,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := g.Requests.Create(ctx, req); err != nil {
			return nil, err
		}
		outcome, err := g.Ledger.TryOccupy(ctx, cell, req.ID)
		if err != nil {
			return nil, err
		}
		if outcome.Committed {
			comment := "confirmed by timetable materialization"
			if note != "" {
				comment += "; " + note
			}
			rec := g.systemRecord(req.ID, model.ActionApprove, comment)
			if err := g.Requests.Transition(ctx, req.ID, model.StatePendingApproval, model.StateConfirmed, rec); err != nil {
				return nil, err
			}
			if err := g.Allocations.RecordMaterialized(ctx, alloc.ID, cell, req.ID); err != nil {
				return nil, err
			}
			report.Committed++
			continue
		}
		rec := g.systemRecord(req.ID, model.ActionReject,
			fmt.Sprintf("materialization gap: cell held by request %d", outcome.Occupant))
		if err := g.Requests.Transition(ctx, req.ID, model.StatePendingApproval, model.StateRejected, rec); err != nil {
			return nil, err
		}
		report.Gaps = append(report.Gaps, model.MaterializationGap{
			AllocationID: alloc.ID,
			Cell:         cell,
			Reason:       model.GapContended,
			Occupant:     outcome.Occupant,
		})
		g.notify(queue.ReservationEvent{
			Kind:       queue.EventMaterializationGap,
			RequestID:  req.ID,
			PublicID:   req.PublicID,
			RoomID:     cell.RoomID,
			Date:       cell.Date,
			SlotID:     cell.SlotID,
			Comment:    fmt.Sprintf("held by request %d", outcome.Occupant),
			OccurredAt: now.Format(time.RFC3339),
		})
	}
	return report, nil
}

// ActivateTimetable expands and materializes every allocation of the
// timetable and aggregates the per-cell outcomes.  The timetable id is
// always an explicit parameter; the engine holds no ambient "current year"
// state.
func (g *Generator) ActivateTimetable(ctx context.Context, timetableID uint64) (*model.MaterializationReport, error) {
	tt, err := g.Allocations.Timetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if tt == nil {
		return nil, fmt.Errorf("%w: timetable %d", ErrAllocationNotFound, timetableID)
	}
	allocs, err := g.Allocations.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	report := &model.MaterializationReport{TimetableID: timetableID}
	for _, alloc := range allocs {
		cells, err := g.Expand(ctx, alloc, tt.SemesterFrom, tt.SemesterTo)
		if err != nil {
			return nil, err
		}
		part, err := g.Materialize(ctx, alloc, cells)
		if err != nil {
			return nil, err
		}
		report.Merge(part)
	}
	return report, nil
}

// ApplySlotChange moves an allocation to a new abstract slot: enrollment
// clash validation runs first and its outcome is stamped on the report, the
// currently materialized cells are released, and the allocation is
// re-materialized under the new slot.  Re-materialization is best-effort
// across the range; dates lost to contention appear as gaps.
func (g *Generator) ApplySlotChange(ctx context.Context, allocationID, newSlotID uint64) (*model.MaterializationReport, error) {
	alloc, tt, err := g.allocationWithTimetable(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	check, students, err := g.Clash.CheckEnrollmentClash(ctx, alloc.CourseID, newSlotID)
	if err != nil {
		return nil, err
	}
	if check == model.EnrollmentConflicting {
		// Do not apply a change that double-books students; the report
		// carries who would clash.
		return &model.MaterializationReport{
			TimetableID:         alloc.TimetableID,
			EnrollmentCheck:     check,
			ConflictingStudents: students,
		}, nil
	}
	if err := g.releaseMaterialized(ctx, alloc); err != nil {
		return nil, err
	}
	if err := g.Allocations.UpdateSlot(ctx, alloc.ID, newSlotID); err != nil {
		return nil, err
	}
	alloc.SlotID = newSlotID
	report, err := g.rematerialize(ctx, alloc, tt, fmt.Sprintf("enrollment check %s", check))
	if err != nil {
		return nil, err
	}
	report.EnrollmentCheck = check
	return report, nil
}

// ApplyRoomChange moves an allocation to a new room, releasing and
// re-materializing like a slot change.  No enrollment validation applies: a
// venue change cannot double-book a student.
func (g *Generator) ApplyRoomChange(ctx context.Context, allocationID, newRoomID uint64) (*model.MaterializationReport, error) {
	alloc, tt, err := g.allocationWithTimetable(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if err := g.releaseMaterialized(ctx, alloc); err != nil {
		return nil, err
	}
	if err := g.Allocations.UpdateRoom(ctx, alloc.ID, newRoomID); err != nil {
		return nil, err
	}
	alloc.RoomID = newRoomID
	return g.rematerialize(ctx, alloc, tt, fmt.Sprintf("room change to %d", newRoomID))
}

func (g *Generator) allocationWithTimetable(ctx context.Context, allocationID uint64) (*model.TimetableAllocation, *model.Timetable, error) {
	alloc, err := g.Allocations.Allocation(ctx, allocationID)
	if err != nil {
		return nil, nil, err
	}
	if alloc == nil {
		return nil, nil, fmt.Errorf("%w: allocation %d", ErrAllocationNotFound, allocationID)
	}
	tt, err := g.Allocations.Timetable(ctx, alloc.TimetableID)
	if err != nil {
		return nil, nil, err
	}
	if tt == nil {
		return nil, nil, fmt.Errorf("%w: timetable %d", ErrAllocationNotFound, alloc.TimetableID)
	}
	return alloc, tt, nil
}

// releaseMaterialized frees every cell the allocation currently holds and
// closes the timetable-derived request occupying it.  Per-cell work is
// transactional; the loop is best-effort by cell order.
func (g *Generator) releaseMaterialized(ctx context.Context, alloc *model.TimetableAllocation) error {
	held, err := g.Allocations.MaterializedCells(ctx, alloc.ID)
	if err != nil {
		return err
	}
	for _, oc := range held {
		if err := g.Ledger.Release(ctx, oc.Key); err != nil {
			return err
		}
		rec := g.systemRecord(oc.Occupant, model.ActionWithdraw,
			fmt.Sprintf("superseded by reallocation of allocation %d", alloc.ID))
		if err := g.Requests.Transition(ctx, oc.Occupant, model.StateConfirmed, model.StateWithdrawn, rec); err != nil {
			return err
		}
		if err := g.Allocations.ClearMaterialized(ctx, alloc.ID, oc.Key); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) rematerialize(ctx context.Context, alloc *model.TimetableAllocation, tt *model.Timetable, note string) (*model.MaterializationReport, error) {
	cells, err := g.Expand(ctx, alloc, tt.SemesterFrom, tt.SemesterTo)
	if err != nil {
		return nil, err
	}
	return g.materialize(ctx, alloc, cells, note)
}

func (g *Generator) systemRecord(requestID uint64, action model.DecisionAction, comment string) model.DecisionRecord {
	return model.DecisionRecord{
		RequestID: requestID,
		ActorID:   model.SystemActor.ID,
		ActorName: model.SystemActor.Name,
		ActorRole: model.SystemActor.Role,
		Action:    action,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
}

func (g *Generator) notify(ev queue.ReservationEvent) {
	if g.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.Notifier.Publish(ctx, ev); err != nil {
			log.Printf("generator: publish %s for request %d failed: %v", ev.Kind, ev.RequestID, err)
		}
	}()
}
