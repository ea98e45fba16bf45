package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// ConflictRepo writes conflict cases.  A resolution is one transaction:
// validate every member's state, insert the case and its member rows, then
// apply the winner/loser transitions with their system decision records.
// Any mismatch rolls the whole resolution back so partial application is
// never visible.
type ConflictRepo struct {
	db *sql.DB
}

// NewConflictRepo returns a ConflictRepo bound to the given database.
func NewConflictRepo(db *sql.DB) *ConflictRepo { return &ConflictRepo{db: db} }

// ApplyResolution persists the case and applies every member transition.
func (r *ConflictRepo) ApplyResolution(ctx context.Context, cse *model.ConflictCase, records []model.DecisionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO conflict_cases (public_id, room_id, date, slot_id, winner_request_id, resolver_id, notes)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins,
		cse.PublicID, cse.RoomID, cse.Date, cse.SlotID, cse.WinnerID, cse.ResolverID, cse.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cse.ID = uint64(id)

	for _, memberID := range cse.MemberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conflict_case_members (case_id, request_id) VALUES (?, ?)`,
			cse.ID, memberID); err != nil {
			return err
		}
	}

	for _, rec := range records {
		to := model.StateRejected
		if rec.RequestID == cse.WinnerID {
			to = model.StateConfirmed
		}
		guard, err := tx.ExecContext(ctx,
			`UPDATE requests SET state = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND state = ?`,
			to, rec.RequestID, model.StatePendingArbitration,
		)
		if err != nil {
			return err
		}
		n, err := guard.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: request %d left %s before resolution applied",
				engine.ErrInvalidTransition, rec.RequestID, model.StatePendingArbitration)
		}
		caseID := cse.ID
		rec.CaseID = &caseID
		if err := appendDecisionTx(ctx, tx, rec.RequestID, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Case loads one immutable conflict case with its member ids.
func (r *ConflictRepo) Case(ctx context.Context, id uint64) (*model.ConflictCase, error) {
	const q = `SELECT id, public_id, room_id, DATE_FORMAT(date, '%Y-%m-%d'), slot_id,
	                  winner_request_id, resolver_id, notes, created_at
	           FROM conflict_cases WHERE id = ?`
	var cse model.ConflictCase
	err := r.db.QueryRowContext(ctx, q, id).Scan(&cse.ID, &cse.PublicID, &cse.RoomID, &cse.Date,
		&cse.SlotID, &cse.WinnerID, &cse.ResolverID, &cse.Notes, &cse.CreatedAt)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT request_id FROM conflict_case_members WHERE case_id = ? ORDER BY request_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var member uint64
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		cse.MemberIDs = append(cse.MemberIDs, member)
	}
	return &cse, rows.Err()
}
