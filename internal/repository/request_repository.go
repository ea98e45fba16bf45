package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// RequestRepo persists reservation requests and their decision trails.
// State moves only through Transition, which runs a compare-and-set on the
// state column and the decision append in one transaction so every
// transition carries exactly one record.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// Create inserts a new request and populates its generated id.
func (r *RequestRepo) Create(ctx context.Context, req *model.ReservationRequest) error {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return err
	}
	const q = `INSERT INTO requests
	           (public_id, requester_id, requester_role, room_id, date, slot_id, party_size,
	            category, payload, justification, verifier_id, approver_id, source, state)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		req.PublicID, req.RequesterID, req.RequesterRole, req.RoomID, req.Date, req.SlotID,
		req.PartySize, req.Category, payload, req.Justification, req.VerifierID, req.ApproverID,
		req.Source, req.State,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

// Get loads a request with its full decision trail, ordered by seq.
func (r *RequestRepo) Get(ctx context.Context, id uint64) (*model.ReservationRequest, error) {
	const q = `SELECT id, public_id, requester_id, requester_role, room_id,
	                  DATE_FORMAT(date, '%Y-%m-%d'), slot_id, party_size, category, payload,
	                  justification, verifier_id, approver_id, source, state, created_at, updated_at
	           FROM requests WHERE id = ?`
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", engine.ErrRequestNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	req.Decisions, err = r.decisions(ctx, id)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Transition moves the request from -> to and appends the decision record.
// The UPDATE is guarded on the current state; zero affected rows means the
// stored state no longer matches and nothing is written.
func (r *RequestRepo) Transition(ctx context.Context, id uint64, from, to model.RequestState, rec model.DecisionRecord) error {
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

	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET state = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND state = ?`,
		to, id, from,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the request is gone or its state moved under us.
		var cur model.RequestState
		err := tx.QueryRowContext(ctx, `SELECT state FROM requests WHERE id = ?`, id).Scan(&cur)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %d", engine.ErrRequestNotFound, id)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: request %d is %s, expected %s", engine.ErrInvalidTransition, id, cur, from)
	}

	if err := appendDecisionTx(ctx, tx, id, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// appendDecisionTx writes one decision record with the next sequence number
// for the request, inside the caller's transaction.
func appendDecisionTx(ctx context.Context, tx *sql.Tx, requestID uint64, rec model.DecisionRecord) error {
	const q = `INSERT INTO decisions (request_id, seq, actor_id, actor_name, actor_role, action, comment, case_id)
	           SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?
	           FROM decisions WHERE request_id = ?`
	_, err := tx.ExecContext(ctx, q,
		requestID, rec.ActorID, rec.ActorName, rec.ActorRole, rec.Action, rec.Comment, rec.CaseID,
		requestID,
	)
	return err
}

// AssignApprover re-designates the approver on a pending request.
func (r *RequestRepo) AssignApprover(ctx context.Context, requestID, approverID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE requests SET approver_id = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		approverID, requestID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", engine.ErrRequestNotFound, requestID)
	}
	return nil
}

// ListByCellAndState lists requests targeting one cell in one state, oldest
// first.  Used by arbitrators to see the contending set for a cell.
func (r *RequestRepo) ListByCellAndState(ctx context.Context, key model.CellKey, state model.RequestState) ([]*model.ReservationRequest, error) {
	const q = `SELECT id, public_id, requester_id, requester_role, room_id,
	                  DATE_FORMAT(date, '%Y-%m-%d'), slot_id, party_size, category, payload,
	                  justification, verifier_id, approver_id, source, state, created_at, updated_at
	           FROM requests
	           WHERE room_id = ? AND date = ? AND slot_id = ? AND state = ?
	           ORDER BY id`
	return r.list(ctx, q, key.RoomID, key.Date, key.SlotID, state)
}

// ListByRequester lists a requester's own requests, oldest first.
func (r *RequestRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]*model.ReservationRequest, error) {
	const q = `SELECT id, public_id, requester_id, requester_role, room_id,
	                  DATE_FORMAT(date, '%Y-%m-%d'), slot_id, party_size, category, payload,
	                  justification, verifier_id, approver_id, source, state, created_at, updated_at
	           FROM requests WHERE requester_id = ? ORDER BY id`
	return r.list(ctx, q, requesterID)
}

func (r *RequestRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.ReservationRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ReservationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *RequestRepo) decisions(ctx context.Context, requestID uint64) ([]model.DecisionRecord, error) {
	const q = `SELECT id, request_id, seq, actor_id, actor_name, actor_role, action, comment, case_id, created_at
	           FROM decisions WHERE request_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DecisionRecord
	for rows.Next() {
		var rec model.DecisionRecord
		var caseID sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Seq, &rec.ActorID, &rec.ActorName,
			&rec.ActorRole, &rec.Action, &rec.Comment, &caseID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if caseID.Valid {
			v := uint64(caseID.Int64)
			rec.CaseID = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*model.ReservationRequest, error) {
	var req model.ReservationRequest
	var payload []byte
	var verifierID, approverID sql.NullInt64
	err := row.Scan(&req.ID, &req.PublicID, &req.RequesterID, &req.RequesterRole, &req.RoomID,
		&req.Date, &req.SlotID, &req.PartySize, &req.Category, &payload,
		&req.Justification, &verifierID, &approverID, &req.Source, &req.State,
		&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req.Payload); err != nil {
			return nil, err
		}
	}
	if verifierID.Valid {
		v := uint64(verifierID.Int64)
		req.VerifierID = &v
	}
	if approverID.Valid {
		v := uint64(approverID.Int64)
		req.ApproverID = &v
	}
	return &req, nil
}
