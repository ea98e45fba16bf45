package repository

import (
	"context"
	"database/sql"
)

// HolidayRepo is the read-only exclusion calendar.  It stores only listed
// holidays; the implicit weekend rule is applied by the time grid, never
// persisted.
type HolidayRepo struct {
	db *sql.DB
}

// NewHolidayRepo returns a HolidayRepo bound to the given database.
func NewHolidayRepo(db *sql.DB) *HolidayRepo { return &HolidayRepo{db: db} }

// HolidaysBetween returns the holiday dates in [from, to] keyed by canonical
// date string.
func (r *HolidayRepo) HolidaysBetween(ctx context.Context, from, to string) (map[string]struct{}, error) {
	const q = `SELECT DATE_FORMAT(date, '%Y-%m-%d') FROM holidays WHERE date BETWEEN ? AND ?`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		out[date] = struct{}{}
	}
	return out, rows.Err()
}

// EnrollmentRepo is the read-only student-course membership catalog.
type EnrollmentRepo struct {
	db *sql.DB
}

// NewEnrollmentRepo returns an EnrollmentRepo bound to the given database.
func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// StudentsByCourse lists the students enrolled in a course.  An empty result
// is a normal outcome the clash detector reports as BYPASSED.
func (r *EnrollmentRepo) StudentsByCourse(ctx context.Context, courseID uint64) ([]uint64, error) {
	const q = `SELECT student_id FROM enrollments WHERE course_id = ? ORDER BY student_id`
	rows, err := r.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
