package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for every table the service owns.  Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) so EnsureSchema is safe to run on
// every startup.  Order matters: referenced tables come first.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS buildings (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(191) NOT NULL,
		campus VARCHAR(191) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		building_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(191) NOT NULL,
		capacity INT UNSIGNED NOT NULL,
		room_type VARCHAR(32) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_rooms_building (building_id),
		KEY idx_rooms_capacity (is_active, capacity),
		CONSTRAINT fk_rooms_building FOREIGN KEY (building_id) REFERENCES buildings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS time_slots (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(64) NOT NULL,
		weekday TINYINT UNSIGNED NOT NULL,
		start_time CHAR(5) NOT NULL,
		end_time CHAR(5) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_slot (weekday, start_time, end_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS holidays (
		date DATE NOT NULL,
		label VARCHAR(191) NOT NULL DEFAULT '',
		PRIMARY KEY (date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// One row per (room, slot, date) cell that has ever been touched.
	// occupant_request_id is NULL when the cell is free; the unique primary
	// key is what makes the occupy upsert atomic.
	`CREATE TABLE IF NOT EXISTS cells (
		room_id BIGINT UNSIGNED NOT NULL,
		slot_id BIGINT UNSIGNED NOT NULL,
		date DATE NOT NULL,
		occupant_request_id BIGINT UNSIGNED NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (room_id, slot_id, date),
		KEY idx_cells_occupant (occupant_request_id),
		KEY idx_cells_date (date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS requests (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		public_id CHAR(36) NOT NULL,
		requester_id BIGINT UNSIGNED NOT NULL,
		requester_role VARCHAR(32) NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		date DATE NOT NULL,
		slot_id BIGINT UNSIGNED NOT NULL,
		party_size INT UNSIGNED NOT NULL,
		category VARCHAR(16) NOT NULL,
		payload JSON NOT NULL,
		justification TEXT NOT NULL,
		verifier_id BIGINT UNSIGNED NULL,
		approver_id BIGINT UNSIGNED NULL,
		source VARCHAR(16) NOT NULL,
		state VARCHAR(32) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_requests_public (public_id),
		KEY idx_requests_cell_state (room_id, date, slot_id, state),
		KEY idx_requests_requester (requester_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		request_id BIGINT UNSIGNED NOT NULL,
		seq INT UNSIGNED NOT NULL,
		actor_id BIGINT UNSIGNED NOT NULL,
		actor_name VARCHAR(191) NOT NULL,
		actor_role VARCHAR(32) NOT NULL,
		action VARCHAR(16) NOT NULL,
		comment TEXT NOT NULL,
		case_id BIGINT UNSIGNED NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_decisions_seq (request_id, seq),
		CONSTRAINT fk_decisions_request FOREIGN KEY (request_id) REFERENCES requests (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS conflict_cases (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		public_id CHAR(36) NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		date DATE NOT NULL,
		slot_id BIGINT UNSIGNED NOT NULL,
		winner_request_id BIGINT UNSIGNED NOT NULL,
		resolver_id BIGINT UNSIGNED NOT NULL,
		notes TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_cases_public (public_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS conflict_case_members (
		case_id BIGINT UNSIGNED NOT NULL,
		request_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (case_id, request_id),
		CONSTRAINT fk_members_case FOREIGN KEY (case_id) REFERENCES conflict_cases (id),
		CONSTRAINT fk_members_request FOREIGN KEY (request_id) REFERENCES requests (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS timetables (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(191) NOT NULL,
		semester_from DATE NOT NULL,
		semester_to DATE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS allocations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		timetable_id BIGINT UNSIGNED NOT NULL,
		course_id BIGINT UNSIGNED NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		slot_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_alloc_timetable (timetable_id),
		KEY idx_alloc_slot (slot_id),
		CONSTRAINT fk_alloc_timetable FOREIGN KEY (timetable_id) REFERENCES timetables (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS allocation_cells (
		allocation_id BIGINT UNSIGNED NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		date DATE NOT NULL,
		slot_id BIGINT UNSIGNED NOT NULL,
		request_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (allocation_id, room_id, date, slot_id),
		CONSTRAINT fk_alloc_cells_alloc FOREIGN KEY (allocation_id) REFERENCES allocations (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS enrollments (
		course_id BIGINT UNSIGNED NOT NULL,
		student_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (course_id, student_id),
		KEY idx_enroll_student (student_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.  It is called once at startup
// before the HTTP server begins accepting traffic.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
