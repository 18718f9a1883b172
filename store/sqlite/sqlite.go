/*
Package sqlite provides the SQLite-backed collaborator store.

PURPOSE:
  The award engine never persists anything. This store holds the data the
  engine is fed with and the results worth keeping:

    employees        EmployeeProfile records
    shifts           RosterShift records (breaks and tags as JSON)
    public_holidays  Calendar entries per region ('' = every region)
    rate_configs     Versioned rate documents; the newest is active
    audit_runs       Persisted LabourAuditResults

  In production the same patterns apply to PostgreSQL with minor SQL
  dialect differences.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single pooled connection, so
  ":memory:" databases are shared by every query.

USAGE:
  store, err := sqlite.New("./data/award.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  cal, err := store.HolidayCalendar(ctx, "VIC")
  engine, err := award.NewEngine(table, cal, cfg)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - api/handlers.go: HTTP handlers backed by this store
  - factory/rates.go: RateConfigDocument
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
)

// ErrNotFound is returned when deleting a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Store implements collaborator storage using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		super_fund_name TEXT NOT NULL DEFAULT '',
		tags_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		breaks_json TEXT,
		tags_json TEXT,
		created_at TEXT NOT NULL
	);

	-- Roster history per employee (fatigue, weekly overtime)
	CREATE INDEX IF NOT EXISTS idx_shifts_employee_date
		ON shifts(employee_id, date, start_minute);

	CREATE TABLE IF NOT EXISTS public_holidays (
		id TEXT PRIMARY KEY,
		region TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_public_holidays_region_date
		ON public_holidays(region, date);

	-- Rate documents are never updated; a new version supersedes the old one
	CREATE TABLE IF NOT EXISTS rate_configs (
		version INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT '',
		document_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_runs (
		id TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		category TEXT NOT NULL,
		rate_version INTEGER,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_runs_created
		ON audit_runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or replaces an employee profile.
func (s *Store) SaveEmployee(ctx context.Context, emp award.EmployeeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := marshalOptional(emp.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO employees (id, name, classification, employment_type, super_fund_name, tags_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			classification = excluded.classification,
			employment_type = excluded.employment_type,
			super_fund_name = excluded.super_fund_name,
			tags_json = excluded.tags_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, string(emp.Classification), string(emp.EmploymentType),
		emp.SuperFundName, tags, now, now,
	)
	return err
}

// GetEmployee retrieves an employee by ID. It returns nil when the
// employee does not exist.
func (s *Store) GetEmployee(ctx context.Context, id string) (*award.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, classification, employment_type, super_fund_name, tags_json FROM employees WHERE id = ?",
		id,
	)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]award.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, classification, employment_type, super_fund_name, tags_json FROM employees ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []award.EmployeeProfile
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row interface{ Scan(...any) error }) (award.EmployeeProfile, error) {
	var emp award.EmployeeProfile
	var classification, employmentType string
	var tags sql.NullString
	if err := row.Scan(&emp.ID, &emp.Name, &classification, &employmentType, &emp.SuperFundName, &tags); err != nil {
		return emp, err
	}
	emp.Classification = award.Classification(classification)
	emp.EmploymentType = award.EmploymentType(employmentType)
	if err := unmarshalOptional(tags, &emp.Tags); err != nil {
		return emp, fmt.Errorf("employee %s tags: %w", emp.ID, err)
	}
	return emp, nil
}

// =============================================================================
// SHIFT STORE
// =============================================================================

// ShiftFilter narrows ListShifts. Zero values match everything.
type ShiftFilter struct {
	EmployeeID string
	From       award.Date
	To         award.Date
}

// SaveShift inserts or replaces a shift.
func (s *Store) SaveShift(ctx context.Context, shift award.RosterShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	breaks, err := marshalOptional(shift.Breaks)
	if err != nil {
		return err
	}
	tags, err := marshalOptional(shift.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO shifts (id, employee_id, date, start_minute, end_minute, breaks_json, tags_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			date = excluded.date,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			breaks_json = excluded.breaks_json,
			tags_json = excluded.tags_json
	`

	_, err = s.db.ExecContext(ctx, query,
		shift.ID, shift.EmployeeID, shift.Date.String(),
		int(shift.StartTime), int(shift.EndTime),
		breaks, tags, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListShifts returns shifts in chronological order.
func (s *Store) ListShifts(ctx context.Context, f ShiftFilter) ([]award.RosterShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, employee_id, date, start_minute, end_minute, breaks_json, tags_json FROM shifts WHERE 1 = 1"
	var args []any
	if f.EmployeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, f.EmployeeID)
	}
	if !f.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, f.To.String())
	}
	query += " ORDER BY date, start_minute, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []award.RosterShift
	for rows.Next() {
		var sh award.RosterShift
		var date string
		var start, end int
		var breaks, tags sql.NullString
		if err := rows.Scan(&sh.ID, &sh.EmployeeID, &date, &start, &end, &breaks, &tags); err != nil {
			return nil, err
		}
		if sh.Date, err = award.ParseDate(date); err != nil {
			return nil, fmt.Errorf("shift %s date: %w", sh.ID, err)
		}
		sh.StartTime, sh.EndTime = award.ClockTime(start), award.ClockTime(end)
		if err := unmarshalOptional(breaks, &sh.Breaks); err != nil {
			return nil, fmt.Errorf("shift %s breaks: %w", sh.ID, err)
		}
		if err := unmarshalOptional(tags, &sh.Tags); err != nil {
			return nil, fmt.Errorf("shift %s tags: %w", sh.ID, err)
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// SaveHoliday saves a holiday, assigning an ID when it has none.
func (s *Store) SaveHoliday(ctx context.Context, h award.PublicHoliday) (award.PublicHoliday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query := `
		INSERT INTO public_holidays (id, region, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			region = excluded.region,
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Region, h.Date.String(), h.Name, h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	return h, err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM public_holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("holiday %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListHolidays returns the region's holidays plus those that apply to
// every region, ordered by date.
func (s *Store) ListHolidays(ctx context.Context, region string) ([]award.PublicHoliday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, region, date, name, recurring
		FROM public_holidays
		WHERE region = ? OR region = ''
		ORDER BY date ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []award.PublicHoliday
	for rows.Next() {
		var h award.PublicHoliday
		var date string
		if err := rows.Scan(&h.ID, &h.Region, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = award.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %s date: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayCalendar snapshots the region's holidays into an immutable
// calendar for the engine.
func (s *Store) HolidayCalendar(ctx context.Context, region string) (*award.StaticCalendar, error) {
	holidays, err := s.ListHolidays(ctx, region)
	if err != nil {
		return nil, err
	}
	return award.NewStaticCalendar(holidays...), nil
}

// =============================================================================
// RATE CONFIGURATIONS
// =============================================================================

// RateConfigRecord is a stored, versioned rate document.
type RateConfigRecord struct {
	Version   int64
	Name      string
	Document  factory.RateConfigDocument
	CreatedAt time.Time
}

// SaveRateConfig stores doc as the newest version and returns it.
func (s *Store) SaveRateConfig(ctx context.Context, doc factory.RateConfigDocument) (RateConfigRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return RateConfigRecord{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO rate_configs (name, document_json, created_at) VALUES (?, ?, ?)",
		doc.Name, string(data), now.Format(time.RFC3339),
	)
	if err != nil {
		return RateConfigRecord{}, err
	}
	version, err := res.LastInsertId()
	if err != nil {
		return RateConfigRecord{}, err
	}
	return RateConfigRecord{Version: version, Name: doc.Name, Document: doc, CreatedAt: now.Truncate(time.Second)}, nil
}

// ActiveRateConfig returns the newest rate document, or nil if none was
// ever saved.
func (s *Store) ActiveRateConfig(ctx context.Context) (*RateConfigRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r RateConfigRecord
	var data, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT version, name, document_json, created_at FROM rate_configs ORDER BY version DESC LIMIT 1",
	).Scan(&r.Version, &r.Name, &data, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &r.Document); err != nil {
		return nil, fmt.Errorf("rate config v%d: %w", r.Version, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// =============================================================================
// AUDIT RUNS
// =============================================================================

// AuditRun is a persisted audit outcome.
type AuditRun struct {
	ID          string                  `json:"id"`
	RateVersion int64                   `json:"rate_version,omitempty"`
	Result      award.LabourAuditResult `json:"result"`
	CreatedAt   time.Time               `json:"created_at"`
}

// SaveAuditRun stores run, assigning an ID and timestamp when missing.
func (s *Store) SaveAuditRun(ctx context.Context, run AuditRun) (AuditRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(run.Result)
	if err != nil {
		return run, err
	}

	var rateVersion sql.NullInt64
	if run.RateVersion > 0 {
		rateVersion = sql.NullInt64{Int64: run.RateVersion, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO audit_runs (id, score, category, rate_version, result_json, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Result.Score, string(run.Result.Category), rateVersion, string(data),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	return run, err
}

// ListAuditRuns returns the newest runs first. limit <= 0 means no limit.
func (s *Store) ListAuditRuns(ctx context.Context, limit int) ([]AuditRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, rate_version, result_json, created_at FROM audit_runs ORDER BY created_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AuditRun
	for rows.Next() {
		var r AuditRun
		var rateVersion sql.NullInt64
		var data, createdAt string
		if err := rows.Scan(&r.ID, &rateVersion, &data, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &r.Result); err != nil {
			return nil, fmt.Errorf("audit run %s: %w", r.ID, err)
		}
		r.RateVersion = rateVersion.Int64
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo). Rate configurations are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"shifts", "employees", "public_holidays", "audit_runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func marshalOptional[T any](v []T) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalOptional[T any](s sql.NullString, dst *[]T) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}
