/*
handlers.go - HTTP API handlers for the award engine

PURPOSE:
  Exposes the award engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine. The engine itself is
  rebuilt per request from immutable snapshots: the active rate table and
  the region's holiday calendar.

ENDPOINTS:
  Calculations:
    POST   /api/pay/shift               Price one shift
    POST   /api/pay/weekly              Price shifts + pay-period overtime
    POST   /api/fatigue                 Fatigue risk for one employee
    POST   /api/super                   Superannuation guarantee
    POST   /api/leave                   Leave accrual
    POST   /api/audit                   Labour audit of inline data

  Stored data:
    POST   /api/audit/run               Audit stored data and persist the run
    GET    /api/audit/runs              Persisted audit runs, newest first
    GET    /api/employees               List employees
    POST   /api/employees               Create or update employee
    GET    /api/employees/{id}          Get employee
    GET    /api/employees/{id}/shifts   Employee shifts (?from=&to=)
    POST   /api/shifts                  Create or update shift
    GET    /api/holidays                Holidays (?region=)
    POST   /api/holidays                Create holiday
    DELETE /api/holidays/{id}           Delete holiday
    GET    /api/rates                   Active rate document
    PUT    /api/rates                   Install a new rate document

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Rates: Document to RateTable conversion
  - The active RateTable and its stored version, swapped under a lock

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid configuration, invalid shift
  - 404: Employee or holiday not found
  - 422: Valid input the rate table cannot price
  - 503: No rate table installed
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/store/sqlite"
)

var errNoRates = errors.New("no rate table installed")

const defaultAuditRunLimit = 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures a Handler. Zero values fall back to engine defaults,
// a no-op logger and no recorder.
type Options struct {
	Config   award.Config
	Region   string
	Logger   *zap.Logger
	Recorder award.Recorder
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Rates *factory.RateFactory

	cfg      award.Config
	region   string
	logger   *zap.Logger
	recorder award.Recorder

	mu    sync.RWMutex
	table *award.RateTable
	rates sqlite.RateConfigRecord

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Config.CombinationPolicy == "" {
		opts.Config = award.DefaultConfig()
	}
	return &Handler{
		Store:    store,
		Rates:    factory.NewRateFactory(),
		cfg:      opts.Config,
		region:   opts.Region,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
}

// LoadRates installs the newest stored rate document. An empty store is
// seeded with the hospitality preset.
func (h *Handler) LoadRates(ctx context.Context) error {
	rec, err := h.Store.ActiveRateConfig(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		_, err := h.SetRates(ctx, factory.HospitalityPreset())
		return err
	}

	table, err := h.Rates.FromDocument(rec.Document)
	if err != nil {
		return fmt.Errorf("stored rate config v%d: %w", rec.Version, err)
	}
	h.install(*rec, table)
	return nil
}

// SetRates validates doc, stores it as a new version and makes it active.
func (h *Handler) SetRates(ctx context.Context, doc factory.RateConfigDocument) (sqlite.RateConfigRecord, error) {
	table, err := h.Rates.FromDocument(doc)
	if err != nil {
		return sqlite.RateConfigRecord{}, err
	}
	rec, err := h.Store.SaveRateConfig(ctx, doc)
	if err != nil {
		return rec, err
	}
	h.install(rec, table)
	return rec, nil
}

func (h *Handler) install(rec sqlite.RateConfigRecord, table *award.RateTable) {
	h.mu.Lock()
	h.table, h.rates = table, rec
	h.mu.Unlock()
	h.logger.Info("rate table installed",
		zap.Int64("version", rec.Version),
		zap.String("name", rec.Name),
		zap.Int("classifications", len(table.Classifications())))
}

// engine builds an Engine over the active rate table and the region's
// calendar plus any holidays supplied with the request.
func (h *Handler) engine(ctx context.Context, extra []award.PublicHoliday) (*award.Engine, int64, error) {
	h.mu.RLock()
	table, version := h.table, h.rates.Version
	h.mu.RUnlock()
	if table == nil {
		return nil, 0, errNoRates
	}

	cal, err := h.Store.HolidayCalendar(ctx, h.region)
	if err != nil {
		return nil, 0, err
	}
	if len(extra) > 0 {
		cal = award.NewStaticCalendar(append(cal.Holidays(), extra...)...)
	}
	eng, err := award.NewEngine(table, cal, h.cfg, award.WithLogger(h.logger), award.WithRecorder(h.recorder))
	return eng, version, err
}

// =============================================================================
// PAY HANDLERS
// =============================================================================

// PayShift prices a single shift.
// POST /api/pay/shift
func (h *Handler) PayShift(w http.ResponseWriter, r *http.Request) {
	var req PayShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := req.Employee.Profile()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}
	shift, err := req.Shift.Shift()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	if shift.EmployeeID == "" {
		shift.EmployeeID = emp.ID
	}
	extra, err := holidaysFrom(req.Holidays, h.region)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid holiday", err)
		return
	}

	eng, version, err := h.engine(r.Context(), extra)
	if err != nil {
		h.fail(w, r, "Failed to prepare engine", err)
		return
	}
	b, err := eng.ComputeShiftPay(shift, emp)
	if err != nil {
		h.fail(w, r, "Shift could not be priced", err)
		return
	}
	leave, _, err := eng.LeaveAccrued(emp, []award.ShiftPayBreakdown{b}, b.Date, b.Date)
	if err != nil {
		h.fail(w, r, "Leave could not be accrued", err)
		return
	}

	writeJSON(w, http.StatusOK, PayShiftResponse{
		Breakdown:            b,
		OrdinaryTimeEarnings: eng.OrdinaryTimeEarnings(b),
		Super:                eng.Super(b),
		LeaveAccruedHours:    leave,
		RateTableVersion:     version,
	})
}

// PayWeekly prices one employee's shifts and applies the pay-period
// overtime threshold. Failed shifts are reported and left out of the
// period totals.
// POST /api/pay/weekly
func (h *Handler) PayWeekly(w http.ResponseWriter, r *http.Request) {
	var req PayWeeklyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := req.Employee.Profile()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}
	shifts, err := shiftsFrom(req.Shifts, emp.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	extra, err := holidaysFrom(req.Holidays, h.region)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid holiday", err)
		return
	}

	eng, _, err := h.engine(r.Context(), extra)
	if err != nil {
		h.fail(w, r, "Failed to prepare engine", err)
		return
	}
	results, err := eng.ComputeCohortPay(r.Context(), []award.EmployeeProfile{emp}, shifts)
	if err != nil {
		h.fail(w, r, "Failed to price shifts", err)
		return
	}

	resp := PayWeeklyResponse{Results: results}
	var breakdowns []award.ShiftPayBreakdown
	for _, res := range results {
		if res.Breakdown == nil {
			resp.Failed++
			continue
		}
		breakdowns = append(breakdowns, *res.Breakdown)
		resp.Total += res.Breakdown.Total
	}
	if resp.Weekly, err = eng.ComputeWeeklyOvertime(breakdowns); err != nil {
		h.fail(w, r, "Failed to apply period overtime", err)
		return
	}
	resp.Total += resp.Weekly.AdditionalAmount

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// FATIGUE / SUPER / LEAVE HANDLERS
// =============================================================================

// AssessFatigue scores one employee's roster history.
// POST /api/fatigue
func (h *Handler) AssessFatigue(w http.ResponseWriter, r *http.Request) {
	var req FatigueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var shifts []award.RosterShift
	switch {
	case len(req.Shifts) > 0:
		var err error
		if shifts, err = shiftsFrom(req.Shifts, req.EmployeeID); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid shift", err)
			return
		}
	case req.EmployeeID != "":
		emp, err := h.Store.GetEmployee(r.Context(), req.EmployeeID)
		if err != nil {
			h.fail(w, r, "Failed to get employee", err)
			return
		}
		if emp == nil {
			writeError(w, http.StatusNotFound, "Employee not found", nil)
			return
		}
		if shifts, err = h.Store.ListShifts(r.Context(), sqlite.ShiftFilter{EmployeeID: emp.ID}); err != nil {
			h.fail(w, r, "Failed to list shifts", err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "shifts or employee_id is required", nil)
		return
	}

	eng, _, err := h.engine(r.Context(), nil)
	if err != nil {
		h.fail(w, r, "Failed to prepare engine", err)
		return
	}
	a, err := eng.AssessFatigueRisk(shifts)
	if err != nil {
		h.fail(w, r, "Fatigue could not be assessed", err)
		return
	}
	if a.EmployeeID == "" {
		a.EmployeeID = req.EmployeeID
	}

	writeJSON(w, http.StatusOK, a)
}

// CalculateSuper returns the superannuation guarantee on ordinary time
// earnings.
// POST /api/super
func (h *Handler) CalculateSuper(w http.ResponseWriter, r *http.Request) {
	var req SuperRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate := h.cfg.Super.RatePct
	if req.RatePct != "" {
		var err error
		if rate, err = req.RatePct.Decimal(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate_pct", err)
			return
		}
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		writeError(w, http.StatusBadRequest, "rate_pct must be between 0 and 100", nil)
		return
	}

	writeJSON(w, http.StatusOK, SuperResponse{
		OrdinaryEarnings: req.OrdinaryEarnings,
		RatePct:          rate,
		Super:            award.CalculateSuper(req.OrdinaryEarnings, rate),
	})
}

// CalculateLeave returns leave hours accrued for hours worked.
// POST /api/leave
func (h *Handler) CalculateLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hours, err := req.HoursWorked.Decimal()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours_worked", err)
		return
	}
	rate := h.cfg.Leave.AccrualRatePerHour
	if req.RatePerHour != "" {
		if rate, err = req.RatePerHour.Decimal(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate_per_hour", err)
			return
		}
	}
	et := award.EmploymentType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(req.EmploymentType)), "-", "_"))

	accrued, err := award.CalculateLeaveAccrual(hours, rate, et)
	if err != nil {
		h.fail(w, r, "Leave could not be accrued", err)
		return
	}

	writeJSON(w, http.StatusOK, LeaveResponse{
		HoursWorked:    hours,
		RatePerHour:    rate,
		EmploymentType: et,
		AccruedHours:   accrued,
	})
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// Audit runs the compliance battery over inline data. Nothing is stored.
// POST /api/audit
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	roster, err := req.Roster()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid roster", err)
		return
	}

	eng, _, err := h.engine(r.Context(), roster.Holidays)
	if err != nil {
		h.fail(w, r, "Failed to prepare engine", err)
		return
	}
	result, err := eng.RunLabourAudit(r.Context(), roster.Employees, roster.Shifts)
	if err != nil {
		h.fail(w, r, "Audit failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RunAudit audits stored employees and shifts and persists the result.
// POST /api/audit/run
func (h *Handler) RunAudit(w http.ResponseWriter, r *http.Request) {
	var req RunAuditRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	from, to, err := dateRange(req.From, req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	run, err := h.runStoredAudit(r.Context(), sqlite.ShiftFilter{From: from, To: to})
	if err != nil {
		h.fail(w, r, "Audit failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (h *Handler) runStoredAudit(ctx context.Context, filter sqlite.ShiftFilter) (sqlite.AuditRun, error) {
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		return sqlite.AuditRun{}, err
	}
	shifts, err := h.Store.ListShifts(ctx, filter)
	if err != nil {
		return sqlite.AuditRun{}, err
	}

	eng, version, err := h.engine(ctx, nil)
	if err != nil {
		return sqlite.AuditRun{}, err
	}
	result, err := eng.RunLabourAudit(ctx, employees, shifts)
	if err != nil {
		return sqlite.AuditRun{}, err
	}
	return h.Store.SaveAuditRun(ctx, sqlite.AuditRun{RateVersion: version, Result: result})
}

// ListAuditRuns returns persisted audit runs, newest first.
// GET /api/audit/runs?limit=20
func (h *Handler) ListAuditRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListAuditRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "Failed to list audit runs", err)
		return
	}
	if runs == nil {
		runs = []sqlite.AuditRun{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// =============================================================================
// EMPLOYEE / SHIFT HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}
	if employees == nil {
		employees = []award.EmployeeProfile{}
	}

	writeJSON(w, http.StatusOK, employees)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, emp)
}

// CreateEmployee creates or replaces an employee. The classification must
// exist in the active rate table.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req factory.EmployeeDoc
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	emp, err := req.Profile()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}

	h.mu.RLock()
	table := h.table
	h.mu.RUnlock()
	if table != nil && !table.HasClassification(emp.Classification) {
		h.fail(w, r, "Unknown classification", &award.UnknownClassificationError{EmployeeID: emp.ID, Classification: emp.Classification})
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, r, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, emp)
}

// ListEmployeeShifts returns an employee's shifts in date order.
// GET /api/employees/{id}/shifts?from=2025-08-01&to=2025-08-31
func (h *Handler) ListEmployeeShifts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	from, to, err := dateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	shifts, err := h.Store.ListShifts(r.Context(), sqlite.ShiftFilter{EmployeeID: id, From: from, To: to})
	if err != nil {
		h.fail(w, r, "Failed to list shifts", err)
		return
	}

	docs := make([]factory.ShiftDoc, len(shifts))
	for i, s := range shifts {
		docs[i] = factory.ShiftDocFrom(s)
	}
	writeJSON(w, http.StatusOK, docs)
}

// CreateShift creates or replaces a shift for a known employee.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req factory.ShiftDoc
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	shift, err := req.Shift()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), shift.EmployeeID)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		h.fail(w, r, "Failed to save shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, factory.ShiftDocFrom(shift))
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the region's holidays plus national ones.
// GET /api/holidays?region=VIC
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = h.region
	}

	holidays, err := h.Store.ListHolidays(r.Context(), region)
	if err != nil {
		h.fail(w, r, "Failed to get holidays", err)
		return
	}

	docs := make([]factory.HolidayDoc, 0, len(holidays))
	for _, hol := range holidays {
		docs = append(docs, factory.HolidayDocFrom(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": docs})
}

// CreateHoliday creates a holiday. Without a region it applies everywhere.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req factory.HolidayDoc
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	holiday, err := req.Holiday("")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday, err = h.Store.SaveHoliday(r.Context(), holiday)
	if err != nil {
		h.fail(w, r, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"holiday": factory.HolidayDocFrom(holiday),
	})
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete holiday", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// GetRates returns the active rate document.
// GET /api/rates
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	rec, table := h.rates, h.table
	h.mu.RUnlock()
	if table == nil {
		h.fail(w, r, "No rate table", errNoRates)
		return
	}

	writeJSON(w, http.StatusOK, RatesResponse{Version: rec.Version, Document: rec.Document})
}

// PutRates validates and installs a new rate document.
// PUT /api/rates
func (h *Handler) PutRates(w http.ResponseWriter, r *http.Request) {
	var doc factory.RateConfigDocument
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.SetRates(r.Context(), doc)
	if err != nil {
		h.fail(w, r, "Rate configuration rejected", err)
		return
	}

	writeJSON(w, http.StatusOK, RatesResponse{Version: rec.Version, Document: rec.Document})
}

// ResetDatabase clears all data except rate configurations.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		if reason := award.ErrorReason(err); reason != "other" {
			resp.Code = reason
		}
		var cfgErr *award.ConfigError
		if errors.As(err, &cfgErr) {
			resp.Field = cfgErr.Field
		}
	}
	writeJSON(w, status, resp)
}

// fail writes err with the status its kind maps to. Server-side failures
// are logged with the request ID.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message,
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoRates):
		return http.StatusServiceUnavailable
	case award.IsUnprocessable(err):
		return http.StatusUnprocessableEntity
	case award.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// shiftsFrom converts shift documents, filling a missing employee ID.
func shiftsFrom(docs []factory.ShiftDoc, employeeID string) ([]award.RosterShift, error) {
	shifts := make([]award.RosterShift, 0, len(docs))
	for i, d := range docs {
		s, err := d.Shift()
		if err != nil {
			return nil, fmt.Errorf("shifts[%d]: %w", i, err)
		}
		if s.EmployeeID == "" {
			s.EmployeeID = employeeID
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}

func holidaysFrom(docs []factory.HolidayDoc, region string) ([]award.PublicHoliday, error) {
	var holidays []award.PublicHoliday
	for i, d := range docs {
		hol, err := d.Holiday(region)
		if err != nil {
			return nil, fmt.Errorf("holidays[%d]: %w", i, err)
		}
		holidays = append(holidays, hol)
	}
	return holidays, nil
}

// dateRange parses optional YYYY-MM-DD bounds.
func dateRange(from, to string) (award.Date, award.Date, error) {
	var f, t award.Date
	var err error
	if from != "" {
		if f, err = award.ParseDate(from); err != nil {
			return f, t, fmt.Errorf("from: %w", err)
		}
	}
	if to != "" {
		if t, err = award.ParseDate(to); err != nil {
			return f, t, fmt.Errorf("to: %w", err)
		}
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return f, t, fmt.Errorf("to %s is before from %s", t, f)
	}
	return f, t, nil
}
