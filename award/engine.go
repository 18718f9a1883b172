/*
engine.go - Award engine entry points

PURPOSE:
  Wires the calculators together behind the public operations:

    ComputeShiftPay       one shift -> ShiftPayBreakdown
    ComputeCohortPay      many shifts, continuing past per-shift errors
    ComputeWeeklyOvertime period threshold over one employee's breakdowns
    AssessFatigueRisk     one employee's roster history -> FatigueAssessment
    RunLabourAudit        organisation data -> LabourAuditResult
    LeaveAccrued          leave earned from breakdowns

  An Engine holds only immutable configuration. All methods are safe for
  concurrent use and produce a fresh result on each call.

OBSERVABILITY:
  Data-quality warnings are logged at WARN. A Recorder (see metrics/)
  receives counts; both default to no-ops.
*/
package award

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

type AuditConfig struct {
	Workers                 int  `json:"workers"`
	ExtendedChecks          bool `json:"extended_checks"`
	MaxHighFatigueEmployees int  `json:"max_high_fatigue_employees"`
}

// Config collects every tunable threshold. Nothing is hard-coded.
type Config struct {
	CombinationPolicy       CombinationPolicy    `json:"combination_policy"`
	SplitShiftMinGapMinutes int                  `json:"split_shift_min_gap_minutes"`
	Overtime                OvertimeConfig       `json:"overtime"`
	Weekly                  WeeklyOvertimeConfig `json:"weekly"`
	Fatigue                 FatigueConfig        `json:"fatigue"`
	Super                   SuperConfig          `json:"super"`
	Leave                   LeaveConfig          `json:"leave"`
	Audit                   AuditConfig          `json:"audit"`
}

func DefaultConfig() Config {
	return Config{
		CombinationPolicy:       CombineHighest,
		SplitShiftMinGapMinutes: 60,
		Overtime:                DefaultOvertimeConfig(),
		Weekly:                  DefaultWeeklyOvertimeConfig(),
		Fatigue:                 DefaultFatigueConfig(),
		Super:                   DefaultSuperConfig(),
		Leave:                   DefaultLeaveConfig(),
		Audit:                   AuditConfig{Workers: 8},
	}
}

func (c Config) Validate() error {
	if !c.CombinationPolicy.Valid() {
		return configErr("combination_policy", "unknown policy %q", c.CombinationPolicy)
	}
	if c.SplitShiftMinGapMinutes < 0 {
		return configErr("split_shift_min_gap_minutes", "must not be negative")
	}
	if c.Audit.Workers < 1 {
		return configErr("audit.workers", "must be at least 1")
	}
	if c.Audit.MaxHighFatigueEmployees < 0 {
		return configErr("audit.max_high_fatigue_employees", "must not be negative")
	}
	for _, v := range []interface{ Validate() error }{c.Overtime, c.Weekly, c.Fatigue, c.Super, c.Leave} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder observes engine outcomes.
type Recorder interface {
	ShiftComputed(b ShiftPayBreakdown)
	ShiftFailed(shiftID string, err error)
	FatigueAssessed(a FatigueAssessment)
	AuditCompleted(r LabourAuditResult)
}

type nopRecorder struct{}

func (nopRecorder) ShiftComputed(ShiftPayBreakdown)   {}
func (nopRecorder) ShiftFailed(string, error)         {}
func (nopRecorder) FatigueAssessed(FatigueAssessment) {}
func (nopRecorder) AuditCompleted(LabourAuditResult)  {}

// =============================================================================
// ENGINE
// =============================================================================

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithChecks replaces the audit battery chosen by the configuration.
func WithChecks(checks ...AuditCheck) Option {
	return func(e *Engine) { e.auditor = NewComplianceAuditor(checks...) }
}

type Engine struct {
	cfg        Config
	table      *RateTable
	days       *DayTypeResolver
	segmenter  *ShiftSegmenter
	resolver   *RateResolver
	calculator *PayBreakdownCalculator
	weekly     *WeeklyOvertimeAggregator
	fatigue    *FatigueRiskAssessor
	auditor    *ComplianceAuditor
	logger     *zap.Logger
	recorder   Recorder
}

func NewEngine(table *RateTable, calendar HolidayCalendar, cfg Config, opts ...Option) (*Engine, error) {
	if table == nil {
		return nil, configErr("rate_table", "a rate table is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	days := NewDayTypeResolver(calendar)
	checks := DefaultChecks()
	if cfg.Audit.ExtendedChecks {
		checks = ExtendedChecks()
	}
	e := &Engine{
		cfg:        cfg,
		table:      table,
		days:       days,
		segmenter:  NewShiftSegmenter(days, table.Boundaries(), time.Duration(cfg.SplitShiftMinGapMinutes)*time.Minute),
		resolver:   NewRateResolver(table, cfg.CombinationPolicy),
		calculator: NewPayBreakdownCalculator(cfg.Overtime),
		weekly:     NewWeeklyOvertimeAggregator(cfg.Weekly, cfg.Overtime),
		fatigue:    NewFatigueRiskAssessor(cfg.Fatigue),
		auditor:    NewComplianceAuditor(checks...),
		logger:     zap.NewNop(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() Config                     { return e.cfg }
func (e *Engine) Table() *RateTable                  { return e.table }
func (e *Engine) DayType(d Date) DayType             { return e.days.Resolve(d) }
func (e *Engine) Segment(s RosterShift) Segmentation { return e.segmenter.Segment(s) }

// ComputeShiftPay prices one shift. Missing rates and unknown
// classifications fail the shift; break irregularities become warnings.
func (e *Engine) ComputeShiftPay(shift RosterShift, employee EmployeeProfile) (ShiftPayBreakdown, error) {
	b, err := e.computeShiftPay(shift, employee)
	if err != nil {
		e.logger.Warn("shift not priced",
			zap.String("shift_id", shift.ID),
			zap.String("employee_id", employee.ID),
			zap.String("reason", ErrorReason(err)),
			zap.Error(err))
		e.recorder.ShiftFailed(shift.ID, err)
		return ShiftPayBreakdown{}, err
	}
	e.logWarnings(employee.ID, b.Warnings)
	e.recorder.ShiftComputed(b)
	return b, nil
}

func (e *Engine) computeShiftPay(shift RosterShift, employee EmployeeProfile) (ShiftPayBreakdown, error) {
	if err := shift.Validate(); err != nil {
		return ShiftPayBreakdown{}, err
	}
	if shift.EmployeeID != "" && employee.ID != "" && shift.EmployeeID != employee.ID {
		return ShiftPayBreakdown{}, &InvalidShiftError{ShiftID: shift.ID, Reason: "shift belongs to employee " + shift.EmployeeID + ", not " + employee.ID}
	}
	if employee.Classification == "" || !e.table.HasClassification(employee.Classification) {
		return ShiftPayBreakdown{}, &UnknownClassificationError{EmployeeID: employee.ID, Classification: employee.Classification}
	}

	rate, err := e.table.RateFor(employee.Classification, shift.Date)
	if err != nil {
		var notFound *RateNotFoundError
		if errors.As(err, &notFound) {
			notFound.ShiftID = shift.ID
		}
		return ShiftPayBreakdown{}, err
	}

	seg := e.segmenter.Segment(shift)
	return e.calculator.Compute(PricedShift{
		Shift:        shift,
		Employee:     employee,
		Rate:         rate,
		Segmentation: seg,
		Segments:     e.resolver.ResolveAll(seg.Segments, employee.Classification, shift.Date, rate),
		Allowances:   e.resolver.ResolveAllowances(shift, employee, seg),
	}), nil
}

func (e *Engine) logWarnings(employeeID string, warnings []DataQualityWarning) {
	for _, w := range warnings {
		e.logger.Warn("roster data quality",
			zap.String("shift_id", w.ShiftID),
			zap.String("employee_id", employeeID),
			zap.String("code", string(w.Code)),
			zap.String("detail", w.Message))
	}
}

// ShiftPayResult is one entry of a cohort calculation.
type ShiftPayResult struct {
	ShiftID   string             `json:"shift_id"`
	Breakdown *ShiftPayBreakdown `json:"breakdown,omitempty"`
	Err       error              `json:"-"`
	Error     string             `json:"error,omitempty"`
}

// ComputeCohortPay prices every shift against its employee. Results keep
// the input order; a failed shift records its error and the rest continue.
func (e *Engine) ComputeCohortPay(ctx context.Context, employees []EmployeeProfile, shifts []RosterShift) ([]ShiftPayResult, error) {
	byID := make(map[string]EmployeeProfile, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}

	results := make([]ShiftPayResult, len(shifts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Audit.Workers)
	for i, s := range shifts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := ShiftPayResult{ShiftID: s.ID}
			emp, ok := byID[s.EmployeeID]
			if !ok {
				res.Err = &InvalidShiftError{ShiftID: s.ID, Reason: "unknown employee " + s.EmployeeID}
				e.recorder.ShiftFailed(s.ID, res.Err)
			} else if b, err := e.ComputeShiftPay(s, emp); err != nil {
				res.Err = err
			} else {
				res.Breakdown = &b
			}
			if res.Err != nil {
				res.Error = res.Err.Error()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ComputeWeeklyOvertime applies the pay-period threshold to one
// employee's breakdowns.
func (e *Engine) ComputeWeeklyOvertime(breakdowns []ShiftPayBreakdown) (WeeklyOvertimeResult, error) {
	return e.weekly.Aggregate(breakdowns)
}

func (e *Engine) AssessFatigueRisk(shifts []RosterShift) (FatigueAssessment, error) {
	a, err := e.fatigue.Assess(shifts)
	if err != nil {
		return FatigueAssessment{}, err
	}
	e.recorder.FatigueAssessed(a)
	return a, nil
}

// OrdinaryTimeEarnings and Super use the configured super settings.
func (e *Engine) OrdinaryTimeEarnings(b ShiftPayBreakdown) Money {
	return OrdinaryTimeEarnings(b, e.cfg.Super)
}

func (e *Engine) Super(b ShiftPayBreakdown) Money {
	return CalculateSuper(e.OrdinaryTimeEarnings(b), e.cfg.Super.RatePct)
}

// LeaveAccrued returns leave hours earned by the breakdowns dated in
// [from, to].
func (e *Engine) LeaveAccrued(employee EmployeeProfile, breakdowns []ShiftPayBreakdown, from, to Date) (decimal.Decimal, []LeaveAccrualEvent, error) {
	schedule := LeaveAccrualSchedule{
		EmploymentType: employee.EmploymentType,
		RatePerHour:    e.cfg.Leave.AccrualRatePerHour,
		Breakdowns:     breakdowns,
	}
	events, err := schedule.GenerateAccruals(from, to)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return TotalAccrued(events), events, nil
}

// =============================================================================
// AUDIT
// =============================================================================

type employeeShifts struct {
	employeeID string
	shifts     []RosterShift
}

// RunLabourAudit assesses each employee's fatigue in parallel, gathers
// roster warnings and runs the check battery. Output order is stable.
func (e *Engine) RunLabourAudit(ctx context.Context, employees []EmployeeProfile, shifts []RosterShift) (LabourAuditResult, error) {
	employees = uniqueEmployees(employees)
	groups := groupByEmployee(employees, shifts)
	assessments := make([]FatigueAssessment, len(groups))
	warnings := make([][]DataQualityWarning, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Audit.Workers)
	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := e.fatigue.Assess(grp.shifts)
			if err != nil {
				return err
			}
			a.EmployeeID = grp.employeeID
			assessments[i] = a
			for _, s := range grp.shifts {
				if err := s.Validate(); err != nil {
					warnings[i] = append(warnings[i], newWarning(s.ID, WarnInvalidShift, "%v", err))
					continue
				}
				warnings[i] = append(warnings[i], e.segmenter.Segment(s).Warnings...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LabourAuditResult{}, err
	}

	var all []DataQualityWarning
	for i, ws := range warnings {
		e.logWarnings(groups[i].employeeID, ws)
		all = append(all, ws...)
	}
	for _, a := range assessments {
		e.recorder.FatigueAssessed(a)
	}

	result := e.auditor.Audit(AuditContext{
		Employees:               employees,
		Shifts:                  shifts,
		Fatigue:                 assessments,
		Warnings:                all,
		Table:                   e.table,
		MaxHighFatigueEmployees: e.cfg.Audit.MaxHighFatigueEmployees,
	})
	e.logger.Info("labour audit completed",
		zap.Int("score", result.Score),
		zap.String("category", string(result.Category)),
		zap.Int("employees", result.EmployeesAudited),
		zap.Int("shifts", result.ShiftsAudited))
	e.recorder.AuditCompleted(result)
	return result, nil
}

// uniqueEmployees keeps the first profile for each employee id.
func uniqueEmployees(employees []EmployeeProfile) []EmployeeProfile {
	seen := make(map[string]bool, len(employees))
	out := make([]EmployeeProfile, 0, len(employees))
	for _, emp := range employees {
		if seen[emp.ID] {
			continue
		}
		seen[emp.ID] = true
		out = append(out, emp)
	}
	return out
}

// groupByEmployee returns one group per employee in input order, followed
// by shift owners missing from the employee list, sorted by id. Employee
// ids must be unique.
func groupByEmployee(employees []EmployeeProfile, shifts []RosterShift) []employeeShifts {
	index := make(map[string]int, len(employees))
	var groups []employeeShifts
	for _, emp := range employees {
		index[emp.ID] = len(groups)
		groups = append(groups, employeeShifts{employeeID: emp.ID})
	}
	var orphans []string
	byOrphan := make(map[string][]RosterShift)
	for _, s := range shifts {
		if i, ok := index[s.EmployeeID]; ok {
			groups[i].shifts = append(groups[i].shifts, s)
			continue
		}
		if _, ok := byOrphan[s.EmployeeID]; !ok {
			orphans = append(orphans, s.EmployeeID)
		}
		byOrphan[s.EmployeeID] = append(byOrphan[s.EmployeeID], s)
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		groups = append(groups, employeeShifts{employeeID: id, shifts: byOrphan[id]})
	}
	return groups
}
