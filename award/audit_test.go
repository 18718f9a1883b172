package award_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/award-engine/award"
)

func TestScore(t *testing.T) {
	tests := []struct {
		passed, total, want int
	}{
		{2, 3, 67},
		{3, 3, 100},
		{1, 3, 33},
		{1, 2, 50},
		{5, 6, 83},
		{1, 8, 13}, // 12.5 rounds up
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, award.Score(tt.passed, tt.total), "%d/%d", tt.passed, tt.total)
	}
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, award.CategoryCompliant, award.CategoryFor(100))
	assert.Equal(t, award.CategoryCompliant, award.CategoryFor(90))
	assert.Equal(t, award.CategoryMinorIssues, award.CategoryFor(89))
	assert.Equal(t, award.CategoryMinorIssues, award.CategoryFor(70))
	assert.Equal(t, award.CategoryNeedsAttention, award.CategoryFor(67))
	assert.Equal(t, award.CategoryNonCompliant, award.CategoryFor(49))
}

func auditEmployees() []award.EmployeeProfile {
	casual := award.EmployeeProfile{ID: "emp-2", Classification: "COOK_GRADE_3", EmploymentType: award.Casual}
	return []award.EmployeeProfile{employee(), casual}
}

func TestRunLabourAudit_AllChecksPass(t *testing.T) {
	engine := newTestEngine(t, nil)
	shifts := []award.RosterShift{
		shift("a", "2025-08-04", "09:00", "17:00"),
		shift("b", "2025-08-05", "09:00", "17:00"),
	}

	res, err := engine.RunLabourAudit(context.Background(), auditEmployees(), shifts)

	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, award.CategoryCompliant, res.Category)
	assert.Equal(t, 3, res.TotalChecks)
	assert.Equal(t, 2, res.EmployeesAudited)
	assert.Equal(t, 2, res.ShiftsAudited)
	assert.Equal(t, award.FatigueSummary{Low: 2}, res.Fatigue)
}

func TestRunLabourAudit_DuplicateProfilesCountedOnce(t *testing.T) {
	// GIVEN: emp-1 listed twice, the second copy without a super fund
	engine := newTestEngine(t, nil)
	dup := employee()
	dup.SuperFundName = ""
	employees := append(auditEmployees(), dup)

	// WHEN: auditing
	res, err := engine.RunLabourAudit(context.Background(), employees, []award.RosterShift{shift("a", "2025-08-04", "09:00", "17:00")})

	// THEN: the first profile wins and every count sees two employees
	require.NoError(t, err)
	assert.Equal(t, 2, res.EmployeesAudited)
	assert.Equal(t, award.FatigueSummary{Low: 2}, res.Fatigue)
	require.Len(t, res.Checks, 3)
	assert.True(t, res.Checks[2].Passed)
	assert.Equal(t, "all 1 permanent employees have a super fund on file", res.Checks[2].Message)
	assert.Equal(t, "all 2 employees carry a known classification", res.Checks[0].Message)
	assert.Equal(t, 100, res.Score)
}

func TestRunLabourAudit_OneFailingCheckScores67(t *testing.T) {
	engine := newTestEngine(t, nil)
	employees := auditEmployees()
	employees[0].SuperFundName = "  "

	res, err := engine.RunLabourAudit(context.Background(), employees, nil)

	require.NoError(t, err)
	assert.Equal(t, 67, res.Score)
	assert.Equal(t, award.CategoryNeedsAttention, res.Category)
	require.Len(t, res.Checks, 3)
	assert.Equal(t, award.CheckSuperFundDetails, res.Checks[2].Name)
	assert.False(t, res.Checks[2].Passed)
	assert.Equal(t, []string{"emp-1"}, res.Checks[2].Evidence)
}

func TestRunLabourAudit_FatigueExposure(t *testing.T) {
	engine := newTestEngine(t, nil)
	shifts := []award.RosterShift{
		shift("close", "2025-08-04", "14:00", "22:00"),
		shift("open", "2025-08-05", "05:00", "13:00"),
	}

	res, err := engine.RunLabourAudit(context.Background(), auditEmployees(), shifts)

	require.NoError(t, err)
	assert.Equal(t, award.FatigueSummary{Low: 1, High: 1}, res.Fatigue)
	assert.False(t, res.Checks[1].Passed)
	assert.Equal(t, []string{"emp-1"}, res.Checks[1].Evidence)
	assert.Equal(t, 67, res.Score)
}

func TestRunLabourAudit_ExtendedChecks(t *testing.T) {
	engine := newTestEngine(t, nil, func(c *award.Config) { c.Audit.ExtendedChecks = true })
	shifts := []award.RosterShift{
		shift("a", "2025-08-04", "09:00", "09:00"),
		shift("b", "2024-01-02", "09:00", "17:00"),
	}

	res, err := engine.RunLabourAudit(context.Background(), auditEmployees(), shifts)

	require.NoError(t, err)
	require.Len(t, res.Checks, 5)
	assert.Equal(t, award.CheckRateCoverage, res.Checks[3].Name)
	assert.Equal(t, []string{"b"}, res.Checks[3].Evidence)
	assert.Equal(t, award.CheckRosterDataQuality, res.Checks[4].Name)
	assert.Equal(t, []string{"a"}, res.Checks[4].Evidence)
	assert.Equal(t, 60, res.Score)
}

func TestRunLabourAudit_DeterministicAcrossWorkerCounts(t *testing.T) {
	var employees []award.EmployeeProfile
	var shifts []award.RosterShift
	for i := 0; i < 20; i++ {
		e := employee()
		e.ID = "emp-" + string(rune('a'+i))
		if i%3 == 0 {
			e.SuperFundName = ""
		}
		employees = append(employees, e)
		s := shift("s-"+e.ID, "2025-08-04", "14:00", "22:00")
		s.EmployeeID = e.ID
		next := shift("t-"+e.ID, "2025-08-05", "05:00", "13:00")
		next.EmployeeID = e.ID
		if i%2 == 0 {
			next.StartTime = clock("11:00")
		}
		shifts = append(shifts, s, next)
	}

	serial := newTestEngine(t, nil, func(c *award.Config) { c.Audit.Workers = 1 })
	parallel := newTestEngine(t, nil, func(c *award.Config) { c.Audit.Workers = 8 })

	a, err := serial.RunLabourAudit(context.Background(), employees, shifts)
	require.NoError(t, err)
	b, err := parallel.RunLabourAudit(context.Background(), employees, shifts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, award.FatigueSummary{Low: 10, High: 10}, a.Fatigue)
}

func TestRunLabourAudit_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.RunLabourAudit(ctx, auditEmployees(), nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestComplianceAuditor_CustomChecks(t *testing.T) {
	always := award.AuditCheck{Name: "always", Run: func(award.AuditContext) award.CheckResult {
		return award.CheckResult{Passed: true, Severity: award.SeverityInfo}
	}}
	never := award.AuditCheck{Name: "never", Run: func(award.AuditContext) award.CheckResult {
		return award.CheckResult{Name: "renamed", Severity: award.SeverityInfo}
	}}

	res := award.NewComplianceAuditor(always, never, never, never).Audit(award.AuditContext{})

	assert.Equal(t, 25, res.Score)
	assert.Equal(t, award.CategoryNonCompliant, res.Category)
	assert.Equal(t, "never", res.Checks[1].Name, "the check's registered name wins")

	empty := award.NewComplianceAuditor().Audit(award.AuditContext{})
	assert.Equal(t, 0, empty.Score)
	assert.Equal(t, award.CategoryNonCompliant, empty.Category)
}

// =============================================================================
// RECORDER
// =============================================================================

type countingRecorder struct {
	mu       sync.Mutex
	computed int
	failed   int
	fatigue  int
	audits   int
}

func (r *countingRecorder) ShiftComputed(award.ShiftPayBreakdown) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computed++
}

func (r *countingRecorder) ShiftFailed(string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *countingRecorder) FatigueAssessed(award.FatigueAssessment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fatigue++
}

func (r *countingRecorder) AuditCompleted(award.LabourAuditResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits++
}

func TestEngine_CohortPayContinuesPastFailures(t *testing.T) {
	rec := &countingRecorder{}
	engine, err := award.NewEngine(newTestTable(t), nil, award.DefaultConfig(), award.WithRecorder(rec))
	require.NoError(t, err)

	ghost := shift("ghost", "2025-08-04", "09:00", "17:00")
	ghost.EmployeeID = "nobody"
	shifts := []award.RosterShift{
		shift("ok-1", "2025-08-04", "09:00", "17:00"),
		shift("too-early", "2024-01-02", "09:00", "17:00"),
		ghost,
		shift("ok-2", "2025-08-05", "09:00", "17:00"),
	}

	results, err := engine.ComputeCohortPay(context.Background(), []award.EmployeeProfile{employee()}, shifts)
	require.NoError(t, err)

	require.Len(t, results, 4)
	assert.Equal(t, "ok-1", results[0].ShiftID)
	require.NotNil(t, results[0].Breakdown)
	assert.ErrorIs(t, results[1].Err, award.ErrRateNotFound)
	assert.ErrorIs(t, results[2].Err, award.ErrInvalidShift)
	assert.NotEmpty(t, results[2].Error)
	require.NotNil(t, results[3].Breakdown)
	assert.Equal(t, 2, rec.computed)
	assert.Equal(t, 2, rec.failed)
}

func TestNewEngine_RejectsBadConfiguration(t *testing.T) {
	_, err := award.NewEngine(nil, nil, award.DefaultConfig())
	assert.ErrorIs(t, err, award.ErrInvalidConfig)

	cfg := award.DefaultConfig()
	cfg.CombinationPolicy = "AVERAGE"
	_, err = award.NewEngine(newTestTable(t), nil, cfg)
	assert.ErrorIs(t, err, award.ErrInvalidConfig)

	cfg = award.DefaultConfig()
	cfg.Overtime.Tiers = nil
	_, err = award.NewEngine(newTestTable(t), nil, cfg)
	assert.ErrorIs(t, err, award.ErrInvalidConfig)

	cfg = award.DefaultConfig()
	cfg.Fatigue.SevereRestHours = dec("11")
	_, err = award.NewEngine(newTestTable(t), nil, cfg)
	assert.ErrorIs(t, err, award.ErrInvalidConfig)
}
