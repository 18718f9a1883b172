/*
audit.go - Labour compliance audit

PURPOSE:
  Runs a battery of pass/fail checks over an organisation's labour data
  and turns the pass ratio into a score and category.

SCORING:
  score = round(100 x passed / total), half up. Checks are unweighted.

    >= 90  COMPLIANT
    >= 70  MINOR_ISSUES
    >= 50  NEEDS_ATTENTION
    else   NON_COMPLIANT

  A failing check is a scored outcome, never an error.

EXTENDING:
  A check is a name plus a function of AuditContext. Pass any set of
  checks to NewComplianceAuditor; DefaultChecks is the standard battery.

SEE ALSO:
  - engine.go: RunLabourAudit builds the AuditContext
*/
package award

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

type AuditCategory string

const (
	CategoryCompliant      AuditCategory = "COMPLIANT"
	CategoryMinorIssues    AuditCategory = "MINOR_ISSUES"
	CategoryNeedsAttention AuditCategory = "NEEDS_ATTENTION"
	CategoryNonCompliant   AuditCategory = "NON_COMPLIANT"
)

// Check names.
const (
	CheckClassificationCompleteness = "classification_completeness"
	CheckFatigueExposure            = "fatigue_exposure"
	CheckSuperFundDetails           = "super_fund_details"
	CheckRateCoverage               = "rate_coverage"
	CheckRosterDataQuality          = "roster_data_quality"
)

type CheckResult struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Evidence []string `json:"evidence,omitempty"`
}

// AuditContext is the read-only input to every check.
type AuditContext struct {
	Employees []EmployeeProfile
	Shifts    []RosterShift
	Fatigue   []FatigueAssessment
	Warnings  []DataQualityWarning
	Table     *RateTable

	MaxHighFatigueEmployees int
}

type AuditCheck struct {
	Name string
	Run  func(AuditContext) CheckResult
}

type FatigueSummary struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type LabourAuditResult struct {
	Score            int            `json:"score"`
	Category         AuditCategory  `json:"category"`
	PassedChecks     int            `json:"passed_checks"`
	TotalChecks      int            `json:"total_checks"`
	Checks           []CheckResult  `json:"checks"`
	Fatigue          FatigueSummary `json:"fatigue_summary"`
	EmployeesAudited int            `json:"employees_audited"`
	ShiftsAudited    int            `json:"shifts_audited"`
}

// Score returns round(100 x passed / total) with halves rounded up.
func Score(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*passed + total) / (2 * total)
}

func CategoryFor(score int) AuditCategory {
	switch {
	case score >= 90:
		return CategoryCompliant
	case score >= 70:
		return CategoryMinorIssues
	case score >= 50:
		return CategoryNeedsAttention
	default:
		return CategoryNonCompliant
	}
}

// =============================================================================
// AUDITOR
// =============================================================================

type ComplianceAuditor struct {
	checks []AuditCheck
}

func NewComplianceAuditor(checks ...AuditCheck) *ComplianceAuditor {
	return &ComplianceAuditor{checks: append([]AuditCheck(nil), checks...)}
}

func (a *ComplianceAuditor) Checks() []string {
	names := make([]string, len(a.checks))
	for i, c := range a.checks {
		names[i] = c.Name
	}
	return names
}

func (a *ComplianceAuditor) Audit(ctx AuditContext) LabourAuditResult {
	res := LabourAuditResult{
		Checks:           make([]CheckResult, 0, len(a.checks)),
		TotalChecks:      len(a.checks),
		EmployeesAudited: len(ctx.Employees),
		ShiftsAudited:    len(ctx.Shifts),
	}
	for _, c := range a.checks {
		r := c.Run(ctx)
		r.Name = c.Name
		if r.Passed {
			res.PassedChecks++
		}
		res.Checks = append(res.Checks, r)
	}
	for _, f := range ctx.Fatigue {
		switch f.RiskLevel {
		case RiskHigh:
			res.Fatigue.High++
		case RiskMedium:
			res.Fatigue.Medium++
		default:
			res.Fatigue.Low++
		}
	}
	res.Score = Score(res.PassedChecks, res.TotalChecks)
	res.Category = CategoryFor(res.Score)
	return res
}

// =============================================================================
// CHECKS
// =============================================================================

// DefaultChecks is the standard battery.
func DefaultChecks() []AuditCheck {
	return []AuditCheck{
		{Name: CheckClassificationCompleteness, Run: checkClassificationCompleteness},
		{Name: CheckFatigueExposure, Run: checkFatigueExposure},
		{Name: CheckSuperFundDetails, Run: checkSuperFundDetails},
	}
}

// ExtendedChecks adds rate coverage and roster data quality to the
// standard battery.
func ExtendedChecks() []AuditCheck {
	return append(DefaultChecks(),
		AuditCheck{Name: CheckRateCoverage, Run: checkRateCoverage},
		AuditCheck{Name: CheckRosterDataQuality, Run: checkRosterDataQuality},
	)
}

func checkClassificationCompleteness(ctx AuditContext) CheckResult {
	var bad []string
	for _, e := range ctx.Employees {
		if e.Classification == "" || (ctx.Table != nil && !ctx.Table.HasClassification(e.Classification)) {
			bad = append(bad, e.ID)
		}
	}
	if len(bad) == 0 {
		return CheckResult{Passed: true, Severity: SeverityCritical,
			Message: fmt.Sprintf("all %d employees carry a known classification", len(ctx.Employees))}
	}
	return CheckResult{Severity: SeverityCritical, Evidence: bad,
		Message: fmt.Sprintf("%d of %d employees have a missing or unknown classification", len(bad), len(ctx.Employees))}
}

func checkFatigueExposure(ctx AuditContext) CheckResult {
	var high []string
	for _, f := range ctx.Fatigue {
		if f.RiskLevel == RiskHigh {
			high = append(high, f.EmployeeID)
		}
	}
	if len(high) <= ctx.MaxHighFatigueEmployees {
		return CheckResult{Passed: true, Severity: SeverityWarning, Evidence: high,
			Message: fmt.Sprintf("%d employees at high fatigue risk (limit %d)", len(high), ctx.MaxHighFatigueEmployees)}
	}
	return CheckResult{Severity: SeverityWarning, Evidence: high,
		Message: fmt.Sprintf("%d employees at high fatigue risk, limit is %d", len(high), ctx.MaxHighFatigueEmployees)}
}

func checkSuperFundDetails(ctx AuditContext) CheckResult {
	var missing []string
	eligible := 0
	for _, e := range ctx.Employees {
		if e.EmploymentType == Casual {
			continue
		}
		eligible++
		if strings.TrimSpace(e.SuperFundName) == "" {
			missing = append(missing, e.ID)
		}
	}
	if len(missing) == 0 {
		return CheckResult{Passed: true, Severity: SeverityWarning,
			Message: fmt.Sprintf("all %d permanent employees have a super fund on file", eligible)}
	}
	return CheckResult{Severity: SeverityWarning, Evidence: missing,
		Message: fmt.Sprintf("%d of %d permanent employees have no super fund on file", len(missing), eligible)}
}

func checkRateCoverage(ctx AuditContext) CheckResult {
	if ctx.Table == nil {
		return CheckResult{Severity: SeverityCritical, Message: "no rate table loaded"}
	}
	byID := make(map[string]EmployeeProfile, len(ctx.Employees))
	for _, e := range ctx.Employees {
		byID[e.ID] = e
	}
	var uncovered []string
	for _, s := range ctx.Shifts {
		e, ok := byID[s.EmployeeID]
		if !ok {
			uncovered = append(uncovered, s.ID)
			continue
		}
		if _, err := ctx.Table.RateFor(e.Classification, s.Date); err != nil {
			uncovered = append(uncovered, s.ID)
		}
	}
	if len(uncovered) == 0 {
		return CheckResult{Passed: true, Severity: SeverityCritical,
			Message: fmt.Sprintf("all %d shifts have an effective award rate", len(ctx.Shifts))}
	}
	return CheckResult{Severity: SeverityCritical, Evidence: uncovered,
		Message: fmt.Sprintf("%d of %d shifts cannot be priced", len(uncovered), len(ctx.Shifts))}
}

func checkRosterDataQuality(ctx AuditContext) CheckResult {
	if len(ctx.Warnings) == 0 {
		return CheckResult{Passed: true, Severity: SeverityInfo, Message: "no roster data quality warnings"}
	}
	seen := make(map[string]bool)
	var shifts []string
	for _, w := range ctx.Warnings {
		if !seen[w.ShiftID] {
			seen[w.ShiftID] = true
			shifts = append(shifts, w.ShiftID)
		}
	}
	return CheckResult{Severity: SeverityInfo, Evidence: shifts,
		Message: fmt.Sprintf("%d data quality warnings across %d shifts", len(ctx.Warnings), len(shifts))}
}
