package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/award-engine/award"
)

var (
	auditRates    string
	auditRoster   string
	auditMinScore int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the labour audit over a roster file",
	Long: `Run the compliance checks over a roster file and print the scored
result. With --min-score the command fails when the score is lower, for
use in CI.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var (
	fatigueRates  string
	fatigueRoster string
)

var fatigueCmd = &cobra.Command{
	Use:   "fatigue",
	Short: "Assess fatigue risk for each employee in a roster file",
	Args:  cobra.NoArgs,
	RunE:  runFatigue,
}

func init() {
	auditCmd.Flags().StringVar(&auditRates, "rates", "", "rate document (default: rates_file or the hospitality preset)")
	auditCmd.Flags().StringVar(&auditRoster, "roster", "", "roster document")
	auditCmd.Flags().IntVar(&auditMinScore, "min-score", 0, "fail when the score is below this value")

	fatigueCmd.Flags().StringVar(&fatigueRates, "rates", "", "rate document (default: rates_file or the hospitality preset)")
	fatigueCmd.Flags().StringVar(&fatigueRoster, "roster", "", "roster document")
}

func runAudit(cmd *cobra.Command, args []string) error {
	eng, roster, err := rosterEngine(auditRates, auditRoster)
	if err != nil {
		return err
	}

	result, err := eng.RunLabourAudit(cmd.Context(), roster.Employees, roster.Shifts)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, result); err != nil {
		return err
	}

	if result.Score < auditMinScore {
		return fmt.Errorf("audit score %d is below %d (%s)", result.Score, auditMinScore, result.Category)
	}
	return nil
}

func runFatigue(cmd *cobra.Command, args []string) error {
	eng, roster, err := rosterEngine(fatigueRates, fatigueRoster)
	if err != nil {
		return err
	}

	byEmployee := map[string][]award.RosterShift{}
	for _, s := range roster.Shifts {
		byEmployee[s.EmployeeID] = append(byEmployee[s.EmployeeID], s)
	}

	assessments := []award.FatigueAssessment{}
	for _, emp := range roster.Employees {
		a, err := eng.AssessFatigueRisk(byEmployee[emp.ID])
		if err != nil {
			return fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		if a.EmployeeID == "" {
			a.EmployeeID = emp.ID
		}
		assessments = append(assessments, a)
	}

	return printJSON(cmd, assessments)
}
