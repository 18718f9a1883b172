package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/award-engine/award"
)

var (
	payRates  string
	payRoster string
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Price every shift in a roster file",
	Long: `Price every shift in a roster file (YAML or JSON) and apply the
pay-period overtime threshold per employee. Shifts that cannot be priced
are reported with their error; the rest are still priced.`,
	Args: cobra.NoArgs,
	RunE: runPay,
}

func init() {
	payCmd.Flags().StringVar(&payRates, "rates", "", "rate document (default: rates_file or the hospitality preset)")
	payCmd.Flags().StringVar(&payRoster, "roster", "", "roster document")
}

type payReport struct {
	Results []award.ShiftPayResult       `json:"results"`
	Weekly  []award.WeeklyOvertimeResult `json:"weekly"`
	Total   award.Money                  `json:"total"`
	Failed  int                          `json:"failed"`
}

func runPay(cmd *cobra.Command, args []string) error {
	eng, roster, err := rosterEngine(payRates, payRoster)
	if err != nil {
		return err
	}

	results, err := eng.ComputeCohortPay(cmd.Context(), roster.Employees, roster.Shifts)
	if err != nil {
		return err
	}

	report := payReport{Results: results, Weekly: []award.WeeklyOvertimeResult{}}
	byEmployee := map[string][]award.ShiftPayBreakdown{}
	for _, res := range results {
		if res.Breakdown == nil {
			report.Failed++
			continue
		}
		byEmployee[res.Breakdown.EmployeeID] = append(byEmployee[res.Breakdown.EmployeeID], *res.Breakdown)
		report.Total += res.Breakdown.Total
	}
	for _, emp := range roster.Employees {
		breakdowns := byEmployee[emp.ID]
		if len(breakdowns) == 0 {
			continue
		}
		weekly, err := eng.ComputeWeeklyOvertime(breakdowns)
		if err != nil {
			return fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		report.Weekly = append(report.Weekly, weekly)
		report.Total += weekly.AdditionalAmount
	}

	return printJSON(cmd, report)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
