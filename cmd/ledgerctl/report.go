package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"lynkledger/internal/app"
	"lynkledger/internal/events"
	"lynkledger/internal/money"
	"lynkledger/internal/websocket"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print financial reports",
}

var trialBalanceCmd = &cobra.Command{
	Use:   "trial-balance",
	Short: "Print the trial balance of an organization",
	Example: `  ledgerctl report trial-balance --org 6f1c... --date 2024-03-31
  ledgerctl report trial-balance --org 6f1c... --json`,
	RunE: runTrialBalance,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(trialBalanceCmd)

	trialBalanceCmd.Flags().String("org", "", "Organization id")
	trialBalanceCmd.Flags().String("date", "", "As-of date (format: YYYY-MM-DD, default: today)")
	trialBalanceCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func runTrialBalance(cmd *cobra.Command, args []string) error {
	orgID, _ := cmd.Flags().GetString("org")
	rawDate, _ := cmd.Flags().GetString("date")
	asJSON, _ := cmd.Flags().GetBool("json")
	if orgID == "" {
		return errors.New("--org is required")
	}
	asOf, err := parseDay(rawDate)
	if err != nil {
		return err
	}

	database, err := connect()
	if err != nil {
		return err
	}
	defer database.Close()
	wired := app.New(cfg, database, events.Noop{}, websocket.NewHub())

	report, err := wired.Reports.TrialBalance(cmd.Context(), orgID, asOf)
	if err != nil {
		return err
	}
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "CODE\tACCOUNT\tDEBIT\tCREDIT\t\n")
	for _, line := range report.Accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", line.Code, line.Name, money.Format(line.Debits), money.Format(line.Credits))
	}
	fmt.Fprintf(w, "\tTOTAL\t%s\t%s\t\n", money.Format(report.Totals.Debits), money.Format(report.Totals.Credits))
	if err := w.Flush(); err != nil {
		return err
	}
	if !report.Balanced() {
		return fmt.Errorf("trial balance is out of balance as of %s", asOf.Format("2006-01-02"))
	}
	return nil
}
