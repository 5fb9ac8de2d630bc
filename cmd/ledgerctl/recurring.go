package main

import (
	"encoding/json"
	"fmt"
	"time"

	"lynkledger/internal/app"
	"lynkledger/internal/logger"
	"lynkledger/internal/services"
	"lynkledger/internal/websocket"

	"github.com/spf13/cobra"
)

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Recurring invoice jobs",
}

var recurringRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate invoices for every recurring template due on a date",
	Long: `Generate one invoice for each active recurring template whose next date is
on or before --date. Templates are processed one transaction each, so a failing
template is reported and the rest of the batch continues.`,
	Example: `  # Run today's batch for every organization
  ledgerctl recurring run

  # Re-run a specific day for one organization
  ledgerctl recurring run --org 6f1c... --date 2024-06-01`,
	RunE: runRecurring,
}

func init() {
	rootCmd.AddCommand(recurringCmd)
	recurringCmd.AddCommand(recurringRunCmd)

	recurringRunCmd.Flags().String("org", "", "Organization id (default: every organization)")
	recurringRunCmd.Flags().String("date", "", "Run date (format: YYYY-MM-DD, default: today)")
}

func runRecurring(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("recurring-run")
	orgID, _ := cmd.Flags().GetString("org")
	rawDate, _ := cmd.Flags().GetString("date")

	day, err := parseDay(rawDate)
	if err != nil {
		return err
	}

	database, err := connect()
	if err != nil {
		return err
	}
	defer database.Close()
	publisher, closePublisher := app.NewPublisher(cfg)
	defer closePublisher()
	wired := app.New(cfg, database, publisher, websocket.NewHub())

	orgIDs := []string{orgID}
	if orgID == "" {
		orgIDs, err = wired.Organizations.IDs(cmd.Context())
		if err != nil {
			return fmt.Errorf("list organizations: %w", err)
		}
	}

	results := make(map[string]services.BatchResult, len(orgIDs))
	failed := 0
	for _, id := range orgIDs {
		result, err := wired.Recurring.RunDue(cmd.Context(), id, "", day)
		if err != nil {
			return fmt.Errorf("organization %s: %w", id, err)
		}
		failed += len(result.Errors)
		results[id] = result
		log.Info().
			Str("organization_id", id).
			Str("date", day.Format("2006-01-02")).
			Int("generated", len(result.Generated)).
			Int("skipped", len(result.Skipped)).
			Int("errors", len(result.Errors)).
			Msg("recurring batch finished")
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d template(s) failed", failed)
	}
	return nil
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return day, nil
}
