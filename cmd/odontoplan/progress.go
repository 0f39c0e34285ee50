package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/exitcode"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Track completion and payment of planned treatments",
}

var (
	progressVersion string
	progressDate    string
	progressAmount  float64
	progressNotes   string
	progressFilter  store.ProgressFilter
)

var progressSeedCmd = &cobra.Command{
	Use:   "seed <plan-id>",
	Short: "Create pending records for a version's untracked treatments",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressSeed,
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <record-id>",
	Short: "Mark a pending record completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressComplete,
}

var progressCancelCmd = &cobra.Command{
	Use:   "cancel <record-id>",
	Short: "Mark a pending record canceled",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressCancel,
}

var progressPayCmd = &cobra.Command{
	Use:   "pay <record-id>",
	Short: "Set the amount paid on a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressPay,
}

var progressDeleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete a progress record",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressDelete,
}

var progressSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "List records and totals for a plan, version or patient",
	Args:  cobra.NoArgs,
	RunE:  runProgressSummary,
}

func init() {
	progressSeedCmd.Flags().StringVar(&progressVersion, "version", "", "Version id (defaults to the active version)")

	f := progressCompleteCmd.Flags()
	f.StringVar(&progressDate, "date", "", "Completion date, DD/MM/YYYY or YYYY-MM-DD (required)")
	f.Float64Var(&progressAmount, "amount", 0, "Amount paid at completion")
	f.StringVar(&progressNotes, "notes", "", "Notes")
	_ = progressCompleteCmd.MarkFlagRequired("date")

	progressCancelCmd.Flags().StringVar(&progressNotes, "notes", "", "Reason for canceling")

	f = progressPayCmd.Flags()
	f.Float64Var(&progressAmount, "amount", 0, "Amount paid, replacing any earlier amount (required)")
	f.StringVar(&progressDate, "date", "", "Payment date (required)")
	_ = progressPayCmd.MarkFlagRequired("amount")
	_ = progressPayCmd.MarkFlagRequired("date")

	addFilterFlags(progressSummaryCmd)

	progressCmd.AddCommand(progressSeedCmd, progressCompleteCmd, progressCancelCmd, progressPayCmd, progressDeleteCmd, progressSummaryCmd)
	rootCmd.AddCommand(progressCmd)
}

func addFilterFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&progressFilter.PlanID, "plan", "", "Filter by plan id")
	f.StringVar(&progressFilter.VersionID, "version", "", "Filter by version id")
	f.StringVar(&progressFilter.PatientID, "patient", "", "Filter by patient id")
}

// dayFlag parses a date flag or exits with a validation error.
func dayFlag(log zerolog.Logger, name, value string) time.Time {
	t := normalize.ParseDate(value)
	if t == nil {
		log.Error().Str("flag", name).Str("value", value).Msg("unrecognized date")
		os.Exit(exitcode.ValidationError)
	}
	return normalize.Day(*t)
}

func runProgressSeed(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	seeded, err := p.SeedProgress(ctx, args[0], progressVersion)
	if err != nil {
		fail(log, err, "seed progress failed")
	}
	fmt.Printf("Progress seeded: %d new records\n", len(seeded))
	for _, r := range seeded {
		fmt.Printf("  %s  %-8s %s\n", r.ID, r.ZoneKey, r.Label)
	}
	return nil
}

func runProgressComplete(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	date := dayFlag(log, "date", progressDate)
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	rec, err := p.CompleteProgress(ctx, args[0], date, normalize.DollarsToCents(progressAmount), progressNotes)
	if err != nil {
		fail(log, err, "complete progress failed")
	}
	printRecord(rec)
	return nil
}

func runProgressCancel(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	rec, err := p.CancelProgress(ctx, args[0], progressNotes)
	if err != nil {
		fail(log, err, "cancel progress failed")
	}
	printRecord(rec)
	return nil
}

func runProgressPay(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	date := dayFlag(log, "date", progressDate)
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	rec, err := p.RegisterPayment(ctx, args[0], normalize.DollarsToCents(progressAmount), date)
	if err != nil {
		fail(log, err, "register payment failed")
	}
	printRecord(rec)
	return nil
}

func runProgressDelete(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	if err := p.DeleteProgress(ctx, args[0]); err != nil {
		fail(log, err, "delete progress failed")
	}
	fmt.Printf("Progress record deleted: %s\n", args[0])
	return nil
}

func runProgressSummary(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	report, err := p.Progress(ctx, progressFilter)
	if err != nil {
		fail(log, err, "load progress failed")
	}
	for _, r := range report.Records {
		printRecord(r)
	}
	s := report.Summary
	fmt.Printf("\nTotal: %d  completed: %d  pending: %d  canceled: %d  paid: %s\n",
		s.Total, s.Completed, s.Pending, s.Canceled, normalize.FormatCents(s.TotalPaidCents))
	return nil
}

func printRecord(r model.ProgressRecord) {
	done := "-"
	if r.CompletedOn != nil {
		done = r.CompletedOn.Format("2006-01-02")
	}
	fmt.Printf("%s  %-9s %-8s %-24s done %-10s paid %10s\n",
		r.ID, r.State, r.ZoneKey, r.Label, done, normalize.FormatCents(r.AmountPaidCents))
}
