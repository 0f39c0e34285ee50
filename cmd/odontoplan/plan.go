package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create, inspect and delete treatment plans",
}

var (
	planPatient      string
	planObservations string
)

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plan with one empty active version",
	Args:  cobra.NoArgs,
	RunE:  runPlanCreate,
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Print a plan's versions, zones and costs",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanShow,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a patient's plans, newest first",
	Args:  cobra.NoArgs,
	RunE:  runPlanList,
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan and all of its versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanDelete,
}

func init() {
	f := planCreateCmd.Flags()
	f.StringVar(&planPatient, "patient", "", "Patient id (required)")
	f.StringVar(&planObservations, "observations", "", "Free-text observations")
	_ = planCreateCmd.MarkFlagRequired("patient")

	planListCmd.Flags().StringVar(&planPatient, "patient", "", "Patient id (required)")
	_ = planListCmd.MarkFlagRequired("patient")

	planCmd.AddCommand(planCreateCmd, planShowCmd, planListCmd, planDeleteCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanCreate(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	ws, err := p.CreatePlan(ctx, planPatient, planObservations)
	if err != nil {
		fail(log, err, "create plan failed")
	}
	fmt.Printf("Plan created: %s (active version %s)\n", ws.Plan.ID, ws.Plan.ActiveID())
	return nil
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	ws, err := p.Open(ctx, args[0])
	if err != nil {
		fail(log, err, "open plan failed")
	}
	printWorkspace(os.Stdout, ws)
	return nil
}

func runPlanList(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	plans, err := p.ListPlans(ctx, planPatient)
	if err != nil {
		fail(log, err, "list plans failed")
	}
	if len(plans) == 0 {
		fmt.Println("No plans.")
		return nil
	}
	for _, s := range plans {
		fmt.Printf("%s  %s  %d versions  %10s\n",
			s.ID, s.CreatedAt.Format("2006-01-02"), s.VersionCount, normalize.FormatCents(s.TotalCents))
	}
	return nil
}

func runPlanDelete(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	if err := p.DeletePlan(ctx, args[0]); err != nil {
		fail(log, err, "delete plan failed")
	}
	fmt.Printf("Plan deleted: %s\n", args[0])
	return nil
}

// printWorkspace renders a plan report in the style of a dry-run summary.
func printWorkspace(w io.Writer, ws *planner.Workspace) {
	pl := ws.Plan
	fmt.Fprintln(w, "=== odontoplan plan ===")
	fmt.Fprintf(w, "Plan:     %s\n", pl.ID)
	fmt.Fprintf(w, "Patient:  %s\n", pl.PatientID)
	fmt.Fprintf(w, "Created:  %s\n", pl.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Total:    %s\n", normalize.FormatCents(pl.TotalCents()))
	if pl.Observations != "" {
		fmt.Fprintf(w, "Notes:    %s\n", pl.Observations)
	}
	if ws.Repaired {
		fmt.Fprintln(w, "Active flags were repaired on load.")
	}

	for _, v := range pl.Versions() {
		marker := " "
		if v.IsActive {
			marker = "*"
		}
		fmt.Fprintf(w, "\n%s %s  %q  %d entries  %s\n", marker, v.ID, v.Name, v.Zones.EntryCount(), normalize.FormatCents(ws.Costs[v.ID].TotalCents))
		for _, key := range v.Zones.Keys() {
			for _, e := range v.Zones[key] {
				fmt.Fprintf(w, "    %-8s %-9s %-24s %-8s %s\n", key, e.Kind, e.Label, e.Color, e.ServiceID)
			}
			if c := v.Comments[key]; c != "" {
				fmt.Fprintf(w, "    %-8s comment: %s\n", key, c)
			}
		}
		for _, d := range ws.Costs[v.ID].Dangling {
			fmt.Fprintf(w, "    warning: zone %s entry %s references missing service %s\n", d.ZoneKey, d.EntryID, d.ServiceID)
		}
	}
}
