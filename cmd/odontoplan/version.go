package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/planner"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage the versions of a plan",
}

var versionReq planner.CreateVersionRequest

var versionCreateCmd = &cobra.Command{
	Use:   "create <plan-id>",
	Short: "Create a version, empty or copied from another",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionCreate,
}

var versionActivateCmd = &cobra.Command{
	Use:   "activate <plan-id> <version-id>",
	Short: "Make a version the plan's active one",
	Args:  cobra.ExactArgs(2),
	RunE:  runVersionActivate,
}

var versionRenameCmd = &cobra.Command{
	Use:   "rename <plan-id> <version-id> <name>",
	Short: "Rename a version",
	Args:  cobra.ExactArgs(3),
	RunE:  runVersionRename,
}

var versionDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id> <version-id>",
	Short: "Delete a version; the last one cannot be deleted",
	Args:  cobra.ExactArgs(2),
	RunE:  runVersionDelete,
}

var versionDiffCmd = &cobra.Command{
	Use:   "diff <plan-id> <from-version-id> <to-version-id>",
	Short: "Show zone changes between two versions",
	Args:  cobra.ExactArgs(3),
	RunE:  runVersionDiff,
}

func init() {
	f := versionCreateCmd.Flags()
	f.StringVar(&versionReq.Name, "name", "", "Version name (defaults to the next ordinal name)")
	f.StringVar(&versionReq.From, "from", "", "Copy zones and comments from this version")
	f.BoolVar(&versionReq.Activate, "activate", false, "Make the new version active")

	versionCmd.AddCommand(versionCreateCmd, versionActivateCmd, versionRenameCmd, versionDeleteCmd, versionDiffCmd)
	rootCmd.AddCommand(versionCmd)
}

func runVersionCreate(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	v, ws, err := p.CreateVersion(ctx, args[0], versionReq)
	if err != nil {
		fail(log, err, "create version failed")
	}
	fmt.Printf("Version created: %s %q (%s, active=%t)\n",
		v.ID, v.Name, normalize.FormatCents(ws.Costs[v.ID].TotalCents), v.IsActive)
	return nil
}

func runVersionActivate(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	ws, err := p.ActivateVersion(ctx, args[0], args[1])
	if err != nil {
		fail(log, err, "activate version failed")
	}
	fmt.Printf("Active version: %s (plan total %s)\n", ws.Plan.ActiveID(), normalize.FormatCents(ws.Plan.TotalCents()))
	return nil
}

func runVersionRename(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	if _, err := p.RenameVersion(ctx, args[0], args[1], args[2]); err != nil {
		fail(log, err, "rename version failed")
	}
	fmt.Printf("Version renamed: %s -> %q\n", args[1], args[2])
	return nil
}

func runVersionDelete(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	ws, err := p.DeleteVersion(ctx, args[0], args[1])
	if err != nil {
		fail(log, err, "delete version failed")
	}
	fmt.Printf("Version deleted: %s (active version %s)\n", args[1], ws.Plan.ActiveID())
	return nil
}

func runVersionDiff(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	diff, err := p.Diff(ctx, args[0], args[1], args[2])
	if err != nil {
		fail(log, err, "diff failed")
	}
	if diff.Identical {
		fmt.Println("Versions are identical.")
		return nil
	}
	for _, d := range diff.Zones {
		fmt.Printf("%s\n", d.ZoneKey)
		for _, e := range d.Removed {
			fmt.Printf("  - %s %s (%s)\n", e.Kind, e.Label, e.Color)
		}
		for _, e := range d.Added {
			fmt.Printf("  + %s %s (%s)\n", e.Kind, e.Label, e.Color)
		}
		if d.CommentChanged {
			fmt.Printf("  comment: %q -> %q\n", d.CommentBefore, d.CommentAfter)
		}
	}
	return nil
}
