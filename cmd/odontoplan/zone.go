package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/planner"
)

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Edit the odontogram zones of a version",
}

var (
	zoneReq     planner.ApplyStatusRequest
	zoneKind    string
	zoneVersion string
	zoneEntry   string
)

var zoneApplyCmd = &cobra.Command{
	Use:   "apply <plan-id>",
	Short: "Add a condition or treatment to a zone",
	Args:  cobra.ExactArgs(1),
	RunE:  runZoneApply,
}

var zoneClearCmd = &cobra.Command{
	Use:   "clear <plan-id> <zone>",
	Short: "Remove one entry (--entry) or every entry of a zone",
	Args:  cobra.ExactArgs(2),
	RunE:  runZoneClear,
}

var zoneCommentCmd = &cobra.Command{
	Use:   "comment <plan-id> <zone> <comment>",
	Short: "Set a zone comment; an empty comment clears it",
	Args:  cobra.ExactArgs(3),
	RunE:  runZoneComment,
}

func init() {
	f := zoneApplyCmd.Flags()
	f.StringVar(&zoneReq.Zone, "zone", "", "Zone key: FDI tooth (e.g. 36) or area (required)")
	f.StringVar(&zoneKind, "kind", string(model.KindCondition), "Entry kind: condition or treatment")
	f.StringVar(&zoneReq.Label, "label", "", "Entry label (required)")
	f.StringVar(&zoneReq.Color, "color", "", "Color token or #hex (required)")
	f.StringVar(&zoneReq.ServiceID, "service", "", "Catalog service id, required for treatments")
	_ = zoneApplyCmd.MarkFlagRequired("zone")
	_ = zoneApplyCmd.MarkFlagRequired("label")
	_ = zoneApplyCmd.MarkFlagRequired("color")

	zoneClearCmd.Flags().StringVar(&zoneEntry, "entry", "", "Entry id to remove; omit to clear the zone")

	for _, c := range []*cobra.Command{zoneApplyCmd, zoneClearCmd, zoneCommentCmd} {
		c.Flags().StringVar(&zoneVersion, "version", "", "Version id (defaults to the active version)")
	}

	zoneCmd.AddCommand(zoneApplyCmd, zoneClearCmd, zoneCommentCmd)
	rootCmd.AddCommand(zoneCmd)
}

func runZoneApply(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	zoneReq.Kind = model.StatusKind(zoneKind)
	zoneReq.VersionID = zoneVersion
	entry, ws, err := p.ApplyStatus(ctx, args[0], zoneReq)
	if err != nil {
		fail(log, err, "apply status failed")
	}
	fmt.Printf("Entry added: %s on %s (plan total %s)\n", entry.ID, normalize.ZoneKey(zoneReq.Zone), normalize.FormatCents(ws.Plan.TotalCents()))
	return nil
}

func runZoneClear(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	var (
		ws  *planner.Workspace
		err error
	)
	if zoneEntry != "" {
		ws, err = p.ClearStatus(ctx, args[0], zoneVersion, args[1], zoneEntry)
	} else {
		ws, err = p.ClearZone(ctx, args[0], zoneVersion, args[1])
	}
	if err != nil {
		fail(log, err, "clear failed")
	}
	fmt.Printf("Zone %s updated (plan total %s)\n", normalize.ZoneKey(args[1]), normalize.FormatCents(ws.Plan.TotalCents()))
	return nil
}

func runZoneComment(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	if _, err := p.SetZoneComment(ctx, args[0], zoneVersion, args[1], args[2]); err != nil {
		fail(log, err, "set comment failed")
	}
	fmt.Printf("Comment saved on %s\n", normalize.ZoneKey(args[1]))
	return nil
}
