package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/exitcode"
	"github.com/gyeh/odontoplan/internal/export"
)

var (
	exportOut     string
	exportVersion string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write progress records or cost lines to Parquet",
}

var exportProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Export progress records matching a filter",
	Args:  cobra.NoArgs,
	RunE:  runExportProgress,
}

var exportCostsCmd = &cobra.Command{
	Use:   "costs <plan-id>",
	Short: "Export the priced treatment lines of a version",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportCosts,
}

func init() {
	addFilterFlags(exportProgressCmd)
	exportCostsCmd.Flags().StringVar(&exportVersion, "version", "", "Version id (defaults to the active version)")
	for _, c := range []*cobra.Command{exportProgressCmd, exportCostsCmd} {
		c.Flags().StringVar(&exportOut, "out", "", "Output Parquet file (required)")
		_ = c.MarkFlagRequired("out")
	}
	exportCmd.AddCommand(exportProgressCmd, exportCostsCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportProgress(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	report, err := p.Progress(ctx, progressFilter)
	if err != nil {
		fail(log, err, "load progress failed")
	}
	n, err := export.WriteFile(exportOut, func(w io.Writer) (int, error) {
		return export.WriteProgress(w, report.Records)
	})
	if err != nil {
		log.Error().Err(err).Str("file", exportOut).Msg("export failed")
		os.Exit(exitcode.ExportError)
	}
	fmt.Printf("Exported %d progress records to %s\n", n, exportOut)
	return nil
}

func runExportCosts(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	p, closeFn := openPlanner(ctx, log)
	defer closeFn()

	v, res, err := p.Costs(ctx, args[0], exportVersion)
	if err != nil {
		fail(log, err, "price version failed")
	}
	for _, d := range res.Dangling {
		log.Warn().Str("zone", string(d.ZoneKey)).Str("service_id", d.ServiceID).Msg("treatment references a missing service, exported at zero")
	}
	n, err := export.WriteFile(exportOut, func(w io.Writer) (int, error) {
		return export.WriteCostLines(w, v, res)
	})
	if err != nil {
		log.Error().Err(err).Str("file", exportOut).Msg("export failed")
		os.Exit(exitcode.ExportError)
	}
	fmt.Printf("Exported %d cost lines of %q to %s\n", n, v.Name, exportOut)
	return nil
}
