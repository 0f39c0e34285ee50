package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/exitcode"
	"github.com/gyeh/odontoplan/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert catalog services and patients from a YAML file",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to clinic YAML file (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()

	clinic, err := seed.Load(seedFile)
	if err != nil {
		log.Error().Err(err).Str("file", seedFile).Msg("seed file rejected")
		os.Exit(exitcode.ValidationError)
	}

	st, closeFn := connect(ctx, log)
	defer closeFn()

	res, err := seed.Apply(ctx, st, log, clinic)
	if err != nil {
		fail(log, err, "seed failed")
	}

	fmt.Printf("Seed complete: %d services, %d patients (%.1fs)\n",
		res.ServicesUpserted, res.PatientsUpserted, res.Duration.Seconds())
	return nil
}
