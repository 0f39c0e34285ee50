package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/config"
)

var cfg = config.Defaults()

var rootCmd = &cobra.Command{
	Use:          "odontoplan",
	Short:        "Dental treatment plan versioning and progress tracking",
	Long:         "Manages versioned odontogram treatment plans, their catalog costs and per-treatment progress, backed by Supabase/Postgres.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("SUPABASE_DB_URL"), "Postgres connection string (or set SUPABASE_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	pf.StringVar(&cfg.ConfigFile, "config", "", "Optional YAML config file (listen, patient_bands, default_version_name)")
}
