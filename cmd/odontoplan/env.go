package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/db"
	"github.com/gyeh/odontoplan/internal/exitcode"
	"github.com/gyeh/odontoplan/internal/logging"
	"github.com/gyeh/odontoplan/internal/planner"
	"github.com/gyeh/odontoplan/internal/store"
)

// setup builds the logger and merges the config file, if any.
func setup() zerolog.Logger {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFromFile(cfg.ConfigFile); err != nil {
			log.Error().Err(err).Msg("config load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	return log
}

// connect opens the Postgres-backed store. The returned func closes the pool.
func connect(ctx context.Context, log zerolog.Logger) (*db.Store, func()) {
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return db.NewStore(pool, log), pool.Close
}

func newPlanner(st store.Store, log zerolog.Logger) *planner.Service {
	return planner.New(st, log, planner.Options{
		PatientBands:      cfg.PatientBands,
		VersionNamePrefix: cfg.DefaultVersionName,
	})
}

// openPlanner connects and builds a planner in one step.
func openPlanner(ctx context.Context, log zerolog.Logger) (*planner.Service, func()) {
	st, closeFn := connect(ctx, log)
	return newPlanner(st, log), closeFn
}

// fail logs err and exits with the code of its class.
func fail(log zerolog.Logger, err error, msg string) {
	if pe, ok := err.(*planner.PlannerError); ok {
		log.Error().Err(pe.Err).Str("op", pe.Op).Msg(msg)
	} else {
		log.Error().Err(err).Msg(msg)
	}
	os.Exit(codeFor(err))
}

func codeFor(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case apperr.IsValidation(err):
		return exitcode.ValidationError
	case apperr.IsNotFound(err):
		return exitcode.NotFound
	case apperr.IsInvalidOperation(err):
		return exitcode.InvalidOperation
	}
	return exitcode.InternalError
}
