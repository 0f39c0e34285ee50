package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gyeh/odontoplan/internal/exitcode"
	"github.com/gyeh/odontoplan/internal/httpapi"
	"github.com/gyeh/odontoplan/internal/seed"
	"github.com/gyeh/odontoplan/internal/store"
	"github.com/gyeh/odontoplan/internal/store/memstore"
)

var (
	serveListen string
	serveSeed   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the plan API over HTTP",
	Long:  "Serves the JSON API. Without --dsn the API runs on an in-memory store, optionally preloaded with --seed.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveListen, "listen", "", "Listen address (overrides the config file, default :8080)")
	f.StringVar(&serveSeed, "seed", "", "Clinic YAML file to load at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()
	if serveListen != "" {
		cfg.ListenAddr = serveListen
	}

	var st store.Store
	if cfg.DSN != "" {
		dbStore, closeFn := connect(ctx, log)
		defer closeFn()
		st = dbStore
	} else {
		log.Warn().Msg("no --dsn given, serving from an in-memory store")
		st = memstore.New()
	}

	if serveSeed != "" {
		clinic, err := seed.Load(serveSeed)
		if err != nil {
			log.Error().Err(err).Str("file", serveSeed).Msg("seed file rejected")
			os.Exit(exitcode.ValidationError)
		}
		if _, err := seed.Apply(ctx, st, log, clinic); err != nil {
			fail(log, err, "seed failed")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.NewHandler(log, newPlanner(st, log)), log)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(exitcode.InternalError)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
