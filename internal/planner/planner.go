// Package planner orchestrates the plan aggregate, the progress tracker and
// the store. Every operation loads what it needs, applies one change and
// saves, so a Service carries no per-plan state and is safe for concurrent
// use. Concurrent saves of the same plan are last-write-wins.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/plan"
	"github.com/gyeh/odontoplan/internal/store"
)

// PlannerError wraps an error with the operation where it occurred.
type PlannerError struct {
	Op  string
	Err error
}

func (e *PlannerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *PlannerError) Unwrap() error {
	return e.Err
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	PatientBands      model.PatientBands
	VersionNamePrefix string
	Now               func() time.Time
}

// Service is the entry point for every plan, version, zone and progress
// operation.
type Service struct {
	store  store.Store
	log    zerolog.Logger
	bands  model.PatientBands
	prefix string
	now    func() time.Time
}

// New returns a Service backed by st.
func New(st store.Store, log zerolog.Logger, opts Options) *Service {
	s := &Service{
		store:  st,
		log:    log,
		bands:  opts.PatientBands,
		prefix: strings.TrimSpace(opts.VersionNamePrefix),
		now:    opts.Now,
	}
	if s.bands == (model.PatientBands{}) {
		s.bands = model.DefaultPatientBands
	}
	if s.prefix == "" {
		s.prefix = "Version"
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Workspace is a loaded plan together with the catalog it was priced
// against and its progress records.
type Workspace struct {
	Plan     *plan.Plan
	Catalog  plan.CatalogIndex
	Progress []model.ProgressRecord
	Costs    map[string]plan.CostResult
	// Repaired is set when the stored active flags were inconsistent and the
	// active version had to be chosen on load.
	Repaired bool
}

// ActiveCost returns the cost breakdown of the active version.
func (w *Workspace) ActiveCost() plan.CostResult {
	return w.Costs[w.Plan.ActiveID()]
}

// Dangling returns every dangling reference across all versions, keyed by
// version id. Versions without dangling references are omitted.
func (w *Workspace) Dangling() map[string][]plan.DanglingRef {
	out := make(map[string][]plan.DanglingRef)
	for id, c := range w.Costs {
		if len(c.Dangling) > 0 {
			out[id] = c.Dangling
		}
	}
	return out
}

// CreatePlan starts a plan for an existing patient with one empty, active
// version.
func (s *Service) CreatePlan(ctx context.Context, patientID, observations string) (*Workspace, error) {
	if _, err := s.store.GetPatient(ctx, patientID); err != nil {
		return nil, &PlannerError{Op: "create plan", Err: err}
	}
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, &PlannerError{Op: "create plan", Err: err}
	}

	p, err := plan.New(uuid.NewString(), patientID, strings.TrimSpace(observations), s.now(), nil)
	if err != nil {
		return nil, &PlannerError{Op: "create plan", Err: err}
	}
	if err := s.applyDefaultName(p, p.ActiveVersion()); err != nil {
		return nil, &PlannerError{Op: "create plan", Err: err}
	}
	ws := &Workspace{Plan: p, Catalog: plan.NewCatalogIndex(services)}
	if err := s.save(ctx, ws); err != nil {
		return nil, &PlannerError{Op: "create plan", Err: err}
	}

	s.log.Info().
		Str("plan_id", p.ID).
		Str("patient_id", patientID).
		Str("version_id", p.ActiveID()).
		Msg("plan created")
	return ws, nil
}

// Open loads a plan, the catalog and the plan's progress records
// concurrently and prices every version.
func (s *Service) Open(ctx context.Context, planID string) (*Workspace, error) {
	ws, err := s.open(ctx, planID)
	if err != nil {
		return nil, &PlannerError{Op: "open plan", Err: err}
	}
	return ws, nil
}

func (s *Service) open(ctx context.Context, planID string) (*Workspace, error) {
	start := time.Now()
	var (
		snap     model.PlanSnapshot
		services []model.CatalogService
		records  []model.ProgressRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.store.LoadPlan(gctx, planID)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = s.store.ListServices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.store.LoadProgress(gctx, store.ProgressFilter{PlanID: planID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p, repaired, err := plan.Restore(snap)
	if err != nil {
		return nil, err
	}
	if repaired {
		s.log.Warn().
			Str("plan_id", planID).
			Str("active_version_id", p.ActiveID()).
			Msg("stored plan did not have exactly one active version, repaired on load")
	}

	ws := &Workspace{
		Plan:     p,
		Catalog:  plan.NewCatalogIndex(services),
		Progress: records,
		Repaired: repaired,
	}
	ws.Costs = p.RecomputeCosts(ws.Catalog)
	s.logDangling(ws)

	s.log.Debug().
		Str("plan_id", planID).
		Int("versions", p.Len()).
		Int("services", len(services)).
		Int("progress_records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("plan opened")
	return ws, nil
}

// Edit loads a plan, applies fn and saves the result with refreshed costs.
// Nothing is saved when fn fails.
func (s *Service) Edit(ctx context.Context, planID string, fn func(*Workspace) error) (*Workspace, error) {
	return s.edit(ctx, "edit plan", planID, fn)
}

func (s *Service) edit(ctx context.Context, op, planID string, fn func(*Workspace) error) (*Workspace, error) {
	ws, err := s.open(ctx, planID)
	if err != nil {
		return nil, &PlannerError{Op: op, Err: err}
	}
	if err := fn(ws); err != nil {
		return nil, &PlannerError{Op: op, Err: err}
	}
	if err := s.save(ctx, ws); err != nil {
		return nil, &PlannerError{Op: op, Err: err}
	}
	return ws, nil
}

// save recomputes every version's total and persists the plan.
func (s *Service) save(ctx context.Context, ws *Workspace) error {
	ws.Costs = ws.Plan.RecomputeCosts(ws.Catalog)
	snap := ws.Plan.Snapshot()
	if err := s.store.SavePlan(ctx, snap); err != nil {
		return err
	}
	s.log.Debug().
		Str("plan_id", snap.ID).
		Int64("total_cents", snap.TotalCents).
		Int("versions", len(snap.Versions)).
		Msg("plan saved")
	return nil
}

func (s *Service) logDangling(ws *Workspace) {
	for versionID, refs := range ws.Dangling() {
		for _, d := range refs {
			s.log.Warn().
				Str("plan_id", ws.Plan.ID).
				Str("version_id", versionID).
				Str("zone", string(d.ZoneKey)).
				Str("entry_id", d.EntryID).
				Str("service_id", d.ServiceID).
				Msg("treatment references a service missing from the catalog")
		}
	}
}

// applyDefaultName renames a version created without a name when the
// configured prefix differs from the built-in one.
func (s *Service) applyDefaultName(p *plan.Plan, v model.PlanVersion) error {
	if v.Name != plan.DefaultVersionName(v.Ordinal) || s.prefix == "Version" {
		return nil
	}
	return p.RenameVersion(v.ID, fmt.Sprintf("%s %d", s.prefix, v.Ordinal))
}

// ListPlans returns plan summaries, newest first. An empty patientID lists
// every plan.
func (s *Service) ListPlans(ctx context.Context, patientID string) ([]model.PlanSummary, error) {
	plans, err := s.store.ListPlans(ctx, patientID)
	if err != nil {
		return nil, &PlannerError{Op: "list plans", Err: err}
	}
	return plans, nil
}

// DeletePlan removes a plan and all of its versions. Progress records are
// kept.
func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	if err := s.store.DeletePlan(ctx, planID); err != nil {
		return &PlannerError{Op: "delete plan", Err: err}
	}
	s.log.Info().Str("plan_id", planID).Msg("plan deleted")
	return nil
}

// Costs prices one version (the active one when versionID is empty).
func (s *Service) Costs(ctx context.Context, planID, versionID string) (model.PlanVersion, plan.CostResult, error) {
	ws, err := s.open(ctx, planID)
	if err != nil {
		return model.PlanVersion{}, plan.CostResult{}, &PlannerError{Op: "costs", Err: err}
	}
	v, err := resolveVersion(ws, versionID)
	if err != nil {
		return model.PlanVersion{}, plan.CostResult{}, &PlannerError{Op: "costs", Err: err}
	}
	return v, ws.Costs[v.ID], nil
}

func resolveVersion(ws *Workspace, versionID string) (model.PlanVersion, error) {
	if versionID == "" {
		return ws.Plan.ActiveVersion(), nil
	}
	return ws.Plan.Version(versionID)
}
