package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/progress"
	"github.com/gyeh/odontoplan/internal/store"
	"github.com/gyeh/odontoplan/internal/store/memstore"
)

var today = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	if _, err := st.UpsertServices(ctx, []model.CatalogService{
		{ID: "svc-filling", Name: "Filling", CostCents: 10000, PatientType: model.PatientAny},
		{ID: "svc-crown", Name: "Crown", CostCents: 25000, PatientType: model.PatientAdult},
		{ID: "svc-sealant", Name: "Sealant", CostCents: 4000, PatientType: model.PatientPediatric},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpsertPatients(ctx, []model.Patient{
		{ID: "adult", Name: "Adult", BirthDate: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "kid", Name: "Kid", BirthDate: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)},
	}); err != nil {
		t.Fatal(err)
	}
	svc := New(st, zerolog.Nop(), Options{Now: func() time.Time { return today }})
	return svc, st
}

func createPlan(t *testing.T, s *Service) *Workspace {
	t.Helper()
	ws, err := s.CreatePlan(context.Background(), "adult", "sensitive to cold")
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return ws
}

func TestCreatePlan(t *testing.T) {
	s, st := newService(t)
	ws := createPlan(t, s)

	if ws.Plan.Len() != 1 {
		t.Fatalf("expected 1 version, got %d", ws.Plan.Len())
	}
	active := ws.Plan.ActiveVersion()
	if active.Name != "Version 1" || !active.IsActive {
		t.Errorf("unexpected first version: %+v", active)
	}

	snap, err := st.LoadPlan(context.Background(), ws.Plan.ID)
	if err != nil {
		t.Fatalf("plan not saved: %v", err)
	}
	if snap.Observations != "sensitive to cold" || snap.PatientID != "adult" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if !snap.CreatedAt.Equal(today) {
		t.Errorf("created_at = %v", snap.CreatedAt)
	}
}

func TestCreatePlan_UnknownPatient(t *testing.T) {
	s, _ := newService(t)
	_, err := s.CreatePlan(context.Background(), "ghost", "")
	if !apperr.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	var pe *PlannerError
	if !errors.As(err, &pe) || pe.Op != "create plan" {
		t.Errorf("expected PlannerError with op, got %#v", err)
	}
}

func TestCustomVersionPrefix(t *testing.T) {
	st := memstore.New()
	_, _ = st.UpsertPatients(context.Background(), []model.Patient{{ID: "p", BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}})
	s := New(st, zerolog.Nop(), Options{VersionNamePrefix: "Option"})
	ws, err := s.CreatePlan(context.Background(), "p", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := ws.Plan.ActiveVersion().Name; got != "Option 1" {
		t.Errorf("name = %q, want Option 1", got)
	}
	v, _, err := s.CreateVersion(context.Background(), ws.Plan.ID, CreateVersionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "Option 2" {
		t.Errorf("name = %q, want Option 2", v.Name)
	}
	named, _, _ := s.CreateVersion(context.Background(), ws.Plan.ID, CreateVersionRequest{Name: "Implant route"})
	if named.Name != "Implant route" {
		t.Errorf("explicit name replaced: %q", named.Name)
	}
}

func TestApplyStatusAndCosts(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	ws := createPlan(t, s)
	planID := ws.Plan.ID

	if _, _, err := s.ApplyStatus(ctx, planID, ApplyStatusRequest{
		Zone: "16", Kind: model.KindCondition, Label: "Caries", Color: "red",
	}); err != nil {
		t.Fatalf("apply condition: %v", err)
	}
	if _, _, err := s.ApplyStatus(ctx, planID, ApplyStatusRequest{
		Zone: "16", Kind: model.KindTreatment, Label: "Filling", Color: "blue", ServiceID: "svc-filling",
	}); err != nil {
		t.Fatalf("apply filling: %v", err)
	}
	_, ws, err := s.ApplyStatus(ctx, planID, ApplyStatusRequest{
		Zone: "Upper Arch", Kind: model.KindTreatment, Label: "Crown", Color: "#00F", ServiceID: "svc-crown",
	})
	if err != nil {
		t.Fatalf("apply crown: %v", err)
	}

	if got := ws.Plan.TotalCents(); got != 35000 {
		t.Errorf("plan total = %d, want 35000", got)
	}
	if _, ok := ws.Plan.ActiveVersion().Zones[model.ZoneUpperArch]; !ok {
		t.Error("zone input was not normalized to upper_arch")
	}

	reopened, err := s.Open(ctx, planID)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Plan.TotalCents() != 35000 || len(reopened.ActiveCost().Lines) != 2 {
		t.Errorf("reopened cost = %+v", reopened.ActiveCost())
	}
}

func TestApplyStatus_UnknownServiceRejected(t *testing.T) {
	ctx := context.Background()
	s, st := newService(t)
	ws := createPlan(t, s)

	_, _, err := s.ApplyStatus(ctx, ws.Plan.ID, ApplyStatusRequest{
		Zone: "11", Kind: model.KindTreatment, Label: "Veneer", Color: "pink", ServiceID: "svc-veneer",
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	snap, _ := st.LoadPlan(ctx, ws.Plan.ID)
	if len(snap.Versions[0].Zones) != 0 {
		t.Error("failed apply must not be saved")
	}

	_, _, err = s.ApplyStatus(ctx, ws.Plan.ID, ApplyStatusRequest{Zone: "99", Kind: model.KindCondition, Label: "x", Color: "red"})
	if !apperr.IsValidation(err) {
		t.Errorf("bad zone: got %v, want ValidationError", err)
	}
}

func TestDanglingServiceTolerated(t *testing.T) {
	ctx := context.Background()
	s, st := newService(t)
	ws := createPlan(t, s)
	for _, id := range []string{"svc-filling", "svc-crown"} {
		if _, _, err := s.ApplyStatus(ctx, ws.Plan.ID, ApplyStatusRequest{
			Zone: "26", Kind: model.KindTreatment, Label: id, Color: "blue", ServiceID: id,
		}); err != nil {
			t.Fatal(err)
		}
	}

	st.DeleteService("svc-filling")

	ws, err := s.Open(ctx, ws.Plan.ID)
	if err != nil {
		t.Fatalf("Open with dangling ref: %v", err)
	}
	cost := ws.ActiveCost()
	if cost.TotalCents != 25000 {
		t.Errorf("total = %d, want 25000", cost.TotalCents)
	}
	if len(cost.Dangling) != 1 || cost.Dangling[0].ServiceID != "svc-filling" {
		t.Errorf("dangling = %+v", cost.Dangling)
	}
	if len(ws.Dangling()) != 1 {
		t.Errorf("Dangling() = %+v", ws.Dangling())
	}
}

func TestVersionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, st := newService(t)
	ws := createPlan(t, s)
	planID := ws.Plan.ID
	v1 := ws.Plan.ActiveID()

	_, _, err := s.ApplyStatus(ctx, planID, ApplyStatusRequest{
		Zone: "36", Kind: model.KindTreatment, Label: "Crown", Color: "blue", ServiceID: "svc-crown",
	})
	if err != nil {
		t.Fatal(err)
	}

	v2, _, err := s.CreateVersion(ctx, planID, CreateVersionRequest{Name: "Conservative", From: v1})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v2.IsActive || v2.Ordinal != 2 || v2.TotalCents != 25000 {
		t.Errorf("unexpected fork: %+v", v2)
	}

	v3, ws, err := s.CreateVersion(ctx, planID, CreateVersionRequest{Activate: true})
	if err != nil {
		t.Fatal(err)
	}
	if !v3.IsActive || ws.Plan.ActiveID() != v3.ID || v3.Name != "Version 3" {
		t.Errorf("v3 = %+v", v3)
	}
	if ws.Plan.TotalCents() != 0 {
		t.Errorf("plan total should follow the empty active version, got %d", ws.Plan.TotalCents())
	}

	if _, err := s.ActivateVersion(ctx, planID, v2.ID); err != nil {
		t.Fatal(err)
	}
	ws, err = s.DeleteVersion(ctx, planID, v2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Plan.ActiveID() != v1 {
		t.Errorf("deleting active v2 should activate v1, got %s", ws.Plan.ActiveID())
	}

	if _, err := s.RenameVersion(ctx, planID, v3.ID, "Implants"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RenameVersion(ctx, planID, v3.ID, "  "); !apperr.IsValidation(err) {
		t.Errorf("blank rename: got %v", err)
	}

	snap, _ := st.LoadPlan(ctx, planID)
	active := 0
	for _, v := range snap.Versions {
		if v.IsActive {
			active++
		}
	}
	if len(snap.Versions) != 2 || active != 1 {
		t.Errorf("stored versions = %d, active = %d", len(snap.Versions), active)
	}

	if _, err := s.DeleteVersion(ctx, planID, v3.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteVersion(ctx, planID, v1); !apperr.IsInvalidOperation(err) {
		t.Errorf("deleting the last version: got %v, want InvalidOperationError", err)
	}
	if _, err := s.ActivateVersion(ctx, planID, "missing"); !apperr.IsNotFound(err) {
		t.Errorf("activating unknown version: got %v", err)
	}
}

func TestOpenRepairsStoredActiveFlags(t *testing.T) {
	ctx := context.Background()
	s, st := newService(t)
	ws := createPlan(t, s)
	if _, _, err := s.CreateVersion(ctx, ws.Plan.ID, CreateVersionRequest{}); err != nil {
		t.Fatal(err)
	}

	snap, _ := st.LoadPlan(ctx, ws.Plan.ID)
	for i := range snap.Versions {
		snap.Versions[i].IsActive = true
	}
	_ = st.SavePlan(ctx, snap)

	got, err := s.Open(ctx, ws.Plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Repaired {
		t.Error("expected Repaired to be set")
	}
	if got.Plan.ActiveVersion().Ordinal != 2 {
		t.Errorf("repair should keep the highest-ordinal candidate, got %d", got.Plan.ActiveVersion().Ordinal)
	}
}

func TestClearStatusAndComments(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	ws := createPlan(t, s)
	planID := ws.Plan.ID

	entry, _, err := s.ApplyStatus(ctx, planID, ApplyStatusRequest{Zone: "21", Kind: model.KindCondition, Label: "Fracture", Color: "black"})
	if err != nil {
		t.Fatal(err)
	}
	ws, err = s.SetZoneComment(ctx, planID, "", "21", "mesial edge")
	if err != nil {
		t.Fatal(err)
	}
	if ws.Plan.ActiveVersion().Comments["21"] != "mesial edge" {
		t.Errorf("comments = %+v", ws.Plan.ActiveVersion().Comments)
	}

	ws, err = s.ClearStatus(ctx, planID, "", "21", entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ws.Plan.ActiveVersion().Zones["21"]; ok {
		t.Error("zone should be dropped once empty")
	}
	if _, err := s.ClearStatus(ctx, planID, "", "21", entry.ID); !apperr.IsNotFound(err) {
		t.Errorf("clearing twice: got %v", err)
	}

	_, _, _ = s.ApplyStatus(ctx, planID, ApplyStatusRequest{Zone: "lower_arch", Kind: model.KindCondition, Label: "Plaque", Color: "yellow"})
	ws, err = s.ClearZone(ctx, planID, "", "lower arch")
	if err != nil {
		t.Fatal(err)
	}
	if len(ws.Plan.ActiveVersion().Zones) != 0 {
		t.Errorf("zones = %+v", ws.Plan.ActiveVersion().Zones)
	}
}

func TestDiff(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	ws := createPlan(t, s)
	v1 := ws.Plan.ActiveID()
	_, _, _ = s.ApplyStatus(ctx, ws.Plan.ID, ApplyStatusRequest{Zone: "11", Kind: model.KindCondition, Label: "Caries", Color: "red"})
	v2, _, err := s.CreateVersion(ctx, ws.Plan.ID, CreateVersionRequest{From: v1})
	if err != nil {
		t.Fatal(err)
	}
	_, _, _ = s.ApplyStatus(ctx, ws.Plan.ID, ApplyStatusRequest{VersionID: v2.ID, Zone: "12", Kind: model.KindCondition, Label: "Caries", Color: "red"})

	d, err := s.Diff(ctx, ws.Plan.ID, v1, v2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Identical || len(d.Zones) != 1 || d.Zones[0].ZoneKey != "12" || len(d.Zones[0].Added) != 1 {
		t.Errorf("diff = %+v", d)
	}
}

func TestDiff_UneditedForkIsIdentical(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	ws := createPlan(t, s)
	v1 := ws.Plan.ActiveID()
	_, _, _ = s.ApplyStatus(ctx, ws.Plan.ID, ApplyStatusRequest{Zone: "11", Kind: model.KindCondition, Label: "Caries", Color: "red"})
	_, _ = s.SetZoneComment(ctx, ws.Plan.ID, v1, "11", "watch")
	fork, _, err := s.CreateVersion(ctx, ws.Plan.ID, CreateVersionRequest{From: v1, Name: "Copy"})
	if err != nil {
		t.Fatal(err)
	}

	d, err := s.Diff(ctx, ws.Plan.ID, v1, fork.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Identical || len(d.Zones) != 0 {
		t.Errorf("fork should be identical to its source: %+v", d)
	}

	empty, _, err := s.CreateVersion(ctx, ws.Plan.ID, CreateVersionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := s.Diff(ctx, ws.Plan.ID, v1, empty.ID); d.Identical {
		t.Error("empty version reported identical to an edited one")
	}
}

func TestProgressFlow(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	ws := createPlan(t, s)
	planID := ws.Plan.ID
	_, _, _ = s.ApplyStatus(ctx, planID, ApplyStatusRequest{Zone: "11", Kind: model.KindCondition, Label: "Caries", Color: "red"})
	_, _, _ = s.ApplyStatus(ctx, planID, ApplyStatusRequest{Zone: "11", Kind: model.KindTreatment, Label: "Filling", Color: "blue", ServiceID: "svc-filling"})
	_, _, _ = s.ApplyStatus(ctx, planID, ApplyStatusRequest{Zone: "46", Kind: model.KindTreatment, Label: "Crown", Color: "blue", ServiceID: "svc-crown"})

	seeded, err := s.SeedProgress(ctx, planID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(seeded) != 2 {
		t.Fatalf("seeded %d records, want 2", len(seeded))
	}
	again, err := s.SeedProgress(ctx, planID, "")
	if err != nil || len(again) != 0 {
		t.Fatalf("second seed = %d, %v", len(again), err)
	}

	if _, err := s.CompleteProgress(ctx, seeded[0].ID, today, 10000, "ok"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CancelProgress(ctx, seeded[1].ID, "declined"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteProgress(ctx, seeded[1].ID, today, 0, ""); !apperr.IsInvalidOperation(err) {
		t.Errorf("completing canceled: got %v", err)
	}
	if _, err := s.RegisterPayment(ctx, seeded[1].ID, 2000, today); err != nil {
		t.Errorf("payment on canceled: %v", err)
	}
	if _, err := s.CompleteProgress(ctx, "nope", today, 0, ""); !apperr.IsNotFound(err) {
		t.Errorf("unknown record: got %v", err)
	}

	report, err := s.Progress(ctx, store.ProgressFilter{PlanID: planID})
	if err != nil {
		t.Fatal(err)
	}
	want := progress.Summary{Total: 2, Completed: 1, Canceled: 1, TotalPaidCents: 12000}
	if report.Summary != want {
		t.Errorf("summary = %+v, want %+v", report.Summary, want)
	}

	empty, err := s.Progress(ctx, store.ProgressFilter{PatientID: "kid"})
	if err != nil {
		t.Fatal(err)
	}
	if empty.Records == nil || empty.Summary.Total != 0 {
		t.Errorf("empty report = %+v", empty)
	}

	if err := s.DeleteProgress(ctx, seeded[1].ID); err != nil {
		t.Fatal(err)
	}
	reseeded, _ := s.SeedProgress(ctx, planID, "")
	if len(reseeded) != 1 || reseeded[0].EntryID != seeded[1].EntryID {
		t.Errorf("reseed after delete = %+v", reseeded)
	}
}

func TestPatientTypeAndServices(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	pt, err := s.PatientType(ctx, "kid")
	if err != nil {
		t.Fatal(err)
	}
	if pt != model.PatientPediatric {
		t.Errorf("kid type = %s", pt)
	}

	kidServices, err := s.ServicesFor(ctx, "kid")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, svc := range kidServices {
		names[svc.ID] = true
	}
	if !names["svc-filling"] || !names["svc-sealant"] || names["svc-crown"] {
		t.Errorf("kid services = %+v", kidServices)
	}

	if _, err := s.ServicesFor(ctx, "ghost"); !apperr.IsNotFound(err) {
		t.Errorf("unknown patient: got %v", err)
	}
}

func TestListAndDeletePlans(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	ws := createPlan(t, s)
	createPlan(t, s)

	plans, err := s.ListPlans(ctx, "adult")
	if err != nil || len(plans) != 2 {
		t.Fatalf("ListPlans = %+v, %v", plans, err)
	}
	if err := s.DeletePlan(ctx, ws.Plan.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(ctx, ws.Plan.ID); !apperr.IsNotFound(err) {
		t.Errorf("open deleted plan: got %v", err)
	}
}
