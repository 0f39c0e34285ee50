package plan

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
)

func newTestPlan(t *testing.T) *Plan {
	t.Helper()
	p, err := New("plan-1", "patient-1", "initial exam", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func activeCount(p *Plan) int {
	n := 0
	for _, v := range p.Versions() {
		if v.IsActive {
			n++
		}
	}
	return n
}

func TestNew_FirstVersionActive(t *testing.T) {
	p := newTestPlan(t)
	vs := p.Versions()
	if len(vs) != 1 {
		t.Fatalf("expected 1 version, got %d", len(vs))
	}
	if !vs[0].IsActive || vs[0].Ordinal != 1 || vs[0].Name != "Version 1" {
		t.Errorf("unexpected first version: %+v", vs[0])
	}
	if vs[0].PlanID != p.ID {
		t.Errorf("PlanID = %q, want %q", vs[0].PlanID, p.ID)
	}
}

func TestNew_ValidatesBase(t *testing.T) {
	created := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	cases := map[string]model.ZoneMap{
		"unknown zone":        {"99": {{ID: "a", Kind: model.KindCondition, Label: "Caries", Color: "red"}}},
		"unknown kind":        {"11": {{ID: "a", Kind: "bogus", Label: "Caries", Color: "red"}}},
		"bad color":           {"11": {{ID: "a", Kind: model.KindCondition, Label: "Caries", Color: "nope"}}},
		"treatment no svc":    {"11": {{ID: "a", Kind: model.KindTreatment, Label: "Crown", Color: "red"}}},
		"entry without an id": {"11": {{Kind: model.KindCondition, Label: "Caries", Color: "red"}}},
	}
	for name, base := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := New("plan-1", "patient-1", "", created, base)
			if !apperr.IsValidation(err) || p != nil {
				t.Fatalf("got plan %v, err %v, want ValidationError", p, err)
			}
		})
	}

	e, _ := ApplyStatus("36", model.KindTreatment, "Crown", "blue", "svc-crown")
	p, err := New("plan-1", "patient-1", "", created, model.ZoneMap{"36": {e}})
	if err != nil {
		t.Fatalf("valid base rejected: %v", err)
	}
	if got := p.ActiveVersion().Zones["36"]; len(got) != 1 || got[0].ID != e.ID {
		t.Errorf("active version zones = %v", p.ActiveVersion().Zones)
	}
}

func TestCreateVersion_DeepCopiesBase(t *testing.T) {
	p := newTestPlan(t)
	e, _ := ApplyStatus("11", model.KindCondition, "Caries", "red", "")
	base := model.ZoneMap{"11": {e}}

	v, err := p.CreateVersion("Alternative", base)
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v.IsActive {
		t.Error("new versions should not be activated implicitly")
	}
	if v.Ordinal != 2 {
		t.Errorf("ordinal = %d, want 2", v.Ordinal)
	}

	base["11"][0].Label = "Mutated"
	base["12"] = []model.StatusEntry{e}
	got, _ := p.Version(v.ID)
	if got.Zones["11"][0].Label != "Caries" || len(got.Zones) != 1 {
		t.Errorf("version shares structure with base: %v", got.Zones)
	}

	// Returned copies are detached from the plan too.
	got.Zones["11"][0].Label = "Mutated again"
	again, _ := p.Version(v.ID)
	if again.Zones["11"][0].Label != "Caries" {
		t.Error("Version returned an aliased zone map")
	}
}

func TestCreateVersion_RejectsInvalidBase(t *testing.T) {
	p := newTestPlan(t)
	bad := model.ZoneMap{"11": {{ID: "x", Kind: model.KindTreatment, Label: "Crown", Color: "red"}}}
	if _, err := p.CreateVersion("bad", bad); !apperr.IsValidation(err) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if p.Len() != 1 {
		t.Error("failed create should not add a version")
	}
}

func TestForkActive_CopiesZonesCommentsAndTotal(t *testing.T) {
	p := newTestPlan(t)
	e, _ := ApplyStatus("16", model.KindTreatment, "Crown", "blue", "svc-crown")
	if err := p.UpdateZones(p.ActiveID(), func(zm model.ZoneMap) error {
		PutStatus(zm, "16", e)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.SetZoneComment(p.ActiveID(), "16", "patient prefers ceramic"); err != nil {
		t.Fatal(err)
	}
	p.RecomputeCosts(CatalogIndex{"svc-crown": {ID: "svc-crown", CostCents: 50000}})

	fork, err := p.ForkActive("")
	if err != nil {
		t.Fatal(err)
	}
	if fork.Name != "Version 2" {
		t.Errorf("default name = %q", fork.Name)
	}
	if !model.EqualZones(fork.Zones, p.ActiveVersion().Zones) {
		t.Error("fork zones differ from source")
	}
	if fork.Comments["16"] != "patient prefers ceramic" {
		t.Errorf("comments not carried: %v", fork.Comments)
	}
	if fork.TotalCents != 50000 {
		t.Errorf("fork total = %d, want 50000", fork.TotalCents)
	}
	if Fingerprint(fork) != Fingerprint(p.ActiveVersion()) {
		t.Error("fork fingerprint should match source")
	}
}

func TestSetActiveVersion(t *testing.T) {
	p := newTestPlan(t)
	v2, _ := p.CreateVersion("", nil)

	if err := p.SetActiveVersion(v2.ID); err != nil {
		t.Fatal(err)
	}
	if p.ActiveID() != v2.ID || activeCount(p) != 1 {
		t.Errorf("active = %s, count = %d", p.ActiveID(), activeCount(p))
	}

	err := p.SetActiveVersion("missing")
	if !apperr.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if p.ActiveID() != v2.ID {
		t.Error("failed activation changed the active version")
	}
}

func TestDeleteVersion_ActiveSelectsNextLower(t *testing.T) {
	p := newTestPlan(t)
	v1 := p.ActiveVersion()
	v2, _ := p.CreateVersion("", nil)
	v3, _ := p.CreateVersion("", nil)
	_ = p.SetActiveVersion(v2.ID)

	if err := p.DeleteVersion(v2.ID); err != nil {
		t.Fatal(err)
	}
	if p.ActiveID() != v1.ID {
		t.Errorf("active = %s, want v1 %s", p.ActiveID(), v1.ID)
	}
	if p.Len() != 2 {
		t.Errorf("len = %d", p.Len())
	}
	if _, err := p.Version(v3.ID); err != nil {
		t.Error("v3 should survive")
	}
}

func TestDeleteVersion_ActiveFirstSelectsNextHigher(t *testing.T) {
	p := newTestPlan(t)
	v1 := p.ActiveVersion()
	v2, _ := p.CreateVersion("", nil)

	if err := p.DeleteVersion(v1.ID); err != nil {
		t.Fatal(err)
	}
	if p.ActiveID() != v2.ID {
		t.Errorf("active = %s, want v2 %s", p.ActiveID(), v2.ID)
	}
}

func TestDeleteVersion_InactiveKeepsActive(t *testing.T) {
	p := newTestPlan(t)
	v1 := p.ActiveVersion()
	v2, _ := p.CreateVersion("", nil)
	if err := p.DeleteVersion(v2.ID); err != nil {
		t.Fatal(err)
	}
	if p.ActiveID() != v1.ID {
		t.Error("deleting an inactive version moved the active flag")
	}
}

func TestDeleteVersion_LastVersionRefused(t *testing.T) {
	p := newTestPlan(t)
	err := p.DeleteVersion(p.ActiveID())
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("got %v, want InvalidOperationError", err)
	}
	if p.Len() != 1 {
		t.Error("last version was removed")
	}
	if err := p.DeleteVersion("missing"); !apperr.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestOrdinalFollowsCurrentMaximum(t *testing.T) {
	p := newTestPlan(t)
	v2, _ := p.CreateVersion("", nil)
	v3, _ := p.CreateVersion("", nil)
	_ = p.DeleteVersion(v3.ID)
	_ = p.DeleteVersion(v2.ID)
	v4, _ := p.CreateVersion("", nil)
	if v4.Ordinal != 2 {
		t.Errorf("ordinal = %d, want 2", v4.Ordinal)
	}
}

// Exactly one version stays active across any sequence of version operations.
func TestActiveInvariant_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		p := newTestPlan(t)
		for step := 0; step < 60; step++ {
			vs := p.Versions()
			pick := vs[rng.Intn(len(vs))].ID
			switch rng.Intn(4) {
			case 0:
				_, _ = p.CreateVersion("", nil)
			case 1:
				_, _ = p.ForkActive("")
			case 2:
				if rng.Intn(5) == 0 {
					pick = "missing"
				}
				_ = p.SetActiveVersion(pick)
			case 3:
				_ = p.DeleteVersion(pick)
			}
			if n := activeCount(p); n != 1 {
				t.Fatalf("run %d step %d: %d active versions", run, step, n)
			}
			if p.Len() < 1 {
				t.Fatalf("run %d step %d: plan lost all versions", run, step)
			}
			if _, err := p.Version(p.ActiveID()); err != nil {
				t.Fatalf("run %d step %d: active id dangling", run, step)
			}
		}
	}
}

func TestRestore(t *testing.T) {
	base := model.PlanSnapshot{ID: "p", PatientID: "pt"}

	t.Run("no_versions", func(t *testing.T) {
		if _, _, err := Restore(base); !apperr.IsValidation(err) {
			t.Fatalf("got %v, want ValidationError", err)
		}
	})

	t.Run("single_active", func(t *testing.T) {
		s := base
		s.Versions = []model.PlanVersion{
			{ID: "b", Ordinal: 2},
			{ID: "a", Ordinal: 1, IsActive: true, TotalCents: 900},
		}
		p, repaired, err := Restore(s)
		if err != nil {
			t.Fatal(err)
		}
		if repaired {
			t.Error("valid snapshot reported as repaired")
		}
		if p.ActiveID() != "a" || p.TotalCents() != 900 {
			t.Errorf("active = %s total = %d", p.ActiveID(), p.TotalCents())
		}
		if vs := p.Versions(); vs[0].ID != "a" || vs[1].ID != "b" {
			t.Error("versions not sorted by ordinal")
		}
	})

	t.Run("none_active_repaired", func(t *testing.T) {
		s := base
		s.Versions = []model.PlanVersion{{ID: "a", Ordinal: 1}, {ID: "b", Ordinal: 2}}
		p, repaired, err := Restore(s)
		if err != nil {
			t.Fatal(err)
		}
		if !repaired || p.ActiveID() != "b" {
			t.Errorf("repaired=%v active=%s", repaired, p.ActiveID())
		}
	})

	t.Run("many_active_repaired", func(t *testing.T) {
		s := base
		s.Versions = []model.PlanVersion{
			{ID: "a", Ordinal: 1, IsActive: true},
			{ID: "b", Ordinal: 2, IsActive: true},
			{ID: "c", Ordinal: 3},
		}
		p, repaired, err := Restore(s)
		if err != nil {
			t.Fatal(err)
		}
		if !repaired || p.ActiveID() != "b" || activeCount(p) != 1 {
			t.Errorf("repaired=%v active=%s", repaired, p.ActiveID())
		}
	})

	t.Run("duplicate_ids", func(t *testing.T) {
		s := base
		s.Versions = []model.PlanVersion{{ID: "a", Ordinal: 1}, {ID: "a", Ordinal: 2}}
		if _, _, err := Restore(s); !apperr.IsValidation(err) {
			t.Fatalf("got %v, want ValidationError", err)
		}
	})
}

func TestSnapshot_RoundTrip(t *testing.T) {
	p := newTestPlan(t)
	e, _ := ApplyStatus("11", model.KindTreatment, "Filling", "blue", "svc")
	_ = p.UpdateZones(p.ActiveID(), func(zm model.ZoneMap) error {
		PutStatus(zm, "11", e)
		return nil
	})
	v2, _ := p.ForkActive("B")
	_ = p.SetActiveVersion(v2.ID)
	p.RecomputeCosts(CatalogIndex{"svc": {ID: "svc", CostCents: 1234}})

	s := p.Snapshot()
	if s.TotalCents != 1234 {
		t.Errorf("snapshot total = %d", s.TotalCents)
	}
	back, repaired, err := Restore(s)
	if err != nil || repaired {
		t.Fatalf("Restore: repaired=%v err=%v", repaired, err)
	}
	if back.ActiveID() != v2.ID || back.Len() != 2 {
		t.Errorf("restored active=%s len=%d", back.ActiveID(), back.Len())
	}
	if !model.EqualZones(back.ActiveVersion().Zones, p.ActiveVersion().Zones) {
		t.Error("zones lost in round trip")
	}
}

func TestUpdateZones_FailureLeavesVersionUntouched(t *testing.T) {
	p := newTestPlan(t)
	e, _ := ApplyStatus("11", model.KindCondition, "Caries", "red", "")
	_ = p.UpdateZones(p.ActiveID(), func(zm model.ZoneMap) error {
		PutStatus(zm, "11", e)
		return nil
	})

	err := p.UpdateZones(p.ActiveID(), func(zm model.ZoneMap) error {
		ClearZone(zm, "11")
		return ClearStatus(zm, "12", "missing")
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("got %v", err)
	}
	if len(p.ActiveVersion().Zones["11"]) != 1 {
		t.Error("failed update leaked partial changes")
	}
}

func TestRenameAndComment(t *testing.T) {
	p := newTestPlan(t)
	id := p.ActiveID()
	if err := p.RenameVersion(id, "  Conservative  "); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Version(id); v.Name != "Conservative" {
		t.Errorf("name = %q", v.Name)
	}
	if err := p.RenameVersion(id, " "); !apperr.IsValidation(err) {
		t.Errorf("got %v, want ValidationError", err)
	}
	if err := p.SetZoneComment(id, "99", "x"); !apperr.IsValidation(err) {
		t.Errorf("got %v, want ValidationError", err)
	}
	_ = p.SetZoneComment(id, "21", "watch")
	_ = p.SetZoneComment(id, "21", "")
	if v, _ := p.Version(id); len(v.Comments) != 0 {
		t.Errorf("blank comment should clear: %v", v.Comments)
	}
}
