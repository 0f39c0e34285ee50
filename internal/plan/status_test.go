package plan

import (
	"testing"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
)

func TestApplyStatus_Valid(t *testing.T) {
	e, err := ApplyStatus("36", model.KindTreatment, "  Root   canal ", "#FF0000", "svc-endo")
	if err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if e.ID == "" {
		t.Error("expected a generated id")
	}
	if e.Label != "Root canal" {
		t.Errorf("label not normalized: %q", e.Label)
	}
	if e.Color != "#ff0000" {
		t.Errorf("color not normalized: %q", e.Color)
	}

	c, err := ApplyStatus(model.ZoneUpperArch, model.KindCondition, "Gingivitis", "orange", "")
	if err != nil {
		t.Fatalf("condition without service should be accepted: %v", err)
	}
	if c.ServiceID != "" {
		t.Errorf("unexpected service id %q", c.ServiceID)
	}
}

func TestApplyStatus_Rejects(t *testing.T) {
	cases := []struct {
		name      string
		zone      model.ZoneKey
		kind      model.StatusKind
		label     string
		color     string
		serviceID string
	}{
		{"treatment_without_service", "11", model.KindTreatment, "Crown", "blue", ""},
		{"bad_color_name", "11", model.KindCondition, "Caries", "ultraviolet", ""},
		{"bad_hex", "11", model.KindCondition, "Caries", "#12345", ""},
		{"empty_color", "11", model.KindCondition, "Caries", "", ""},
		{"bad_zone", "99", model.KindCondition, "Caries", "red", ""},
		{"bad_kind", "11", model.StatusKind("wish"), "Caries", "red", ""},
		{"empty_label", "11", model.KindCondition, "   ", "red", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ApplyStatus(c.zone, c.kind, c.label, c.color, c.serviceID)
			if !apperr.IsValidation(err) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestClearStatus_DropsEmptyZone(t *testing.T) {
	zm := model.ZoneMap{}
	a, _ := ApplyStatus("21", model.KindCondition, "Caries", "red", "")
	b, _ := ApplyStatus("21", model.KindTreatment, "Filling", "blue", "svc-fill")
	PutStatus(zm, "21", a)
	PutStatus(zm, "21", b)

	if err := ClearStatus(zm, "21", a.ID); err != nil {
		t.Fatalf("ClearStatus: %v", err)
	}
	if got := len(zm["21"]); got != 1 {
		t.Fatalf("expected 1 entry left, got %d", got)
	}
	if err := ClearStatus(zm, "21", b.ID); err != nil {
		t.Fatalf("ClearStatus: %v", err)
	}
	if _, ok := zm["21"]; ok {
		t.Error("empty zone should be removed from the map")
	}
}

func TestClearStatus_UnknownEntry(t *testing.T) {
	zm := model.ZoneMap{}
	if err := ClearStatus(zm, "21", "nope"); !apperr.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestClearStatus_DoesNotAliasCallerSlice(t *testing.T) {
	a, _ := ApplyStatus("11", model.KindCondition, "A", "red", "")
	b, _ := ApplyStatus("11", model.KindCondition, "B", "red", "")
	entries := []model.StatusEntry{a, b}
	zm := model.ZoneMap{"11": entries}
	if err := ClearStatus(zm, "11", a.ID); err != nil {
		t.Fatal(err)
	}
	if entries[0].ID != a.ID {
		t.Error("ClearStatus rewrote the caller's backing array")
	}
}

func TestClearThenReapply_RoundTrip(t *testing.T) {
	zm := model.ZoneMap{}
	keep, _ := ApplyStatus("46", model.KindCondition, "Fracture", "black", "")
	e, _ := ApplyStatus("46", model.KindTreatment, "Crown", "#00f", "svc-crown")
	area, _ := ApplyStatus(model.ZoneLowerArch, model.KindTreatment, "Scaling", "green", "svc-scale")
	PutStatus(zm, "46", keep)
	PutStatus(zm, "46", e)
	PutStatus(zm, model.ZoneLowerArch, area)
	before := zm.Clone()

	if err := ClearStatus(zm, model.ZoneLowerArch, area.ID); err != nil {
		t.Fatal(err)
	}
	again, err := ApplyStatus(model.ZoneLowerArch, area.Kind, area.Label, area.Color, area.ServiceID)
	if err != nil {
		t.Fatal(err)
	}
	PutStatus(zm, model.ZoneLowerArch, again)

	if !model.EqualZones(before, zm) {
		t.Errorf("round trip changed zone map:\nbefore=%v\nafter=%v", before, zm)
	}
	if again.ID == area.ID {
		t.Error("re-applied entry should get a fresh id")
	}
}

func TestClearZone(t *testing.T) {
	e, _ := ApplyStatus("11", model.KindCondition, "Caries", "red", "")
	zm := model.ZoneMap{"11": {e}}
	ClearZone(zm, "11")
	if len(zm) != 0 {
		t.Errorf("expected empty map, got %v", zm)
	}
}
