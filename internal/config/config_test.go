package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, "listen: \":9090\"\npatient_bands:\n  pediatric_under: 13\n  adolescent_under: 19\ndefault_version_name: Option\n")

	c := Defaults()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.ListenAddr != ":9090" {
		t.Errorf("listen = %q", c.ListenAddr)
	}
	if c.PatientBands.PediatricUnder != 13 || c.PatientBands.AdolescentUnder != 19 {
		t.Errorf("unexpected bands: %+v", c.PatientBands)
	}
	if c.DefaultVersionName != "Option" {
		t.Errorf("default_version_name = %q", c.DefaultVersionName)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "listen: \":7000\"\n")

	c := Defaults()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.PatientBands.PediatricUnder != 12 || c.PatientBands.AdolescentUnder != 18 {
		t.Errorf("bands changed: %+v", c.PatientBands)
	}
	if c.DefaultVersionName != "Version" {
		t.Errorf("default_version_name = %q", c.DefaultVersionName)
	}
}

func TestLoadFromFile_BadBands(t *testing.T) {
	path := writeConfig(t, "patient_bands:\n  pediatric_under: 18\n  adolescent_under: 12\n")

	c := Defaults()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for inverted bands")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Defaults()
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := writeConfig(t, "listen: [unterminated\n")
	c := Defaults()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	c := Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := c.ValidateWithDSN(); err == nil {
		t.Error("expected error without DSN")
	}
	c.DSN = "postgres://localhost/odonto"
	if err := c.ValidateWithDSN(); err != nil {
		t.Errorf("ValidateWithDSN: %v", err)
	}

	c.LogFormat = "xml"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown log format")
	}
}
