// Package seed loads the clinic's service catalog and patient directory from
// a YAML file and upserts them into a store.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/store"
)

// file is the on-disk YAML structure. Costs are written in currency units.
type file struct {
	Services []serviceRow `yaml:"services"`
	Patients []patientRow `yaml:"patients"`
}

type serviceRow struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Cost        float64 `yaml:"cost"`
	DurationMin int     `yaml:"duration_min"`
	PatientType string  `yaml:"patient_type"`
}

type patientRow struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	BirthDate string `yaml:"birth_date"`
}

// Clinic is a validated seed file.
type Clinic struct {
	Services []model.CatalogService
	Patients []model.Patient
}

// Result holds metrics from applying a seed.
type Result struct {
	ServicesUpserted int64
	PatientsUpserted int64
	Duration         time.Duration
}

// Load reads and validates a seed file.
func Load(path string) (*Clinic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse validates seed YAML. Service and patient ids must be unique, and
// service names must be unique ignoring case and spacing.
func Parse(data []byte) (*Clinic, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	c := &Clinic{}
	ids := make(map[string]bool, len(f.Services))
	names := make(map[string]string, len(f.Services))
	for i, row := range f.Services {
		svc, err := row.toService()
		if err != nil {
			return nil, fmt.Errorf("services[%d]: %w", i, err)
		}
		if ids[svc.ID] {
			return nil, fmt.Errorf("services[%d]: %w", i, apperr.Validation("id", "duplicate service id %q", svc.ID))
		}
		ids[svc.ID] = true
		key := normalize.Name(svc.Name)
		if prev, ok := names[key]; ok {
			return nil, fmt.Errorf("services[%d]: %w", i, apperr.Validation("name", "%q duplicates service %s", svc.Name, prev))
		}
		names[key] = svc.ID
		c.Services = append(c.Services, svc)
	}

	seen := make(map[string]bool, len(f.Patients))
	for i, row := range f.Patients {
		p, err := row.toPatient()
		if err != nil {
			return nil, fmt.Errorf("patients[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("patients[%d]: %w", i, apperr.Validation("id", "duplicate patient id %q", p.ID))
		}
		seen[p.ID] = true
		c.Patients = append(c.Patients, p)
	}
	return c, nil
}

func (r serviceRow) toService() (model.CatalogService, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return model.CatalogService{}, apperr.Validation("id", "service id is required")
	}
	name := normalize.Label(r.Name)
	if name == "" {
		return model.CatalogService{}, apperr.Validation("name", "service %s has no name", id)
	}
	if r.Cost < 0 {
		return model.CatalogService{}, apperr.Validation("cost", "service %s has a negative cost", id)
	}
	if r.DurationMin < 0 {
		return model.CatalogService{}, apperr.Validation("duration_min", "service %s has a negative duration", id)
	}
	pt := model.PatientAny
	if raw := strings.TrimSpace(strings.ToLower(r.PatientType)); raw != "" {
		var ok bool
		if pt, ok = model.ParsePatientType(raw); !ok {
			return model.CatalogService{}, apperr.Validation("patient_type", "unknown patient type %q", r.PatientType)
		}
	}
	return model.CatalogService{
		ID:          id,
		Name:        name,
		CostCents:   normalize.DollarsToCents(r.Cost),
		DurationMin: r.DurationMin,
		PatientType: pt,
	}, nil
}

func (r patientRow) toPatient() (model.Patient, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return model.Patient{}, apperr.Validation("id", "patient id is required")
	}
	birth := normalize.ParseDate(r.BirthDate)
	if birth == nil {
		return model.Patient{}, apperr.Validation("birth_date", "patient %s: unparseable birth date %q", id, r.BirthDate)
	}
	return model.Patient{ID: id, Name: normalize.Label(r.Name), BirthDate: normalize.Day(*birth)}, nil
}

// Apply upserts the clinic's services and patients.
func Apply(ctx context.Context, st store.Store, log zerolog.Logger, c *Clinic) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if len(c.Services) > 0 {
		n, err := st.UpsertServices(ctx, c.Services)
		if err != nil {
			return nil, fmt.Errorf("seed services: %w", err)
		}
		res.ServicesUpserted = n
	}
	if len(c.Patients) > 0 {
		n, err := st.UpsertPatients(ctx, c.Patients)
		if err != nil {
			return nil, fmt.Errorf("seed patients: %w", err)
		}
		res.PatientsUpserted = n
	}
	res.Duration = time.Since(start)

	log.Info().
		Int64("services", res.ServicesUpserted).
		Int64("patients", res.PatientsUpserted).
		Str("duration", res.Duration.String()).
		Msg("seed complete")
	return res, nil
}
