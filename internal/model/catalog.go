package model

import "time"

// PatientType is the age band a patient or catalog service belongs to.
type PatientType string

const (
	PatientAdult      PatientType = "adult"
	PatientAdolescent PatientType = "adolescent"
	PatientPediatric  PatientType = "pediatric"
	PatientAny        PatientType = "all" // catalog services only
)

// ParsePatientType returns the PatientType for s, or ok=false.
func ParsePatientType(s string) (PatientType, bool) {
	switch pt := PatientType(s); pt {
	case PatientAdult, PatientAdolescent, PatientPediatric, PatientAny:
		return pt, true
	}
	return "", false
}

// CatalogService is a billable procedure from the clinic's service catalog.
type CatalogService struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	CostCents   int64       `json:"cost_cents" yaml:"-"`
	DurationMin int         `json:"duration_min" yaml:"duration_min"`
	PatientType PatientType `json:"patient_type" yaml:"patient_type"`
}

// AppliesTo reports whether the service may be offered to patients of type pt.
func (s CatalogService) AppliesTo(pt PatientType) bool {
	return s.PatientType == "" || s.PatientType == PatientAny || s.PatientType == pt
}

// CopyValues returns the row in CatalogColumns order for pgx CopyFrom.
func (s CatalogService) CopyValues() []any {
	return []any{s.ID, s.Name, s.CostCents, int32(s.DurationMin), string(s.PatientType)}
}

// CatalogColumns returns the ordered column names for COPY into the catalog import table.
func CatalogColumns() []string {
	return []string{"service_id", "name", "cost_cents", "duration_min", "patient_type"}
}

// Patient is the subset of the patient directory this module reads.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
}

// CopyValues returns the row in PatientColumns order for pgx CopyFrom.
func (p Patient) CopyValues() []any {
	return []any{p.ID, p.Name, p.BirthDate}
}

// PatientColumns returns the ordered column names for COPY into the patient import table.
func PatientColumns() []string {
	return []string{"patient_id", "name", "birth_date"}
}

// PatientBands holds the exclusive upper ages of the pediatric and adolescent bands.
type PatientBands struct {
	PediatricUnder  int `yaml:"pediatric_under"`
	AdolescentUnder int `yaml:"adolescent_under"`
}

// DefaultPatientBands: pediatric below 12, adolescent below 18.
var DefaultPatientBands = PatientBands{PediatricUnder: 12, AdolescentUnder: 18}

// AgeOn returns the completed years between birth and asOf.
func AgeOn(birth, asOf time.Time) int {
	years := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() || (asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ClassifyPatient derives the patient type from the birth date.
func ClassifyPatient(birth, asOf time.Time, bands PatientBands) PatientType {
	age := AgeOn(birth, asOf)
	switch {
	case age < bands.PediatricUnder:
		return PatientPediatric
	case age < bands.AdolescentUnder:
		return PatientAdolescent
	default:
		return PatientAdult
	}
}
