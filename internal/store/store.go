// Package store declares the collaborator contracts the planner consumes:
// the service catalog, plan persistence, progress persistence and the
// patient directory. internal/db implements them on Postgres and
// internal/store/memstore in memory.
package store

import (
	"context"

	"github.com/gyeh/odontoplan/internal/model"
)

// Catalog is the read side of the clinic's service catalog.
type Catalog interface {
	ListServices(ctx context.Context) ([]model.CatalogService, error)
	// GetService returns nil, nil when the service does not exist.
	GetService(ctx context.Context, id string) (*model.CatalogService, error)
}

// Plans persists treatment plans with their full version sets.
type Plans interface {
	// LoadPlan returns an apperr.NotFoundError for unknown ids.
	LoadPlan(ctx context.Context, planID string) (model.PlanSnapshot, error)
	// SavePlan replaces the stored plan and all of its versions. Concurrent
	// saves of the same plan are last-write-wins.
	SavePlan(ctx context.Context, plan model.PlanSnapshot) error
	ListPlans(ctx context.Context, patientID string) ([]model.PlanSummary, error)
	DeletePlan(ctx context.Context, planID string) error
}

// ProgressFilter selects progress records. Set exactly one field.
type ProgressFilter struct {
	PlanID    string
	VersionID string
	PatientID string
}

// Empty reports whether no selector is set.
func (f ProgressFilter) Empty() bool {
	return f.PlanID == "" && f.VersionID == "" && f.PatientID == ""
}

// Progress persists progress records.
type Progress interface {
	LoadProgress(ctx context.Context, filter ProgressFilter) ([]model.ProgressRecord, error)
	GetProgress(ctx context.Context, recordID string) (model.ProgressRecord, error)
	SaveProgress(ctx context.Context, rec model.ProgressRecord) error
	DeleteProgress(ctx context.Context, recordID string) error
}

// Patients is the read side of the patient directory.
type Patients interface {
	GetPatient(ctx context.Context, patientID string) (model.Patient, error)
}

// Store bundles every collaborator plus the bulk writes used for seeding.
type Store interface {
	Catalog
	Plans
	Progress
	Patients
	UpsertServices(ctx context.Context, services []model.CatalogService) (int64, error)
	UpsertPatients(ctx context.Context, patients []model.Patient) (int64, error)
}
