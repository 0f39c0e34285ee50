package planner

import (
	"context"

	"github.com/gyeh/odontoplan/internal/model"
)

// PatientType classifies a patient by age today.
func (s *Service) PatientType(ctx context.Context, patientID string) (model.PatientType, error) {
	p, err := s.store.GetPatient(ctx, patientID)
	if err != nil {
		return "", &PlannerError{Op: "patient type", Err: err}
	}
	return model.ClassifyPatient(p.BirthDate, s.now(), s.bands), nil
}

// ServicesFor lists the catalog services offered to a patient's age band.
func (s *Service) ServicesFor(ctx context.Context, patientID string) ([]model.CatalogService, error) {
	pt, err := s.PatientType(ctx, patientID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, &PlannerError{Op: "services for patient", Err: err}
	}
	out := make([]model.CatalogService, 0, len(all))
	for _, svc := range all {
		if svc.AppliesTo(pt) {
			out = append(out, svc)
		}
	}
	return out, nil
}
