// Package memstore is an in-memory store.Store used by tests and by the
// HTTP server when no database is configured. Values are deep-copied on the
// way in and out so callers never share state with the store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	services map[string]model.CatalogService
	patients map[string]model.Patient
	plans    map[string]model.PlanSnapshot
	progress map[string]model.ProgressRecord
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		services: make(map[string]model.CatalogService),
		patients: make(map[string]model.Patient),
		plans:    make(map[string]model.PlanSnapshot),
		progress: make(map[string]model.ProgressRecord),
	}
}

func cloneSnapshot(s model.PlanSnapshot) model.PlanSnapshot {
	out := s
	out.Versions = make([]model.PlanVersion, len(s.Versions))
	for i, v := range s.Versions {
		out.Versions[i] = v.Clone()
	}
	return out
}

func cloneRecord(r model.ProgressRecord) model.ProgressRecord {
	out := r
	if r.CompletedOn != nil {
		t := *r.CompletedOn
		out.CompletedOn = &t
	}
	if r.PaidOn != nil {
		t := *r.PaidOn
		out.PaidOn = &t
	}
	return out
}

func (s *Store) ListServices(ctx context.Context) ([]model.CatalogService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CatalogService, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetService(ctx context.Context, id string) (*model.CatalogService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

// DeleteService removes a catalog entry. Plans referencing it keep their
// entries, which then price as dangling references.
func (s *Store) DeleteService(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.services, id)
}

func (s *Store) UpsertServices(ctx context.Context, services []model.CatalogService) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, svc := range services {
		s.services[svc.ID] = svc
	}
	return int64(len(services)), nil
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (model.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[patientID]
	if !ok {
		return model.Patient{}, apperr.NotFound("patient", patientID)
	}
	return p, nil
}

func (s *Store) UpsertPatients(ctx context.Context, patients []model.Patient) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range patients {
		s.patients[p.ID] = p
	}
	return int64(len(patients)), nil
}

func (s *Store) LoadPlan(ctx context.Context, planID string) (model.PlanSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return model.PlanSnapshot{}, apperr.NotFound("plan", planID)
	}
	return cloneSnapshot(p), nil
}

func (s *Store) SavePlan(ctx context.Context, plan model.PlanSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = cloneSnapshot(plan)
	return nil
}

func (s *Store) ListPlans(ctx context.Context, patientID string) ([]model.PlanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PlanSummary
	for _, p := range s.plans {
		if patientID != "" && p.PatientID != patientID {
			continue
		}
		out = append(out, model.PlanSummary{
			ID:           p.ID,
			PatientID:    p.PatientID,
			CreatedAt:    p.CreatedAt,
			Observations: p.Observations,
			TotalCents:   p.TotalCents,
			VersionCount: len(p.Versions),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeletePlan(ctx context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[planID]; !ok {
		return apperr.NotFound("plan", planID)
	}
	delete(s.plans, planID)
	return nil
}

func (s *Store) LoadProgress(ctx context.Context, f store.ProgressFilter) ([]model.ProgressRecord, error) {
	if f.Empty() {
		return nil, apperr.Validation("filter", "one of plan, version or patient id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ProgressRecord
	for _, r := range s.progress {
		switch {
		case f.PlanID != "" && r.PlanID != f.PlanID:
			continue
		case f.VersionID != "" && r.VersionID != f.VersionID:
			continue
		case f.PatientID != "" && r.PatientID != f.PatientID:
			continue
		}
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetProgress(ctx context.Context, recordID string) (model.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.progress[recordID]
	if !ok {
		return model.ProgressRecord{}, apperr.NotFound("progress record", recordID)
	}
	return cloneRecord(r), nil
}

func (s *Store) SaveProgress(ctx context.Context, rec model.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *Store) DeleteProgress(ctx context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.progress[recordID]; !ok {
		return apperr.NotFound("progress record", recordID)
	}
	delete(s.progress, recordID)
	return nil
}
