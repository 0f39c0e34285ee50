package planner

import (
	"context"
	"time"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/progress"
	"github.com/gyeh/odontoplan/internal/store"
)

// ProgressReport is a set of progress records with their summary.
type ProgressReport struct {
	Records []model.ProgressRecord `json:"records"`
	Summary progress.Summary       `json:"summary"`
}

// SeedProgress creates pending records for every treatment of a version
// (the active one when versionID is empty) that is not tracked yet.
// Running it twice creates nothing the second time.
func (s *Service) SeedProgress(ctx context.Context, planID, versionID string) ([]model.ProgressRecord, error) {
	ws, err := s.open(ctx, planID)
	if err != nil {
		return nil, &PlannerError{Op: "seed progress", Err: err}
	}
	v, err := resolveVersion(ws, versionID)
	if err != nil {
		return nil, &PlannerError{Op: "seed progress", Err: err}
	}

	seeded := progress.SeedFromVersion(ws.Plan.PatientID, v, ws.Progress, s.now())
	for _, r := range seeded {
		if err := s.store.SaveProgress(ctx, r); err != nil {
			return nil, &PlannerError{Op: "seed progress", Err: err}
		}
	}
	s.log.Info().
		Str("plan_id", planID).
		Str("version_id", v.ID).
		Int("seeded", len(seeded)).
		Msg("progress seeded")
	return seeded, nil
}

// CompleteProgress marks a pending record completed on date. A positive
// amount also records the payment.
func (s *Service) CompleteProgress(ctx context.Context, recordID string, date time.Time, amountCents int64, notes string) (model.ProgressRecord, error) {
	return s.updateRecord(ctx, "complete progress", recordID, func(r *model.ProgressRecord) error {
		return progress.MarkCompleted(r, date, amountCents, notes)
	})
}

// CancelProgress marks a pending record canceled.
func (s *Service) CancelProgress(ctx context.Context, recordID, notes string) (model.ProgressRecord, error) {
	return s.updateRecord(ctx, "cancel progress", recordID, func(r *model.ProgressRecord) error {
		return progress.MarkCanceled(r, notes)
	})
}

// RegisterPayment sets the amount paid on a record in any state.
func (s *Service) RegisterPayment(ctx context.Context, recordID string, amountCents int64, date time.Time) (model.ProgressRecord, error) {
	return s.updateRecord(ctx, "register payment", recordID, func(r *model.ProgressRecord) error {
		return progress.RegisterPayment(r, amountCents, date)
	})
}

// updateRecord loads a record, applies fn and saves it. The stored record is
// untouched when fn fails.
func (s *Service) updateRecord(ctx context.Context, op, recordID string, fn func(*model.ProgressRecord) error) (model.ProgressRecord, error) {
	rec, err := s.store.GetProgress(ctx, recordID)
	if err != nil {
		return model.ProgressRecord{}, &PlannerError{Op: op, Err: err}
	}
	if err := fn(&rec); err != nil {
		return model.ProgressRecord{}, &PlannerError{Op: op, Err: err}
	}
	if err := s.store.SaveProgress(ctx, rec); err != nil {
		return model.ProgressRecord{}, &PlannerError{Op: op, Err: err}
	}
	s.log.Info().
		Str("op", op).
		Str("record_id", rec.ID).
		Str("state", string(rec.State)).
		Int64("amount_paid_cents", rec.AmountPaidCents).
		Msg("progress updated")
	return rec, nil
}

// Progress returns the records matching filter and their summary.
func (s *Service) Progress(ctx context.Context, filter store.ProgressFilter) (ProgressReport, error) {
	records, err := s.store.LoadProgress(ctx, filter)
	if err != nil {
		return ProgressReport{}, &PlannerError{Op: "load progress", Err: err}
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}
	return ProgressReport{Records: records, Summary: progress.Summarize(records)}, nil
}

// DeleteProgress removes a record, e.g. to reopen a canceled treatment by
// seeding it again.
func (s *Service) DeleteProgress(ctx context.Context, recordID string) error {
	if err := s.store.DeleteProgress(ctx, recordID); err != nil {
		return &PlannerError{Op: "delete progress", Err: err}
	}
	return nil
}
