// Package progress tracks the real-world completion and payment of planned
// treatments. Records only move forward: pending -> completed or
// pending -> canceled. Reopening means deleting and recreating the record,
// which keeps the audit trail intact.
package progress

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
)

// Summary aggregates a set of progress records.
type Summary struct {
	Total          int   `json:"total"`
	Completed      int   `json:"completed"`
	Pending        int   `json:"pending"`
	Canceled       int   `json:"canceled"`
	TotalPaidCents int64 `json:"total_paid_cents"`
}

// NewRecord starts tracking a treatment entry in the pending state.
func NewRecord(patientID, planID, versionID string, zoneKey model.ZoneKey, entry model.StatusEntry, now time.Time) (model.ProgressRecord, error) {
	if entry.Kind != model.KindTreatment {
		return model.ProgressRecord{}, apperr.Validation("entry", "only treatment entries are tracked, %s is a %s", entry.ID, entry.Kind)
	}
	if entry.ID == "" {
		return model.ProgressRecord{}, apperr.Validation("entry", "entry has no id")
	}
	return model.ProgressRecord{
		ID:        uuid.NewString(),
		PatientID: patientID,
		PlanID:    planID,
		VersionID: versionID,
		EntryID:   entry.ID,
		ZoneKey:   zoneKey,
		Label:     entry.Label,
		ServiceID: entry.ServiceID,
		State:     model.ProgressPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkCompleted moves a pending record to completed. amountCents sets (not
// adds to) the amount paid; a positive amount also records date as the
// payment date. On error the record is left unchanged.
func MarkCompleted(r *model.ProgressRecord, date time.Time, amountCents int64, notes string) error {
	if r.State != model.ProgressPending {
		return apperr.InvalidOperation("complete", "record %s is %s, only pending records can be completed", r.ID, r.State)
	}
	if date.IsZero() {
		return apperr.Validation("completed_on", "a completion date is required")
	}
	if amountCents < 0 {
		return apperr.Validation("amount", "must not be negative")
	}
	d := date
	r.State = model.ProgressCompleted
	r.CompletedOn = &d
	if amountCents > 0 {
		r.AmountPaidCents = amountCents
		r.PaidOn = &d
	}
	r.Notes = mergeNotes(r.Notes, notes)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCanceled moves a pending record to canceled.
func MarkCanceled(r *model.ProgressRecord, notes string) error {
	if r.State != model.ProgressPending {
		return apperr.InvalidOperation("cancel", "record %s is %s, only pending records can be canceled", r.ID, r.State)
	}
	r.State = model.ProgressCanceled
	r.Notes = mergeNotes(r.Notes, notes)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// RegisterPayment records the amount paid so far, in any state. The amount
// replaces the previous value rather than accumulating.
func RegisterPayment(r *model.ProgressRecord, amountCents int64, date time.Time) error {
	if amountCents < 0 {
		return apperr.Validation("amount", "must not be negative")
	}
	if date.IsZero() {
		return apperr.Validation("paid_on", "a payment date is required")
	}
	d := date
	r.AmountPaidCents = amountCents
	r.PaidOn = &d
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Summarize counts records per state and totals the amounts paid.
func Summarize(records []model.ProgressRecord) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.State {
		case model.ProgressCompleted:
			s.Completed++
		case model.ProgressCanceled:
			s.Canceled++
		default:
			s.Pending++
		}
		s.TotalPaidCents += r.AmountPaidCents
	}
	return s
}

// SeedFromVersion returns new pending records for every treatment entry of v
// that has no record yet for the same (version, entry) pair.
func SeedFromVersion(patientID string, v model.PlanVersion, existing []model.ProgressRecord, now time.Time) []model.ProgressRecord {
	tracked := make(map[string]bool, len(existing))
	for _, r := range existing {
		if r.VersionID == v.ID {
			tracked[r.EntryID] = true
		}
	}
	var out []model.ProgressRecord
	for _, key := range v.Zones.Keys() {
		for _, e := range v.Zones[key] {
			if e.Kind != model.KindTreatment || tracked[e.ID] {
				continue
			}
			rec, err := NewRecord(patientID, v.PlanID, v.ID, key, e, now)
			if err != nil {
				continue
			}
			tracked[e.ID] = true
			out = append(out, rec)
		}
	}
	return out
}

func mergeNotes(prev, next string) string {
	next = strings.TrimSpace(next)
	switch {
	case next == "":
		return prev
	case prev == "":
		return next
	default:
		return prev + "\n" + next
	}
}
