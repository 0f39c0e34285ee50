package model

import "time"

// ProgressState is the real-world state of one tracked treatment.
type ProgressState string

const (
	ProgressPending   ProgressState = "pending"
	ProgressCompleted ProgressState = "completed"
	ProgressCanceled  ProgressState = "canceled"
)

// ProgressRecord tracks completion and payment of one treatment entry. The
// plan, version and entry ids are weak references: the record outlives the
// version it was created against, so the entry fields are copied in.
type ProgressRecord struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	PlanID    string `json:"plan_id"`
	VersionID string `json:"version_id"`
	EntryID   string `json:"entry_id"`

	ZoneKey   ZoneKey `json:"zone_key"`
	Label     string  `json:"label"`
	ServiceID string  `json:"service_id"`

	State           ProgressState `json:"state"`
	CompletedOn     *time.Time    `json:"completed_on,omitempty"`
	AmountPaidCents int64         `json:"amount_paid_cents"`
	PaidOn          *time.Time    `json:"paid_on,omitempty"`
	Notes           string        `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
