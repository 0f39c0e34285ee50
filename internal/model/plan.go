package model

import "time"

// PlanVersion is a named snapshot of a plan's full odontogram state.
// TotalCents is derived from the zones and the catalog and cached here.
type PlanVersion struct {
	ID         string             `json:"id"`
	PlanID     string             `json:"plan_id"`
	Name       string             `json:"name"`
	Ordinal    int                `json:"ordinal"`
	IsActive   bool               `json:"is_active"`
	TotalCents int64              `json:"total_cents"`
	Zones      ZoneMap            `json:"zones"`
	Comments   map[ZoneKey]string `json:"comments,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Clone returns a deep copy of v.
func (v PlanVersion) Clone() PlanVersion {
	out := v
	out.Zones = v.Zones.Clone()
	out.Comments = CloneComments(v.Comments)
	return out
}

// CloneComments copies a per-zone comment map, dropping blank comments.
func CloneComments(c map[ZoneKey]string) map[ZoneKey]string {
	out := make(map[ZoneKey]string, len(c))
	for k, v := range c {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// PlanSnapshot is the persisted form of a treatment plan and all of its versions,
// ordered by Ordinal.
type PlanSnapshot struct {
	ID           string        `json:"id"`
	PatientID    string        `json:"patient_id"`
	CreatedAt    time.Time     `json:"created_at"`
	Observations string        `json:"observations"`
	TotalCents   int64         `json:"total_cents"`
	Versions     []PlanVersion `json:"versions"`
}

// PlanSummary is the list-view row of a plan.
type PlanSummary struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id"`
	CreatedAt    time.Time `json:"created_at"`
	Observations string    `json:"observations"`
	TotalCents   int64     `json:"total_cents"`
	VersionCount int       `json:"version_count"`
}
