package export

import (
	"time"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
	"github.com/gyeh/odontoplan/internal/plan"
)

const dateLayout = "2006-01-02"

// ProgressRow is the Parquet layout of one progress record. Money is kept in
// cents, with a derived currency column for spreadsheet users.
type ProgressRow struct {
	RecordID        string  `parquet:"record_id"`
	PatientID       string  `parquet:"patient_id"`
	PlanID          string  `parquet:"plan_id"`
	VersionID       string  `parquet:"version_id"`
	EntryID         string  `parquet:"entry_id"`
	ZoneKey         string  `parquet:"zone_key"`
	Zone            string  `parquet:"zone"`
	Label           string  `parquet:"label"`
	ServiceID       string  `parquet:"service_id"`
	State           string  `parquet:"state"`
	CompletedOn     *string `parquet:"completed_on,optional"`
	AmountPaidCents int64   `parquet:"amount_paid_cents"`
	AmountPaid      float64 `parquet:"amount_paid"`
	PaidOn          *string `parquet:"paid_on,optional"`
	Notes           string  `parquet:"notes"`
	CreatedAtMs     int64   `parquet:"created_at_ms"`
	UpdatedAtMs     int64   `parquet:"updated_at_ms"`
}

// CostRow is the Parquet layout of one priced treatment line.
type CostRow struct {
	PlanID      string  `parquet:"plan_id"`
	VersionID   string  `parquet:"version_id"`
	VersionName string  `parquet:"version_name"`
	ZoneKey     string  `parquet:"zone_key"`
	Zone        string  `parquet:"zone"`
	EntryID     string  `parquet:"entry_id"`
	Label       string  `parquet:"label"`
	ServiceID   string  `parquet:"service_id"`
	ServiceName *string `parquet:"service_name,optional"`
	CostCents   int64   `parquet:"cost_cents"`
	Cost        float64 `parquet:"cost"`
	Dangling    bool    `parquet:"dangling"`
}

// ProgressColumns are the columns a progress export must carry.
func ProgressColumns() []string {
	return []string{"record_id", "plan_id", "version_id", "entry_id", "state", "amount_paid_cents"}
}

// CostColumns are the columns a cost export must carry.
func CostColumns() []string {
	return []string{"plan_id", "version_id", "entry_id", "service_id", "cost_cents"}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := normalize.ParseDate(*s)
	if t == nil {
		return nil
	}
	d := normalize.Day(*t)
	return &d
}

// NewProgressRow flattens a progress record.
func NewProgressRow(r model.ProgressRecord) ProgressRow {
	return ProgressRow{
		RecordID:        r.ID,
		PatientID:       r.PatientID,
		PlanID:          r.PlanID,
		VersionID:       r.VersionID,
		EntryID:         r.EntryID,
		ZoneKey:         string(r.ZoneKey),
		Zone:            model.DisplayName(r.ZoneKey),
		Label:           r.Label,
		ServiceID:       r.ServiceID,
		State:           string(r.State),
		CompletedOn:     formatDate(r.CompletedOn),
		AmountPaidCents: r.AmountPaidCents,
		AmountPaid:      normalize.CentsToDollars(r.AmountPaidCents),
		PaidOn:          formatDate(r.PaidOn),
		Notes:           r.Notes,
		CreatedAtMs:     r.CreatedAt.UnixMilli(),
		UpdatedAtMs:     r.UpdatedAt.UnixMilli(),
	}
}

// Record converts the row back into a progress record. Timestamps come back
// in UTC with millisecond precision.
func (p ProgressRow) Record() model.ProgressRecord {
	return model.ProgressRecord{
		ID:              p.RecordID,
		PatientID:       p.PatientID,
		PlanID:          p.PlanID,
		VersionID:       p.VersionID,
		EntryID:         p.EntryID,
		ZoneKey:         model.ZoneKey(p.ZoneKey),
		Label:           p.Label,
		ServiceID:       p.ServiceID,
		State:           model.ProgressState(p.State),
		CompletedOn:     parseDate(p.CompletedOn),
		AmountPaidCents: p.AmountPaidCents,
		PaidOn:          parseDate(p.PaidOn),
		Notes:           p.Notes,
		CreatedAt:       time.UnixMilli(p.CreatedAtMs).UTC(),
		UpdatedAt:       time.UnixMilli(p.UpdatedAtMs).UTC(),
	}
}

// NewCostRows flattens the cost breakdown of one version.
func NewCostRows(v model.PlanVersion, res plan.CostResult) []CostRow {
	dangling := make(map[string]bool, len(res.Dangling))
	for _, d := range res.Dangling {
		dangling[d.EntryID] = true
	}
	rows := make([]CostRow, 0, len(res.Lines))
	for _, l := range res.Lines {
		row := CostRow{
			PlanID:      v.PlanID,
			VersionID:   v.ID,
			VersionName: v.Name,
			ZoneKey:     string(l.ZoneKey),
			Zone:        model.DisplayName(l.ZoneKey),
			EntryID:     l.EntryID,
			Label:       l.Label,
			ServiceID:   l.ServiceID,
			CostCents:   l.CostCents,
			Cost:        normalize.CentsToDollars(l.CostCents),
			Dangling:    dangling[l.EntryID],
		}
		if l.ServiceName != "" {
			name := l.ServiceName
			row.ServiceName = &name
		}
		rows = append(rows, row)
	}
	return rows
}
