package plan

import "github.com/gyeh/odontoplan/internal/model"

// Catalog resolves service ids to catalog services.
type Catalog interface {
	Lookup(serviceID string) (model.CatalogService, bool)
}

// CatalogIndex is an in-memory Catalog keyed by service id.
type CatalogIndex map[string]model.CatalogService

// NewCatalogIndex indexes services by id.
func NewCatalogIndex(services []model.CatalogService) CatalogIndex {
	idx := make(CatalogIndex, len(services))
	for _, s := range services {
		idx[s.ID] = s
	}
	return idx
}

func (c CatalogIndex) Lookup(serviceID string) (model.CatalogService, bool) {
	s, ok := c[serviceID]
	return s, ok
}

// DanglingRef is a treatment entry whose service is missing from the catalog.
type DanglingRef struct {
	ZoneKey   model.ZoneKey `json:"zone_key"`
	EntryID   string        `json:"entry_id"`
	ServiceID string        `json:"service_id"`
}

// CostLine is one priced treatment entry.
type CostLine struct {
	ZoneKey     model.ZoneKey `json:"zone_key"`
	EntryID     string        `json:"entry_id"`
	Label       string        `json:"label"`
	ServiceID   string        `json:"service_id"`
	ServiceName string        `json:"service_name,omitempty"`
	CostCents   int64         `json:"cost_cents"`
}

// CostResult is the outcome of pricing one version.
type CostResult struct {
	TotalCents int64         `json:"total_cents"`
	Dangling   []DanglingRef `json:"dangling,omitempty"`
	Lines      []CostLine    `json:"lines,omitempty"`
}

// RecomputeCost sums the catalog cost of every treatment entry in the version.
// Entries whose service is not in the catalog are priced at zero and reported
// in Dangling instead of failing: services may be deleted after a plan
// references them. Lines come out in zone display order.
func RecomputeCost(v model.PlanVersion, catalog Catalog) CostResult {
	var res CostResult
	for _, key := range v.Zones.Keys() {
		for _, e := range v.Zones[key] {
			if e.Kind != model.KindTreatment {
				continue
			}
			line := CostLine{ZoneKey: key, EntryID: e.ID, Label: e.Label, ServiceID: e.ServiceID}
			if svc, ok := catalog.Lookup(e.ServiceID); ok {
				line.ServiceName = svc.Name
				line.CostCents = svc.CostCents
				res.TotalCents += svc.CostCents
			} else {
				res.Dangling = append(res.Dangling, DanglingRef{ZoneKey: key, EntryID: e.ID, ServiceID: e.ServiceID})
			}
			res.Lines = append(res.Lines, line)
		}
	}
	return res
}
