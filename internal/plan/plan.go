// Package plan holds the treatment-plan aggregate: the ordered set of plan
// versions with exactly one active, the status-entry operations on a
// version's odontogram, and cost aggregation against the service catalog.
//
// The active version is stored as a single id on the Plan, so a plan can never
// be observed with zero or two active versions. PlanVersion.IsActive is derived
// from that id whenever versions are handed out.
package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
)

var now = func() time.Time { return time.Now().UTC() }

// Plan is a patient's treatment plan and its versions, ordered by ordinal.
type Plan struct {
	ID           string
	PatientID    string
	CreatedAt    time.Time
	Observations string

	versions []model.PlanVersion
	activeID string
}

// DefaultVersionName is the name given to a version created without one.
func DefaultVersionName(ordinal int) string {
	return fmt.Sprintf("Version %d", ordinal)
}

// New creates a plan whose first version (ordinal 1) is active and holds a
// copy of base. base is held to the same rules as CreateVersion.
func New(id, patientID, observations string, createdAt time.Time, base model.ZoneMap) (*Plan, error) {
	if err := validateZones(base); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	p := &Plan{
		ID:           id,
		PatientID:    patientID,
		CreatedAt:    createdAt,
		Observations: observations,
	}
	v := p.appendVersion("", base, nil)
	p.activeID = v.ID
	return p, nil
}

// Restore rebuilds a Plan from its persisted form. A snapshot without versions
// is rejected. If the stored flags show zero or several active versions, the
// highest-ordinal candidate is activated and repaired is true.
func Restore(s model.PlanSnapshot) (p *Plan, repaired bool, err error) {
	if len(s.Versions) == 0 {
		return nil, false, apperr.Validation("versions", "plan %s has no versions", s.ID)
	}
	p = &Plan{
		ID:           s.ID,
		PatientID:    s.PatientID,
		CreatedAt:    s.CreatedAt,
		Observations: s.Observations,
		versions:     make([]model.PlanVersion, 0, len(s.Versions)),
	}
	seen := make(map[string]bool, len(s.Versions))
	for _, v := range s.Versions {
		if v.ID == "" || seen[v.ID] {
			return nil, false, apperr.Validation("versions", "missing or duplicate version id %q", v.ID)
		}
		seen[v.ID] = true
		cp := v.Clone()
		cp.PlanID = s.ID
		p.versions = append(p.versions, cp)
	}
	sort.SliceStable(p.versions, func(i, j int) bool {
		return p.versions[i].Ordinal < p.versions[j].Ordinal
	})

	var active []int
	for i, v := range p.versions {
		if v.IsActive {
			active = append(active, i)
		}
	}
	switch len(active) {
	case 1:
		p.activeID = p.versions[active[0]].ID
	case 0:
		p.activeID = p.versions[len(p.versions)-1].ID
		repaired = true
	default:
		p.activeID = p.versions[active[len(active)-1]].ID
		repaired = true
	}
	return p, repaired, nil
}

// Snapshot returns the persisted form, with IsActive flags and the plan total
// taken from the active version.
func (p *Plan) Snapshot() model.PlanSnapshot {
	return model.PlanSnapshot{
		ID:           p.ID,
		PatientID:    p.PatientID,
		CreatedAt:    p.CreatedAt,
		Observations: p.Observations,
		TotalCents:   p.TotalCents(),
		Versions:     p.Versions(),
	}
}

// Versions returns copies of all versions in ordinal order.
func (p *Plan) Versions() []model.PlanVersion {
	out := make([]model.PlanVersion, len(p.versions))
	for i, v := range p.versions {
		out[i] = p.view(v)
	}
	return out
}

func (p *Plan) view(v model.PlanVersion) model.PlanVersion {
	cp := v.Clone()
	cp.IsActive = v.ID == p.activeID
	return cp
}

func (p *Plan) index(versionID string) int {
	for i, v := range p.versions {
		if v.ID == versionID {
			return i
		}
	}
	return -1
}

// Version returns a copy of one version.
func (p *Plan) Version(versionID string) (model.PlanVersion, error) {
	i := p.index(versionID)
	if i < 0 {
		return model.PlanVersion{}, apperr.NotFound("version", versionID)
	}
	return p.view(p.versions[i]), nil
}

// ActiveID returns the id of the active version.
func (p *Plan) ActiveID() string { return p.activeID }

// ActiveVersion returns a copy of the active version.
func (p *Plan) ActiveVersion() model.PlanVersion {
	return p.view(p.versions[p.index(p.activeID)])
}

// TotalCents is the cached total of the active version.
func (p *Plan) TotalCents() int64 {
	return p.versions[p.index(p.activeID)].TotalCents
}

// Len returns the number of versions.
func (p *Plan) Len() int { return len(p.versions) }

func (p *Plan) appendVersion(name string, base model.ZoneMap, comments map[model.ZoneKey]string) model.PlanVersion {
	ordinal := 1
	if n := len(p.versions); n > 0 {
		ordinal = p.versions[n-1].Ordinal + 1
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultVersionName(ordinal)
	}
	v := model.PlanVersion{
		ID:        uuid.NewString(),
		PlanID:    p.ID,
		Name:      name,
		Ordinal:   ordinal,
		Zones:     base.Clone(),
		Comments:  model.CloneComments(comments),
		CreatedAt: now(),
	}
	p.versions = append(p.versions, v)
	return v
}

// CreateVersion appends a new, inactive version holding a deep copy of base
// (nil means empty). Entry ids carried over from base are kept.
func (p *Plan) CreateVersion(name string, base model.ZoneMap) (model.PlanVersion, error) {
	if err := validateZones(base); err != nil {
		return model.PlanVersion{}, err
	}
	v := p.appendVersion(name, base, nil)
	return p.view(v), nil
}

// ForkVersion creates a new version copying the zones and comments of an
// existing one.
func (p *Plan) ForkVersion(fromID, name string) (model.PlanVersion, error) {
	i := p.index(fromID)
	if i < 0 {
		return model.PlanVersion{}, apperr.NotFound("version", fromID)
	}
	src := p.versions[i]
	p.appendVersion(name, src.Zones, src.Comments)
	last := len(p.versions) - 1
	p.versions[last].TotalCents = src.TotalCents
	return p.view(p.versions[last]), nil
}

// ForkActive creates a new version from the active one.
func (p *Plan) ForkActive(name string) (model.PlanVersion, error) {
	return p.ForkVersion(p.activeID, name)
}

// SetActiveVersion makes versionID the single active version.
func (p *Plan) SetActiveVersion(versionID string) error {
	if p.index(versionID) < 0 {
		return apperr.NotFound("version", versionID)
	}
	p.activeID = versionID
	return nil
}

// DeleteVersion removes a version. The last remaining version cannot be
// deleted. When the active version goes, the next-lower ordinal becomes
// active, or the next-higher if there is no lower one.
func (p *Plan) DeleteVersion(versionID string) error {
	i := p.index(versionID)
	if i < 0 {
		return apperr.NotFound("version", versionID)
	}
	if len(p.versions) == 1 {
		return apperr.InvalidOperation("delete version", "version %s is the only version of plan %s", versionID, p.ID)
	}
	if versionID == p.activeID {
		if i > 0 {
			p.activeID = p.versions[i-1].ID
		} else {
			p.activeID = p.versions[i+1].ID
		}
	}
	p.versions = append(p.versions[:i:i], p.versions[i+1:]...)
	return nil
}

// RenameVersion replaces a version's display name.
func (p *Plan) RenameVersion(versionID, name string) error {
	i := p.index(versionID)
	if i < 0 {
		return apperr.NotFound("version", versionID)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	p.versions[i].Name = name
	return nil
}

// UpdateZones runs fn on a copy of the version's zone map and swaps it in only
// if fn succeeds and the result is valid.
func (p *Plan) UpdateZones(versionID string, fn func(model.ZoneMap) error) error {
	i := p.index(versionID)
	if i < 0 {
		return apperr.NotFound("version", versionID)
	}
	zm := p.versions[i].Zones.Clone()
	if err := fn(zm); err != nil {
		return err
	}
	if err := validateZones(zm); err != nil {
		return err
	}
	p.versions[i].Zones = zm.Clone()
	return nil
}

// ReplaceZones swaps in a whole new zone map for a version.
func (p *Plan) ReplaceZones(versionID string, zm model.ZoneMap) error {
	return p.UpdateZones(versionID, func(dst model.ZoneMap) error {
		for k := range dst {
			delete(dst, k)
		}
		for k, entries := range zm {
			dst[k] = append([]model.StatusEntry(nil), entries...)
		}
		return nil
	})
}

// SetZoneComment sets or, with an empty comment, clears a per-zone comment.
func (p *Plan) SetZoneComment(versionID string, key model.ZoneKey, comment string) error {
	i := p.index(versionID)
	if i < 0 {
		return apperr.NotFound("version", versionID)
	}
	if err := model.ValidateZoneKey(key); err != nil {
		return err
	}
	comments := model.CloneComments(p.versions[i].Comments)
	if c := strings.TrimSpace(comment); c == "" {
		delete(comments, key)
	} else {
		comments[key] = c
	}
	p.versions[i].Comments = comments
	return nil
}

// RecomputeCosts refreshes every version's cached total from the catalog and
// returns the per-version results keyed by version id.
func (p *Plan) RecomputeCosts(catalog Catalog) map[string]CostResult {
	out := make(map[string]CostResult, len(p.versions))
	for i := range p.versions {
		res := RecomputeCost(p.versions[i], catalog)
		p.versions[i].TotalCents = res.TotalCents
		out[p.versions[i].ID] = res
	}
	return out
}

func validateZones(zm model.ZoneMap) error {
	for k, entries := range zm {
		if err := model.ValidateZoneKey(k); err != nil {
			return err
		}
		for _, e := range entries {
			if e.ID == "" {
				return apperr.Validation("id", "entry in zone %s has no id", k)
			}
			if e.Kind != model.KindCondition && e.Kind != model.KindTreatment {
				return apperr.Validation("kind", "unknown status kind %q in zone %s", string(e.Kind), k)
			}
			if e.Kind == model.KindTreatment && e.ServiceID == "" {
				return apperr.Validation("service_id", "treatment %s in zone %s has no service", e.ID, k)
			}
			if !ValidColor(e.Color) {
				return apperr.Validation("color", "%q is not a color token", e.Color)
			}
		}
	}
	return nil
}
