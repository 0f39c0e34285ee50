package model

// StatusKind separates clinical findings from planned or performed work.
type StatusKind string

const (
	KindCondition StatusKind = "condition"
	KindTreatment StatusKind = "treatment"
)

// StatusEntry is one condition or treatment applied to a zone. Entries are
// replaced wholesale, never patched field by field.
type StatusEntry struct {
	ID        string     `json:"id"`
	Kind      StatusKind `json:"kind"`
	Label     string     `json:"label"`
	Color     string     `json:"color"`
	ServiceID string     `json:"service_id,omitempty"` // required for treatments
	Comment   string     `json:"comment,omitempty"`
}

// SameValue compares two entries ignoring their ids.
func (e StatusEntry) SameValue(o StatusEntry) bool {
	return e.Kind == o.Kind &&
		e.Label == o.Label &&
		e.Color == o.Color &&
		e.ServiceID == o.ServiceID &&
		e.Comment == o.Comment
}

// ZoneMap is the odontogram state of one plan version. Map order carries no
// meaning; use Keys for display order. A zone with no entries is never stored.
type ZoneMap map[ZoneKey][]StatusEntry

// Clone returns a deep copy sharing no slices with zm.
func (zm ZoneMap) Clone() ZoneMap {
	if zm == nil {
		return ZoneMap{}
	}
	out := make(ZoneMap, len(zm))
	for k, entries := range zm {
		if len(entries) == 0 {
			continue
		}
		cp := make([]StatusEntry, len(entries))
		copy(cp, entries)
		out[k] = cp
	}
	return out
}

// Keys returns the zone keys in display order.
func (zm ZoneMap) Keys() []ZoneKey {
	keys := make([]ZoneKey, 0, len(zm))
	for k := range zm {
		keys = append(keys, k)
	}
	SortZoneKeys(keys)
	return keys
}

// EntryCount returns the number of entries across all zones.
func (zm ZoneMap) EntryCount() int {
	n := 0
	for _, entries := range zm {
		n += len(entries)
	}
	return n
}

// EqualZones compares two maps by value: same zones, and per zone the same
// entries in the same order, ignoring entry ids.
func EqualZones(a, b ZoneMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, ea := range a {
		eb, ok := b[k]
		if !ok || len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !ea[i].SameValue(eb[i]) {
				return false
			}
		}
	}
	return true
}
