package plan

import (
	"regexp"

	"github.com/google/uuid"

	"github.com/gyeh/odontoplan/internal/apperr"
	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
)

var hexColor = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)

// Palette lists the named color tokens the odontogram renders.
var Palette = []string{"red", "blue", "green", "black", "yellow", "orange", "purple", "gray", "brown", "pink"}

// ValidColor reports whether c is a hex color (#rgb or #rrggbb) or a Palette name.
func ValidColor(c string) bool {
	c = normalize.Color(c)
	if hexColor.MatchString(c) {
		return true
	}
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// ApplyStatus builds a new entry for zoneKey. Treatments must reference a
// catalog service; the color must be a valid token.
func ApplyStatus(zoneKey model.ZoneKey, kind model.StatusKind, label, color, serviceID string) (model.StatusEntry, error) {
	if err := model.ValidateZoneKey(zoneKey); err != nil {
		return model.StatusEntry{}, err
	}
	switch kind {
	case model.KindCondition, model.KindTreatment:
	default:
		return model.StatusEntry{}, apperr.Validation("kind", "unknown status kind %q", string(kind))
	}
	label = normalize.Label(label)
	if label == "" {
		return model.StatusEntry{}, apperr.Validation("label", "must not be empty")
	}
	if !ValidColor(color) {
		return model.StatusEntry{}, apperr.Validation("color", "%q is not a color token", color)
	}
	if kind == model.KindTreatment && serviceID == "" {
		return model.StatusEntry{}, apperr.Validation("service_id", "required for treatment entries")
	}
	return model.StatusEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Label:     label,
		Color:     normalize.Color(color),
		ServiceID: serviceID,
	}, nil
}

// PutStatus appends entry to the zone's list.
func PutStatus(zm model.ZoneMap, zoneKey model.ZoneKey, entry model.StatusEntry) {
	zm[zoneKey] = append(zm[zoneKey], entry)
}

// ClearStatus removes one entry from a zone. A zone left empty is dropped from
// the map rather than kept as an empty list, so maps round-trip with stored rows.
func ClearStatus(zm model.ZoneMap, zoneKey model.ZoneKey, entryID string) error {
	entries := zm[zoneKey]
	for i, e := range entries {
		if e.ID != entryID {
			continue
		}
		rest := make([]model.StatusEntry, 0, len(entries)-1)
		rest = append(rest, entries[:i]...)
		rest = append(rest, entries[i+1:]...)
		if len(rest) == 0 {
			delete(zm, zoneKey)
		} else {
			zm[zoneKey] = rest
		}
		return nil
	}
	return apperr.NotFound("status entry", entryID)
}

// ClearZone removes every entry of a zone.
func ClearZone(zm model.ZoneMap, zoneKey model.ZoneKey) {
	delete(zm, zoneKey)
}
