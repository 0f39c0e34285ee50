package plan

import (
	"fmt"
	"strings"

	"github.com/gyeh/odontoplan/internal/model"
	"github.com/gyeh/odontoplan/internal/normalize"
)

// ZoneDiff lists what changed in one zone between two versions. Entries are
// matched by value, so a carried-over entry with a new id is not a change.
type ZoneDiff struct {
	ZoneKey        model.ZoneKey       `json:"zone_key"`
	Added          []model.StatusEntry `json:"added,omitempty"`
	Removed        []model.StatusEntry `json:"removed,omitempty"`
	CommentBefore  string              `json:"comment_before,omitempty"`
	CommentAfter   string              `json:"comment_after,omitempty"`
	CommentChanged bool                `json:"comment_changed,omitempty"`
}

// Diff compares the zones and comments of two versions, in zone display order.
func Diff(from, to model.PlanVersion) []ZoneDiff {
	keys := make(map[model.ZoneKey]bool)
	for k := range from.Zones {
		keys[k] = true
	}
	for k := range to.Zones {
		keys[k] = true
	}
	for k := range from.Comments {
		keys[k] = true
	}
	for k := range to.Comments {
		keys[k] = true
	}
	ordered := make([]model.ZoneKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	model.SortZoneKeys(ordered)

	var out []ZoneDiff
	for _, k := range ordered {
		added, removed := diffEntries(from.Zones[k], to.Zones[k])
		d := ZoneDiff{
			ZoneKey:       k,
			Added:         added,
			Removed:       removed,
			CommentBefore: from.Comments[k],
			CommentAfter:  to.Comments[k],
		}
		d.CommentChanged = d.CommentBefore != d.CommentAfter
		if len(added) > 0 || len(removed) > 0 || d.CommentChanged {
			out = append(out, d)
		}
	}
	return out
}

func diffEntries(before, after []model.StatusEntry) (added, removed []model.StatusEntry) {
	used := make([]bool, len(before))
	for _, a := range after {
		matched := false
		for i, b := range before {
			if !used[i] && b.SameValue(a) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			added = append(added, a)
		}
	}
	for i, b := range before {
		if !used[i] {
			removed = append(removed, b)
		}
	}
	return added, removed
}

// Fingerprint hashes a version's zones and comments by value, ignoring entry
// ids, names and ordinals. Equal fingerprints mean identical odontograms.
func Fingerprint(v model.PlanVersion) string {
	fields := make(map[string]string, len(v.Zones)+len(v.Comments))
	for k, entries := range v.Zones {
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = fmt.Sprintf("%s|%s|%s|%s|%s", e.Kind, e.Label, e.Color, e.ServiceID, e.Comment)
		}
		fields["zone:"+string(k)] = strings.Join(parts, "\x1f")
	}
	for k, c := range v.Comments {
		fields["comment:"+string(k)] = c
	}
	return normalize.ContentHash(fields)
}
