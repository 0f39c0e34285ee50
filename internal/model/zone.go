package model

import (
	"sort"
	"strconv"

	"github.com/gyeh/odontoplan/internal/apperr"
)

// ZoneKey identifies an odontogram location: either an FDI tooth number
// ("11".."48" permanent, "51".."85" primary) or one of the Area keys.
type ZoneKey string

// Area describes one of the general mouth areas that are not a single tooth.
type Area struct {
	Key   ZoneKey
	Label string
}

const (
	ZoneWholeMouth    ZoneKey = "whole_mouth"
	ZoneUpperArch     ZoneKey = "upper_arch"
	ZoneLowerArch     ZoneKey = "lower_arch"
	ZoneSupernumerary ZoneKey = "supernumerary"
)

// AllAreas lists the area keys in display order.
var AllAreas = []Area{
	{Key: ZoneWholeMouth, Label: "Whole mouth"},
	{Key: ZoneUpperArch, Label: "Upper arch"},
	{Key: ZoneLowerArch, Label: "Lower arch"},
	{Key: ZoneSupernumerary, Label: "Supernumerary tooth"},
}

func areaIndex(key ZoneKey) int {
	for i, a := range AllAreas {
		if a.Key == key {
			return i
		}
	}
	return -1
}

// IsAreaKey reports whether key names a general area rather than a tooth.
func IsAreaKey(key ZoneKey) bool {
	return areaIndex(key) >= 0
}

// DisplayName returns the area label for area keys and the raw tooth number otherwise.
func DisplayName(key ZoneKey) string {
	if i := areaIndex(key); i >= 0 {
		return AllAreas[i].Label
	}
	return string(key)
}

// IsToothKey reports whether key is a valid FDI tooth number.
func IsToothKey(key ZoneKey) bool {
	if len(key) != 2 {
		return false
	}
	quadrant, tooth := key[0]-'0', key[1]-'0'
	switch {
	case quadrant >= 1 && quadrant <= 4:
		return tooth >= 1 && tooth <= 8
	case quadrant >= 5 && quadrant <= 8:
		return tooth >= 1 && tooth <= 5
	}
	return false
}

// IsPrimaryTooth reports whether key is a deciduous (quadrants 5-8) tooth.
func IsPrimaryTooth(key ZoneKey) bool {
	return IsToothKey(key) && key[0] >= '5'
}

// ValidateZoneKey returns a ValidationError unless key is an area key or an FDI tooth.
func ValidateZoneKey(key ZoneKey) error {
	if IsAreaKey(key) || IsToothKey(key) {
		return nil
	}
	return apperr.Validation("zone", "unknown zone key %q", string(key))
}

// SortZoneKeys orders keys for display: areas first in AllAreas order, then
// teeth ascending by number. Unknown keys sort last, lexically.
func SortZoneKeys(keys []ZoneKey) {
	rank := func(k ZoneKey) (int, int) {
		if i := areaIndex(k); i >= 0 {
			return 0, i
		}
		if IsToothKey(k) {
			n, _ := strconv.Atoi(string(k))
			return 1, n
		}
		return 2, 0
	}
	sort.SliceStable(keys, func(i, j int) bool {
		gi, ni := rank(keys[i])
		gj, nj := rank(keys[j])
		if gi != gj {
			return gi < gj
		}
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
}
