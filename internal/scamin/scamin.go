// Package scamin implements the S-57 SCAMIN scale-denominator-to-zoom
// table and per-object-class zoom-band and SCAMIN rules.
package scamin

import (
	"math"
	"sort"
)

// scaleToZoom maps an S-57 scale denominator to the zoom level at which
// the feature should start being shown, listed from the largest scale
// denominator down. Ported verbatim from the reference converter's
// _SCAMIN_ZOOM_MAP.
var scaleToZoom = map[int]int{
	50_000_000: 0,
	20_000_000: 2,
	12_000_000: 3,
	6_000_000:  4,
	3_000_000:  5,
	1_500_000:  6,
	700_000:    7,
	350_000:    8,
	180_000:    9,
	90_000:     10,
	45_000:     11,
	22_000:     12,
	12_000:     13,
	8_000:      14,
	4_000:      15,
	2_000:      16,
}

// sortedScales holds scaleToZoom's keys sorted descending, computed once.
var sortedScales = func() []int {
	scales := make([]int, 0, len(scaleToZoom))
	for s := range scaleToZoom {
		scales = append(scales, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scales)))
	return scales
}()

const maxZoom = 16

// ScaminToZoom returns the zoom at which a SCAMIN value of v should
// start being shown. It walks the table from the largest scale
// denominator down, returning the zoom of the first entry v is greater
// than or equal to. A value below the smallest table entry clamps to
// maxZoom; an absent value (present=false) or a non-finite v yields
// zoom 0.
func ScaminToZoom(v float64, present bool) int {
	if !present || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	for _, scale := range sortedScales {
		if v >= float64(scale) {
			return scaleToZoom[scale]
		}
	}
	return maxZoom
}

// Rule is a per-object-class SCAMIN zoom band override.
type Rule struct {
	ZMin, ZMax int
}

// rules holds per-OBJL SCAMIN band overrides; empty by default, since
// most classes rely solely on their own SCAMIN attribute via
// ScaminToZoom. Populated via LoadRules for deployments that carry a
// class-specific override table.
var rules = map[string]Rule{}

// LoadRules replaces the active per-class rule table.
func LoadRules(r map[string]Rule) {
	rules = r
}

// ApplyScamin reports whether objl should be visible at zoom z. With no
// rule for objl, it is always visible (true); with a rule, visible iff
// zmin <= z <= zmax.
func ApplyScamin(objl string, z int) bool {
	rule, ok := rules[objl]
	if !ok {
		return true
	}
	return rule.ZMin <= z && z <= rule.ZMax
}

// bands partitions object classes into portrayal bands (overview,
// harbor, ...), mirroring the CM93 schema's band table.
var bands = map[string]string{
	"LNDARE": "overview",
	"DEPARE": "overview",
	"COALNE": "overview",
	"DEPCNT": "general",
	"SOUNDG": "harbor",
	"OBSTRN": "harbor",
	"WRECKS": "harbor",
	"UWTROC": "harbor",
	"ROCKS":  "harbor",
	"LIGHTS": "general",
	"BCNLAT": "harbor",
	"BCNSPP": "harbor",
	"BOYLAT": "harbor",
	"BOYSPP": "harbor",
	"CBLARE": "general",
	"PIPARE": "general",
}

// ZoomBandFor returns the portrayal band for objl, or "" if the class
// is not assigned one.
func ZoomBandFor(objl string) string {
	return bands[objl]
}

// FeatureVisible combines a feature's own SCAMIN attribute (if present)
// with the per-class band rule: a feature with an explicit SCAMIN is
// gated by ScaminToZoom first, then the class rule still applies.
func FeatureVisible(objl string, scaminValue float64, hasScamin bool, z int) bool {
	if hasScamin && z < ScaminToZoom(scaminValue, true) {
		return false
	}
	return ApplyScamin(objl, z)
}
