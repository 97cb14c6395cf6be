package feature

import "github.com/paulmach/orb"

// Feature is a single chart object: geometry in WGS84 lon/lat, an S-57
// object-class acronym (OBJL), and a typed attribute bag. Classification
// hints computed by the pre-classifier are layered in via Hints so the
// original attrs stay untouched (idempotence: re-running classification
// overwrites Hints rather than accumulating into attrs).
type Feature struct {
	ID    string
	OBJL  string
	Geom  orb.Geometry
	Attrs Attrs
	Hints Hints
}

// Hints is the classification result attached by the pre-classifier.
// Only the fields relevant to a feature's OBJL are populated; the zero
// value means "not classified".
type Hints struct {
	// DEPARE
	IsShallow bool
	DepthBand string // VS, IM, DW
	FillToken string

	// DEPCNT
	IsSafety bool
	IsLowAcc bool
	Role     string // safety, normal

	// Hazard classes (OBSTRN/WRECKS/UWTROC/ROCKS)
	HazardIcon   string
	HazardOffX   float64
	HazardOffY   float64
	HazardWatlev string
	HazardBuffer float64

	// Navaids (BCN*/BOY*)
	NavaidIcon string
	Orient     float64
	HasOrient  bool
	Name       string

	// CBLARE/PIPARE
	LinePattern string // dash, dot, dashdot

	// CM93 LIGHTS sector/label plane
	LightLabel string
}

// Valid reports whether the feature has the minimum geometry/OBJL
// fields a renderer can act on.
func (f Feature) Valid() bool {
	if f.OBJL == "" {
		return false
	}
	if f.Geom == nil {
		return false
	}
	return true
}
