package s52

// ContourConfig carries the mariner-configurable depth thresholds (all
// in metres) that drive Phase A classification. Constraint
// shallow <= safety <= deep is expected but not enforced.
type ContourConfig struct {
	Safety       float64
	Shallow      float64
	Deep         float64
	HazardBuffer float64
}

// DefaultContourConfig is the process default used when a request
// carries no mariner parameters.
var DefaultContourConfig = ContourConfig{
	Safety:       10,
	Shallow:      5,
	Deep:         20,
	HazardBuffer: 2,
}

// SymbolEntry describes a symbol atlas entry used to compute hazard
// icon pixel offsets.
type SymbolEntry struct {
	Width, Height      float64
	AnchorX, AnchorY   float64
	Rotatable          bool
}

// Palette maps colour tokens (DEPVS, DEPDW, CHBLK, ...) to whatever the
// renderer needs them for; the classifier only cares whether a token is
// present, not its value.
type Palette map[string]string
