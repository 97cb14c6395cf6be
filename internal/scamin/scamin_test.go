package scamin

import "testing"

func TestScaminToZoomTableEdges(t *testing.T) {
	if z := ScaminToZoom(50_000_000, true); z != 0 {
		t.Errorf("at 50_000_000 got zoom %d, want 0", z)
	}
	if z := ScaminToZoom(2_000, true); z != 16 {
		t.Errorf("at 2_000 got zoom %d, want 16", z)
	}
	if z := ScaminToZoom(1, true); z != 16 {
		t.Errorf("below smallest scale got zoom %d, want clamp to 16", z)
	}
	if z := ScaminToZoom(0, false); z != 0 {
		t.Errorf("absent value got zoom %d, want 0", z)
	}
}

func TestScaminToZoomMonotonic(t *testing.T) {
	// As the input scale denominator decreases, the resulting zoom must
	// be non-decreasing.
	inputs := []float64{60_000_000, 20_000_000, 6_000_000, 700_000, 90_000, 8_000, 2_000, 500}
	prev := -1
	for _, in := range inputs {
		z := ScaminToZoom(in, true)
		if z < prev {
			t.Errorf("zoom decreased as scale decreased: %d after %d at input %.0f", z, prev, in)
		}
		prev = z
	}
}

func TestApplyScaminNoRuleDefaultsTrue(t *testing.T) {
	LoadRules(map[string]Rule{})
	if !ApplyScamin("DEPARE", 12) {
		t.Error("expected true with no rule table")
	}
}

func TestApplyScaminWithRule(t *testing.T) {
	LoadRules(map[string]Rule{"SOUNDG": {ZMin: 10, ZMax: 16}})
	defer LoadRules(map[string]Rule{})

	if ApplyScamin("SOUNDG", 9) {
		t.Error("expected false below zmin")
	}
	if !ApplyScamin("SOUNDG", 10) {
		t.Error("expected true at zmin")
	}
	if !ApplyScamin("SOUNDG", 16) {
		t.Error("expected true at zmax")
	}
	if ApplyScamin("SOUNDG", 17) {
		t.Error("expected false above zmax")
	}
}

func TestZoomBandFor(t *testing.T) {
	if ZoomBandFor("DEPARE") != "overview" {
		t.Errorf("DEPARE band = %q, want overview", ZoomBandFor("DEPARE"))
	}
	if ZoomBandFor("UNKNOWNXYZ") != "" {
		t.Errorf("unknown class band = %q, want empty", ZoomBandFor("UNKNOWNXYZ"))
	}
}
