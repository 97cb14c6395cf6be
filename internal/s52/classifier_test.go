package s52

import (
	"testing"

	"github.com/chartsrv/chartsrv/internal/feature"
)

func cfg() ContourConfig {
	return ContourConfig{Safety: 10, Shallow: 5, Deep: 20, HazardBuffer: 2}
}

func TestClassifyDepareShallowFlip(t *testing.T) {
	c := New(nil, nil)
	attrs := feature.Attrs{"DRVAL1": feature.NumValue(3), "DRVAL2": feature.NumValue(8)}

	below := c.ClassifyFeature("DEPARE", attrs, ContourConfig{Safety: 2, Shallow: 1, Deep: 20})
	if below.IsShallow {
		t.Fatal("expected not shallow when safety below min(DRVAL1,DRVAL2)")
	}

	above := c.ClassifyFeature("DEPARE", attrs, ContourConfig{Safety: 5, Shallow: 1, Deep: 20})
	if !above.IsShallow {
		t.Fatal("expected shallow when safety above min(DRVAL1,DRVAL2)")
	}
}

func TestClassifyDepareFillToken(t *testing.T) {
	c := New(Palette{"DEPVS": "#abc"}, nil)
	attrs := feature.Attrs{"DRVAL1": feature.NumValue(0), "DRVAL2": feature.NumValue(5)}
	h := c.ClassifyFeature("DEPARE", attrs, cfg())
	if h.FillToken != "DEPVS" {
		t.Errorf("fillToken = %q, want DEPVS", h.FillToken)
	}

	c2 := New(Palette{}, nil)
	h2 := c2.ClassifyFeature("DEPARE", attrs, cfg())
	if h2.FillToken != "DEPIT1" {
		t.Errorf("fallback fillToken = %q, want DEPIT1", h2.FillToken)
	}
}

func TestClassifyDepcntSafety(t *testing.T) {
	c := New(nil, nil)
	attrs := feature.Attrs{"VALDCO": feature.NumValue(10), "QUAPOS": feature.NumValue(3)}
	h := c.ClassifyFeature("DEPCNT", attrs, cfg())
	if !h.IsSafety || h.Role != "safety" {
		t.Errorf("expected safety contour, got %+v", h)
	}
	if !h.IsLowAcc {
		t.Errorf("expected isLowAcc true for QUAPOS>=2")
	}
}

func TestClassifySoundgShallow(t *testing.T) {
	c := New(nil, nil)
	shallow := c.ClassifyFeature("SOUNDG", feature.Attrs{"VALSOU": feature.NumValue(2)}, cfg())
	if !shallow.IsShallow {
		t.Error("expected shallow sounding")
	}
	deep := c.ClassifyFeature("SOUNDG", feature.Attrs{"VALSOU": feature.NumValue(50)}, cfg())
	if deep.IsShallow {
		t.Error("expected non-shallow sounding")
	}
}

func TestClassifyHazardIcons(t *testing.T) {
	c := New(nil, nil)

	wreckShallow := c.ClassifyFeature("WRECKS", feature.Attrs{"VALSOU": feature.NumValue(1)}, cfg())
	if wreckShallow.HazardIcon != "DANGER51" {
		t.Errorf("shallow WRECKS icon = %q, want DANGER51", wreckShallow.HazardIcon)
	}

	rockDrying := c.ClassifyFeature("ROCKS", feature.Attrs{"WATLEV": feature.StrValue("1")}, cfg())
	if rockDrying.HazardIcon != "ISODGR51" {
		t.Errorf("drying ROCKS icon = %q, want ISODGR51", rockDrying.HazardIcon)
	}

	rockNotDrying := c.ClassifyFeature("ROCKS", feature.Attrs{"VALSOU": feature.NumValue(1)}, cfg())
	if rockNotDrying.HazardIcon != "ROCKS01" {
		t.Errorf("non-drying ROCKS icon = %q, want ROCKS01", rockNotDrying.HazardIcon)
	}

	safe := c.ClassifyFeature("OBSTRN", feature.Attrs{"VALSOU": feature.NumValue(100)}, cfg())
	if safe.HazardIcon != "" {
		t.Errorf("expected no hazard icon for a deep obstruction, got %q", safe.HazardIcon)
	}
}

func TestClassifyNavaid(t *testing.T) {
	c := New(nil, nil)
	h := c.ClassifyFeature("BCNLAT", feature.Attrs{
		"CATLAM": feature.StrValue("1"),
		"ORIENT": feature.NumValue(90),
		"OBJNAM": feature.StrValue("Outer Buoy"),
	}, cfg())
	if h.NavaidIcon != "BCNLAT_1" {
		t.Errorf("navaidIcon = %q, want BCNLAT_1", h.NavaidIcon)
	}
	if !h.HasOrient || h.Orient != 90 {
		t.Errorf("orient not copied: %+v", h)
	}
	if h.Name != "Outer Buoy" {
		t.Errorf("name = %q, want Outer Buoy", h.Name)
	}
}

func TestClassifyLinePatternReadsLnstl(t *testing.T) {
	c := New(nil, nil)
	h := c.ClassifyFeature("CBLARE", feature.Attrs{"lnstl": feature.StrValue("dash")}, cfg())
	if h.LinePattern != "dash" {
		t.Errorf("linePattern = %q, want dash", h.LinePattern)
	}

	h = c.ClassifyFeature("PIPARE", feature.Attrs{"lnstl": feature.StrValue("solid")}, cfg())
	if h.LinePattern != "" {
		t.Errorf("linePattern = %q, want empty for an unrecognized lnstl value", h.LinePattern)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := New(nil, nil)
	attrs := feature.Attrs{"DRVAL1": feature.NumValue(1), "DRVAL2": feature.NumValue(30)}
	h1 := c.ClassifyFeature("DEPARE", attrs, cfg())
	h2 := c.ClassifyFeature("DEPARE", attrs, cfg())
	if h1 != h2 {
		t.Errorf("classification not idempotent: %+v != %+v", h1, h2)
	}
}

func TestPromoteSafetyContourDeeperFirst(t *testing.T) {
	feats := []*feature.Feature{
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(5)}},
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(12)}},
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(15)}},
	}
	PromoteSafetyContour(feats, cfg(), DeeperFirst)

	safetyCount := 0
	for _, f := range feats {
		if f.Hints.IsSafety {
			safetyCount++
			if f.Attrs.Get("VALDCO").Num != 12 {
				t.Errorf("expected the nearest deeper contour (12) promoted, got %v", f.Attrs.Get("VALDCO"))
			}
		}
	}
	if safetyCount != 1 {
		t.Errorf("expected exactly one safety contour, got %d", safetyCount)
	}
}

func TestPromoteSafetyContourFallsBackShallowest(t *testing.T) {
	feats := []*feature.Feature{
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(3)}},
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(7)}},
	}
	PromoteSafetyContour(feats, cfg(), DeeperFirst)

	for _, f := range feats {
		if f.Hints.IsSafety && f.Attrs.Get("VALDCO").Num != 7 {
			t.Errorf("expected shallowest-of-shallow (7) promoted when none deeper, got %v", f.Attrs.Get("VALDCO"))
		}
	}
}

func TestPromoteSafetyContourNoopWhenAlreadySet(t *testing.T) {
	feats := []*feature.Feature{
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(10)}, Hints: feature.Hints{IsSafety: true, Role: "safety"}},
		{OBJL: "DEPCNT", Attrs: feature.Attrs{"VALDCO": feature.NumValue(20)}},
	}
	PromoteSafetyContour(feats, cfg(), DeeperFirst)
	if feats[1].Hints.IsSafety {
		t.Error("expected no additional promotion when one is already safety")
	}
}

func TestBuildLightCharacterDeterministic(t *testing.T) {
	attrs := feature.Attrs{
		"LITCHR": feature.StrValue("Fl"),
		"SIGGRP": feature.StrValue("(2)"),
		"COLOUR": feature.StrValue("1,3"),
		"SIGPER": feature.StrValue("10"),
		"VALNMR": feature.StrValue("15"),
		"SECTR1": feature.StrValue("10"),
		"SECTR2": feature.StrValue("90"),
	}
	a := BuildLightCharacter(attrs)
	b := BuildLightCharacter(attrs)
	if a != b {
		t.Errorf("BuildLightCharacter not deterministic: %d != %d", a, b)
	}
	if a == 0 {
		t.Error("expected a non-zero checksum")
	}
}
