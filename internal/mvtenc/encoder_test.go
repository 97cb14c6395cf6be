package mvtenc

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/chartsrv/chartsrv/internal/feature"
)

func TestEncodeEmptyIsSmall(t *testing.T) {
	data, err := Encode(0, 0, 0, NewLayerSet())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) >= 16 {
		t.Errorf("expected empty-input tile under 16 bytes, got %d", len(data))
	}
}

func TestObjlCodeReadsAttachedCodeNotAcronym(t *testing.T) {
	f := feature.Feature{
		OBJL:  "DEPARE",
		Attrs: feature.Attrs{"objlCode": feature.IntValue(42)},
	}
	if got := objlCode(f); got != 42 {
		t.Errorf("objlCode = %d, want 42", got)
	}

	if got := objlCode(feature.Feature{OBJL: "DEPARE"}); got != 0 {
		t.Errorf("objlCode with no attached code = %d, want 0", got)
	}
}

func TestEncodeWithFeatures(t *testing.T) {
	ls := NewLayerSet()
	ls.Add("water", feature.Feature{
		ID:   "depare-1",
		OBJL: "DEPARE",
		Geom: orb.Polygon{orb.Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}},
		Attrs: feature.Attrs{
			"DRVAL1": feature.NumValue(0),
			"DRVAL2": feature.NumValue(5),
		},
		Hints: feature.Hints{IsShallow: true, DepthBand: "VS", FillToken: "DEPVS"},
	})

	data, err := Encode(0, 0, 0, ls)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty tile bytes")
	}
}
