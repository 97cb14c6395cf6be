// Package s52 implements a simplified subset of the IHO S-52 conditional
// symbology rules: per-feature styling hints (Phase A) plus tile-wide
// safety-contour promotion (Phase B).
package s52

import (
	"hash/crc32"
	"math"
	"strconv"
	"strings"

	"github.com/chartsrv/chartsrv/internal/feature"
)

// Classifier holds the palette/symbol atlas a deployment is configured
// with; the depth thresholds are passed per call since they vary per
// request (mariner settings), not per process.
type Classifier struct {
	Colors  Palette
	Symbols map[string]SymbolEntry
}

// New builds a Classifier over a fixed colour palette and symbol atlas.
func New(colors Palette, symbols map[string]SymbolEntry) *Classifier {
	if colors == nil {
		colors = Palette{}
	}
	if symbols == nil {
		symbols = map[string]SymbolEntry{}
	}
	return &Classifier{Colors: colors, Symbols: symbols}
}

// ClassifyFeature runs Phase A on a single feature, returning the Hints
// to attach. It is a pure function of (objl, attrs, cfg): calling it
// twice with the same inputs yields the same Hints (idempotence).
func (c *Classifier) ClassifyFeature(objl string, attrs feature.Attrs, cfg ContourConfig) feature.Hints {
	switch objl {
	case "DEPARE":
		return c.classifyDepare(attrs, cfg)
	case "DEPCNT":
		return classifyDepcnt(attrs, cfg)
	case "SOUNDG":
		return classifySoundg(attrs, cfg)
	case "OBSTRN", "WRECKS", "UWTROC", "ROCKS":
		return c.classifyHazard(objl, attrs, cfg)
	case "CBLARE", "PIPARE":
		return classifyLinePattern(attrs)
	default:
		if isNavaid(objl) {
			return classifyNavaid(objl, attrs)
		}
		return feature.Hints{}
	}
}

func isNavaid(objl string) bool {
	return strings.HasPrefix(objl, "BCN") || strings.HasPrefix(objl, "BOY")
}

func (c *Classifier) classifyDepare(attrs feature.Attrs, cfg ContourConfig) feature.Hints {
	d1, ok1 := attrs.Float("DRVAL1")
	d2, ok2 := attrs.Float("DRVAL2")

	var values []float64
	if ok1 {
		values = append(values, d1)
	}
	if ok2 {
		values = append(values, d2)
	}

	if len(values) == 0 {
		return feature.Hints{DepthBand: "DW"}
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	h := feature.Hints{}
	h.IsShallow = min < cfg.Safety

	if h.IsShallow {
		h.FillToken = "DEPIT1"
		if _, ok := c.Colors["DEPVS"]; ok {
			h.FillToken = "DEPVS"
		}
	} else if max >= cfg.Safety {
		h.FillToken = "DEPDW"
	}

	switch {
	case min < cfg.Shallow:
		h.DepthBand = "VS"
	case max >= cfg.Deep:
		h.DepthBand = "DW"
	default:
		h.DepthBand = "IM"
	}

	return h
}

func classifyDepcnt(attrs feature.Attrs, cfg ContourConfig) feature.Hints {
	valdco, _ := attrs.Float("VALDCO")
	quapos, _ := attrs.Float("QUAPOS")

	h := feature.Hints{}
	h.IsSafety = valdco == cfg.Safety
	h.IsLowAcc = quapos >= 2
	if h.IsSafety {
		h.Role = "safety"
	} else {
		h.Role = "normal"
	}
	return h
}

func classifySoundg(attrs feature.Attrs, cfg ContourConfig) feature.Hints {
	valsou, ok := attrs.Float("VALSOU")
	return feature.Hints{IsShallow: ok && valsou < cfg.Safety}
}

func (c *Classifier) classifyHazard(objl string, attrs feature.Attrs, cfg ContourConfig) feature.Hints {
	valsou, hasValsou := attrs.Float("VALSOU")
	shallow := hasValsou && valsou < cfg.Safety

	watlevStr, _ := attrs.String("WATLEV")
	watlev, _ := strconv.Atoi(watlevStr)
	drying := watlev == 1 || watlev == 2

	dangerous := shallow || drying
	if !dangerous {
		return feature.Hints{}
	}

	var icon string
	switch {
	case objl == "WRECKS" && shallow:
		icon = "DANGER51"
	case objl == "ROCKS" && !drying:
		icon = "ROCKS01"
	default:
		icon = "ISODGR51"
	}

	h := feature.Hints{HazardIcon: icon, HazardBuffer: cfg.HazardBuffer}
	if watlevStr != "" {
		h.HazardWatlev = watlevStr
	}

	if sym, ok := c.Symbols[icon]; ok {
		h.HazardOffX = math.Round(sym.Width/2 - sym.AnchorX)
		h.HazardOffY = math.Round(sym.Height/2 - sym.AnchorY)
	}

	return h
}

func classifyNavaid(objl string, attrs feature.Attrs) feature.Hints {
	h := feature.Hints{}

	catAttr := firstAttrStartingWith(attrs, "CAT")
	h.NavaidIcon = objl + "_" + catAttr

	if orient, ok := attrs.Float("ORIENT"); ok {
		h.Orient = orient
		h.HasOrient = true
	}

	if name, ok := attrs.String("OBJNAM"); ok && name != "" {
		h.Name = name
	} else if name, ok := attrs.String("NOBJNM"); ok {
		h.Name = name
	}

	return h
}

func firstAttrStartingWith(attrs feature.Attrs, prefix string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	// Deterministic: sort so repeated calls over the same map agree.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			if v, ok := attrs.String(k); ok {
				return v
			}
		}
	}
	return ""
}

func classifyLinePattern(attrs feature.Attrs) feature.Hints {
	v, ok := attrs.String("lnstl")
	if !ok {
		return feature.Hints{}
	}
	switch v {
	case "dash", "dot", "dashdot":
		return feature.Hints{LinePattern: v}
	default:
		return feature.Hints{}
	}
}

// PromotionStrategy selects which DEPCNT is promoted to the safety
// contour when none is already marked isSafety.
type PromotionStrategy int

const (
	// DeeperFirst picks the DEPCNT nearest to cfg.Safety preferring the
	// deeper side first, falling back to the shallowest otherwise. This
	// is the default promotion strategy.
	DeeperFirst PromotionStrategy = iota
	// NearestEitherSide picks the absolute-nearest DEPCNT regardless of
	// which side of cfg.Safety it falls on, for bit-for-bit parity with
	// artefacts produced by the alternate historical rule.
	NearestEitherSide
)

// PromoteSafetyContour runs Phase B over the classified DEPCNT subset
// (pointers to the tile's DEPCNT features, already Phase-A
// classified). If none has IsSafety set, it mutates exactly one feature
// in place, selected by strategy, setting IsSafety=true, Role="safety".
// A no-op if feats is empty or one is already marked safety.
func PromoteSafetyContour(feats []*feature.Feature, cfg ContourConfig, strategy PromotionStrategy) {
	if len(feats) == 0 {
		return
	}
	for _, f := range feats {
		if f.Hints.IsSafety {
			return
		}
	}

	var chosen *feature.Feature
	switch strategy {
	case NearestEitherSide:
		bestDiff := math.Inf(1)
		for _, f := range feats {
			valdco, _ := f.Attrs.Float("VALDCO")
			diff := math.Abs(valdco - cfg.Safety)
			if diff < bestDiff {
				bestDiff = diff
				chosen = f
			}
		}
	default: // DeeperFirst
		bestDeeperDiff := math.Inf(1)
		var deepest *feature.Feature
		bestShallowDiff := math.Inf(1)
		var shallowest *feature.Feature

		for _, f := range feats {
			valdco, _ := f.Attrs.Float("VALDCO")
			diff := math.Abs(valdco - cfg.Safety)
			if valdco > cfg.Safety {
				if diff < bestDeeperDiff {
					bestDeeperDiff = diff
					deepest = f
				}
			} else {
				if diff < bestShallowDiff {
					bestShallowDiff = diff
					shallowest = f
				}
			}
		}
		if deepest != nil {
			chosen = deepest
		} else {
			chosen = shallowest
		}
	}

	if chosen != nil {
		chosen.Hints.IsSafety = true
		chosen.Hints.Role = "safety"
	}
}

// BuildLightCharacter composes the canonical light-character string
// "LITCHR SIGGRP COLOUR[0] SIGPER VALNMR [SECTR1-SECTR2]" and returns a
// deterministic CRC32 (IEEE) over it, order-independent since the
// composition order is fixed regardless of map iteration order.
func BuildLightCharacter(attrs feature.Attrs) uint32 {
	litchr, _ := attrs.String("LITCHR")
	siggrp, _ := attrs.String("SIGGRP")

	colour0 := ""
	if colourStr, ok := attrs.String("COLOUR"); ok && colourStr != "" {
		parts := strings.Split(colourStr, ",")
		colour0 = strings.TrimSpace(parts[0])
	}

	sigper, _ := attrs.String("SIGPER")
	valnmr, _ := attrs.String("VALNMR")

	sector := ""
	s1, ok1 := attrs.String("SECTR1")
	s2, ok2 := attrs.String("SECTR2")
	if ok1 && ok2 {
		sector = s1 + "-" + s2
	}

	text := strings.TrimSpace(strings.Join([]string{litchr, siggrp, colour0, sigper, valnmr, sector}, " "))
	return crc32.ChecksumIEEE([]byte(text))
}
