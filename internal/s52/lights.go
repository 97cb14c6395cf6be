package s52

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/chartsrv/chartsrv/internal/feature"
)

// nmToDeg is the conversion factor from nautical miles to degrees of
// latitude/longitude used by the reference light-sector builder.
const nmToDeg = 1.0 / 60.0

// BuildLightSectors builds the sector geometry for a CM93 LIGHTS
// feature: an arc wedge polygon when SECTR1/SECTR2 are both present,
// otherwise a simple range line from the light due north (bearing 0);
// no bearing attribute is read. point is the light's WGS84
// location; VALNMR (nominal range, nautical miles) sets the radius,
// defaulting to 1nm when absent.
func BuildLightSectors(point orb.Point, attrs feature.Attrs) orb.Geometry {
	radius, ok := attrs.Float("VALNMR")
	if !ok || radius <= 0 {
		radius = 1
	}
	radiusDeg := radius * nmToDeg

	sectr1, ok1 := attrs.Float("SECTR1")
	sectr2, ok2 := attrs.Float("SECTR2")
	if !ok1 || !ok2 {
		return orb.LineString{point, arcPoint(point, radiusDeg, 0)}
	}

	return orb.MultiPolygon{arc(point, radiusDeg, sectr1, sectr2)}
}

// arc generates a wedge polygon from startDeg to endDeg (clockwise from
// true north, as S-57 sectors are defined) in 10-degree steps, closing
// back at the light's position.
func arc(center orb.Point, radiusDeg, startDeg, endDeg float64) orb.Polygon {
	if endDeg < startDeg {
		endDeg += 360
	}

	ring := orb.Ring{center}
	const step = 10.0
	for a := startDeg; a < endDeg; a += step {
		ring = append(ring, arcPoint(center, radiusDeg, a))
	}
	ring = append(ring, arcPoint(center, radiusDeg, endDeg))
	ring = append(ring, center)

	return orb.Polygon{ring}
}

func arcPoint(center orb.Point, radiusDeg, bearingDeg float64) orb.Point {
	rad := bearingDeg * math.Pi / 180.0
	dLon := radiusDeg * math.Sin(rad)
	dLat := radiusDeg * math.Cos(rad)
	return orb.Point{center[0] + dLon, center[1] + dLat}
}
