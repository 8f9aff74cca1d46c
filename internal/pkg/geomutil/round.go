package geomutil

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CoordinatePrecision is the decimal precision kept for every coordinate
// tuple in optimized vector artifacts.
const CoordinatePrecision = 6

// RoundGeoJSON parses vector-text bytes, rounds every coordinate tuple to
// CoordinatePrecision decimals and re-serializes. Accepts a
// FeatureCollection, a single Feature or a bare geometry.
func RoundGeoJSON(data []byte) ([]byte, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			f.Geometry = RoundGeometry(f.Geometry)
		}
		return fc.MarshalJSON()
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil {
		f.Geometry = RoundGeometry(f.Geometry)
		return f.MarshalJSON()
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	rounded := geojson.NewGeometry(RoundGeometry(g.Geometry()))
	return rounded.MarshalJSON()
}

// RoundGeometry walks any orb geometry and rounds every coordinate.
func RoundGeometry(g orb.Geometry) orb.Geometry {
	switch geom := g.(type) {
	case orb.Point:
		return roundPoint(geom)
	case orb.MultiPoint:
		for i, p := range geom {
			geom[i] = roundPoint(p)
		}
		return geom
	case orb.LineString:
		for i, p := range geom {
			geom[i] = roundPoint(p)
		}
		return geom
	case orb.MultiLineString:
		for i, ls := range geom {
			geom[i] = RoundGeometry(ls).(orb.LineString)
		}
		return geom
	case orb.Ring:
		for i, p := range geom {
			geom[i] = roundPoint(p)
		}
		return geom
	case orb.Polygon:
		for i, r := range geom {
			geom[i] = RoundGeometry(r).(orb.Ring)
		}
		return geom
	case orb.MultiPolygon:
		for i, p := range geom {
			geom[i] = RoundGeometry(p).(orb.Polygon)
		}
		return geom
	case orb.Collection:
		for i, sub := range geom {
			geom[i] = RoundGeometry(sub)
		}
		return geom
	case orb.Bound:
		geom.Min = roundPoint(geom.Min)
		geom.Max = roundPoint(geom.Max)
		return geom
	default:
		return g
	}
}

func roundPoint(p orb.Point) orb.Point {
	return orb.Point{roundCoord(p[0]), roundCoord(p[1])}
}

func roundCoord(v float64) float64 {
	scale := math.Pow10(CoordinatePrecision)
	return math.Round(v*scale) / scale
}
