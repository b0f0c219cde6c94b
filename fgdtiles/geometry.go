package fgdtiles

import (
	"fmt"
	"math"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulsmith/gogeos/geos"
)

func toGeosCoords(points [][]float64) []geos.Coord {
	coords := make([]geos.Coord, 0, len(points))
	for _, p := range points {
		coords = append(coords, geos.NewCoord(p[0], p[1]))
	}
	return coords
}

func fromGeosCoords(coords []geos.Coord) [][]float64 {
	points := make([][]float64, len(coords))
	for i, c := range coords {
		points[i] = []float64{c.X, c.Y}
	}
	return points
}

func GeometryToGeos(g *geojson.Geometry) (*geos.Geometry, error) {
	switch g.Type {
	case geojson.GeometryPoint:
		if len(g.Point) < 2 {
			return nil, fmt.Errorf("Bad point: %v", g.Point)
		}
		return geos.NewPoint(geos.NewCoord(g.Point[0], g.Point[1]))
	case geojson.GeometryLineString:
		return geos.NewLineString(toGeosCoords(g.LineString)...)
	case geojson.GeometryPolygon:
		if len(g.Polygon) == 0 {
			return nil, fmt.Errorf("Polygon without rings")
		}
		shell := toGeosCoords(g.Polygon[0])
		holes := make([][]geos.Coord, 0, len(g.Polygon)-1)
		for _, ring := range g.Polygon[1:] {
			holes = append(holes, toGeosCoords(ring))
		}
		return geos.NewPolygon(shell, holes...)
	default:
		return nil, fmt.Errorf("Unknown geometry type: %v", g.Type)
	}
}

func GeometryFromGeos(geom *geos.Geometry) (*geojson.Geometry, error) {
	t, err := geom.Type()
	if err != nil {
		return nil, err
	}

	switch t {
	case geos.POINT:
		c, err := geom.Coords()
		if err != nil {
			return nil, err
		}
		if len(c) != 1 {
			return nil, fmt.Errorf("Bad point: %v", c)
		}
		return geojson.NewPointGeometry([]float64{c[0].X, c[0].Y}), nil
	case geos.LINESTRING:
		c, err := geom.Coords()
		if err != nil {
			return nil, err
		}
		return geojson.NewLineStringGeometry(fromGeosCoords(c)), nil
	case geos.POLYGON:
		shell, err := geom.Shell()
		if err != nil {
			return nil, err
		}
		c, err := shell.Coords()
		if err != nil {
			return nil, err
		}

		holes, err := geom.Holes()
		if err != nil {
			return nil, err
		}

		rings := make([][][]float64, len(holes)+1)
		rings[0] = fromGeosCoords(c)
		for i, h := range holes {
			c, err := h.Coords()
			if err != nil {
				return nil, err
			}
			rings[i+1] = fromGeosCoords(c)
		}
		return geojson.NewPolygonGeometry(rings), nil
	default:
		return nil, fmt.Errorf("Unknown geometry type: %v", t)
	}
}

type bounds struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
}

func (b *bounds) extend(p []float64) {
	b.MinLng = math.Min(b.MinLng, p[0])
	b.MinLat = math.Min(b.MinLat, p[1])
	b.MaxLng = math.Max(b.MaxLng, p[0])
	b.MaxLat = math.Max(b.MaxLat, p[1])
}

func boundsOf(g *geojson.Geometry) (bounds, error) {
	b := bounds{
		MinLng: math.Inf(1),
		MinLat: math.Inf(1),
		MaxLng: math.Inf(-1),
		MaxLat: math.Inf(-1),
	}

	var points [][]float64
	switch g.Type {
	case geojson.GeometryPoint:
		points = [][]float64{g.Point}
	case geojson.GeometryLineString:
		points = g.LineString
	case geojson.GeometryPolygon:
		// Holes lie within the exterior ring
		if len(g.Polygon) > 0 {
			points = g.Polygon[0]
		}
	default:
		return b, fmt.Errorf("Unknown geometry type: %v", g.Type)
	}

	for _, p := range points {
		if len(p) < 2 {
			return b, fmt.Errorf("Bad coordinate: %v", p)
		}
		b.extend(p)
	}
	if len(points) == 0 {
		return b, fmt.Errorf("Empty %s", g.Type)
	}
	return b, nil
}
