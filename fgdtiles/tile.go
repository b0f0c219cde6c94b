package fgdtiles

import (
	"math"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulsmith/gogeos/geos"
	"github.com/rubenv/fgdtiles/xyz"
)

// TileFunc receives one clipped piece of a geometry.
type TileFunc func(tile xyz.Tile, piece *geojson.Geometry) error

var geosTypes = map[geojson.GeometryType]geos.GeometryType{
	geojson.GeometryPoint:      geos.POINT,
	geojson.GeometryLineString: geos.LINESTRING,
	geojson.GeometryPolygon:    geos.POLYGON,
}

func envelopeGeos(x, y, z int) (*geos.Geometry, error) {
	nw, se := xyz.TileEnvelope(x, y, z)
	return geos.NewPolygon([]geos.Coord{
		geos.NewCoord(nw.Lng, nw.Lat),
		geos.NewCoord(se.Lng, nw.Lat),
		geos.NewCoord(se.Lng, se.Lat),
		geos.NewCoord(nw.Lng, se.Lat),
		geos.NewCoord(nw.Lng, nw.Lat),
	})
}

// TileGeometry clips g against every tile at zoom z that its bounding box
// touches and calls fn once per resulting piece, in ascending x then y order.
// Pieces whose type differs from the input type are dropped. Errors returned
// by fn stop the iteration and are returned unchanged.
func TileGeometry(g *geojson.Geometry, z int, fn TileFunc) error {
	want, ok := geosTypes[g.Type]
	if !ok {
		return &ClipError{Err: &UnknownTypeError{Type: string(g.Type)}}
	}

	b, err := boundsOf(g)
	if err != nil {
		return &ClipError{Err: err}
	}

	fx0, fy0, err := xyz.ToTileFraction(b.MinLng, b.MinLat, z)
	if err != nil {
		return err
	}
	fx1, fy1, err := xyz.ToTileFraction(b.MaxLng, b.MaxLat, z)
	if err != nil {
		return err
	}

	geom, err := GeometryToGeos(g)
	if err != nil {
		return &ClipError{Err: err}
	}

	// Tile y grows southwards, so the northern edge gives the lowest row.
	// Parts beyond the grid, such as polar caps, are cut off.
	last := 1<<uint(z) - 1
	x0, x1 := clampIndex(fx0, last), clampIndex(fx1, last)
	y0, y1 := clampIndex(fy1, last), clampIndex(fy0, last)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			tile := xyz.Tile{Z: z, X: x, Y: y}

			env, err := envelopeGeos(x, y, z)
			if err != nil {
				return &ClipError{Tile: &tile, Err: err}
			}

			clipped, err := geom.Intersection(env)
			if err != nil {
				return &ClipError{Tile: &tile, Err: err}
			}

			err = emitPieces(tile, want, clipped, fn)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func clampIndex(f float64, last int) int {
	i := int(math.Floor(f))
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}
	return i
}

func emitPieces(tile xyz.Tile, want geos.GeometryType, g *geos.Geometry, fn TileFunc) error {
	empty, err := g.IsEmpty()
	if err != nil {
		return &ClipError{Tile: &tile, Err: err}
	}
	if empty {
		return nil
	}

	t, err := g.Type()
	if err != nil {
		return &ClipError{Tile: &tile, Err: err}
	}

	switch t {
	case want:
		piece, err := GeometryFromGeos(g)
		if err != nil {
			return &ClipError{Tile: &tile, Err: err}
		}
		return fn(tile, piece)
	case geos.MULTIPOINT, geos.MULTILINESTRING, geos.MULTIPOLYGON, geos.GEOMETRYCOLLECTION:
		n, err := g.NGeometry()
		if err != nil {
			return &ClipError{Tile: &tile, Err: err}
		}
		for i := 0; i < n; i++ {
			part, err := g.Geometry(i)
			if err != nil {
				return &ClipError{Tile: &tile, Err: err}
			}
			err = emitPieces(tile, want, part, fn)
			if err != nil {
				return err
			}
		}
	}

	// Degenerate result of another type, e.g. a polygon touching the tile
	// along an edge only.
	return nil
}
