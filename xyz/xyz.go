// Package xyz converts between geographic degrees and spherical web mercator
// XYZ tile coordinates.
package xyz

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type LngLat struct {
	Lng float64
	Lat float64
}

// ProjectionDomainError is returned for coordinates the projection is
// undefined for, such as latitudes at or beyond the poles, and by TileOf for
// points outside the tile grid.
type ProjectionDomainError struct {
	Lng, Lat float64
}

func (e *ProjectionDomainError) Error() string {
	return fmt.Sprintf("cannot project lng=%f lat=%f onto the tile grid", e.Lng, e.Lat)
}

func sec(x float64) float64 {
	return 1.0 / math.Cos(x)
}

// ToTileFraction returns the fractional tile position of a point at zoom z.
func ToTileFraction(lng, lat float64, z int) (float64, float64, error) {
	if math.IsNaN(lng) || math.IsInf(lng, 0) || math.IsNaN(lat) || math.Abs(lat) >= 90 {
		return 0, 0, &ProjectionDomainError{Lng: lng, Lat: lat}
	}

	n := math.Exp2(float64(z))
	rad := lat * math.Pi / 180
	x := n * ((lng + 180) / 360)
	y := n * (1 - math.Log(math.Tan(rad)+sec(rad))/math.Pi) / 2
	return x, y, nil
}

// ToLngLat is the inverse of ToTileFraction. x and y may be fractional.
func ToLngLat(x, y float64, z int) LngLat {
	n := math.Exp2(float64(z))
	rad := math.Atan(math.Sinh(math.Pi * (1 - 2*y/n)))
	return LngLat{
		Lng: 360*x/n - 180,
		Lat: rad * 180 / math.Pi,
	}
}

// TileEnvelope returns the north-west and south-east corners of a tile.
func TileEnvelope(x, y, z int) (LngLat, LngLat) {
	return ToLngLat(float64(x), float64(y), z), ToLngLat(float64(x+1), float64(y+1), z)
}

type Tile struct {
	Z, X, Y int
}

// TileOf returns the tile containing the given point. Points north or south
// of the mercator limit (about ±85.05°) or east of the antimeridian have no
// tile.
func TileOf(lng, lat float64, z int) (Tile, error) {
	x, y, err := ToTileFraction(lng, lat, z)
	if err != nil {
		return Tile{}, err
	}

	tile := Tile{Z: z, X: int(math.Floor(x)), Y: int(math.Floor(y))}
	if !tile.Valid() {
		return Tile{}, &ProjectionDomainError{Lng: lng, Lat: lat}
	}
	return tile, nil
}

func (t Tile) Path() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

func (t Tile) String() string {
	return t.Path()
}

func (t Tile) Envelope() (LngLat, LngLat) {
	return TileEnvelope(t.X, t.Y, t.Z)
}

func (t Tile) Valid() bool {
	n := 1 << uint(t.Z)
	return t.Z >= 0 && t.X >= 0 && t.Y >= 0 && t.X < n && t.Y < n
}

// ParsePath parses "z/x/y", optionally followed by a file extension.
func ParsePath(path string) (Tile, error) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}

	parts := strings.Split(path, "/")
	if len(parts) != 3 {
		return Tile{}, fmt.Errorf("Bad tile path: %q", path)
	}

	v := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Tile{}, fmt.Errorf("Bad tile path: %q", path)
		}
		v[i] = n
	}

	t := Tile{Z: v[0], X: v[1], Y: v[2]}
	if !t.Valid() {
		return Tile{}, fmt.Errorf("Tile out of range: %q", path)
	}
	return t, nil
}
