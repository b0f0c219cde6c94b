// Package meshcode decodes Japanese standard grid square codes (the 6 digit
// second and 8 digit third order meshes) into geographic cells.
package meshcode

import (
	"errors"
	"fmt"

	"github.com/rubenv/fgdtiles/xyz"
)

const (
	// Third order mesh cell size in degrees.
	CellWidth  = 1.0 / 80
	CellHeight = 2.0 / 3 / 80
)

var ErrNotSupported = errors.New("meshcode: only 8 digit codes have a known cell size")

type UnsupportedLengthError struct {
	Code string
}

func (e *UnsupportedLengthError) Error() string {
	return fmt.Sprintf("meshcode: unsupported length %d for %q (must be 6 or 8)", len(e.Code), e.Code)
}

type InvalidCodeError struct {
	Code string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("meshcode: %q contains non-digit characters", e.Code)
}

type Cell struct {
	TopLeft xyz.LngLat
	Width   float64
	Height  float64
}

func digits(code string) ([]float64, error) {
	d := make([]float64, len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return nil, &InvalidCodeError{Code: code}
		}
		d[i] = float64(c - '0')
	}
	return d, nil
}

// Decode returns the north-west corner of the mesh. The reported cell size is
// that of a third order mesh regardless of the code length.
func Decode(code string) (Cell, error) {
	if len(code) != 6 && len(code) != 8 {
		return Cell{}, &UnsupportedLengthError{Code: code}
	}

	d, err := digits(code)
	if err != nil {
		return Cell{}, err
	}

	lat1 := d[0]*10 + d[1]
	lng1 := d[2]*10 + d[3]

	var lng, lat float64
	switch len(code) {
	case 6:
		lng = lng1 + d[5]/8 + 100
		lat = (lat1 + (d[4]+1)/8) * 2 / 3
	case 8:
		lng = lng1 + d[5]/8 + d[7]/80 + 100
		lat = (lat1 + d[4]/8 + (d[6]+1)/80) * 2 / 3
	}

	return Cell{
		TopLeft: xyz.LngLat{Lng: lng, Lat: lat},
		Width:   CellWidth,
		Height:  CellHeight,
	}, nil
}

// Width returns the longitudinal extent of a mesh, 45 seconds.
func Width(code string) (float64, error) {
	if len(code) != 8 {
		return 0, ErrNotSupported
	}
	return 45.0 / 60 / 60, nil
}

// Height returns the latitudinal extent of a mesh, 30 seconds.
func Height(code string) (float64, error) {
	if len(code) != 8 {
		return 0, ErrNotSupported
	}
	return 30.0 / 60 / 60, nil
}
