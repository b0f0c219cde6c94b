package fgdtiles

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rubenv/fgdtiles/meshcode"
	"github.com/rubenv/fgdtiles/xyz"
	"github.com/sirupsen/logrus"
)

// GridShape is the sample layout of an elevation grid within its mesh.
type GridShape struct {
	Columns int
	Rows    int
	DLng    float64
	DLat    float64
}

var (
	grid5m  = GridShape{Columns: 225, Rows: 150, DLng: 1.0 / 80 / 225, DLat: 2.0 / 3 / 80 / 150}
	grid10m = GridShape{Columns: 1125, Rows: 750, DLng: 1.0 / 8 / 1125, DLat: 2.0 / 3 / 8 / 750}
)

// Resolution identifies an elevation product. The A and B variants differ in
// survey provenance only and share their grid.
type Resolution int

const (
	DEM5A Resolution = iota + 1
	DEM5B
	DEM10A
	DEM10B
)

var resolutionNames = map[Resolution]string{
	DEM5A:  "DEM5A",
	DEM5B:  "DEM5B",
	DEM10A: "DEM10A",
	DEM10B: "DEM10B",
}

func (r Resolution) String() string {
	return resolutionNames[r]
}

func (r Resolution) Grid() GridShape {
	switch r {
	case DEM10A, DEM10B:
		return grid10m
	default:
		return grid5m
	}
}

// ParseResolution accepts the type tags used in file names, such as "DEM5A"
// or "dem10b".
func ParseResolution(tag string) (Resolution, bool) {
	for r, name := range resolutionNames {
		if strings.EqualFold(tag, name) {
			return r, true
		}
	}
	return 0, false
}

const (
	tupleListOpen  = "<gml:tupleList>"
	tupleListClose = "</gml:tupleList>"
)

// DEMExtractor emits one point feature per elevation sample of a gridded
// document, placed at the centre of its grid cell.
type DEMExtractor struct {
	resolution Resolution
	grid       GridShape
	topLeft    xyz.LngLat
	opts       Options
	emit       EmitFunc
	log        logrus.FieldLogger

	Samples int
	Skipped int
	Emitted int
}

func NewDEMExtractor(res Resolution, opts Options, emit EmitFunc) (*DEMExtractor, error) {
	cell, err := meshcode.Decode(opts.MeshCode)
	if err != nil {
		return nil, err
	}

	return &DEMExtractor{
		resolution: res,
		grid:       res.Grid(),
		topLeft:    cell.TopLeft,
		opts:       opts,
		emit:       emit,
		log:        logger.WithFields(opts.fields()),
	}, nil
}

// Center returns the centre of the i-th sample, counting row by row from the
// north-west corner.
func (d *DEMExtractor) Center(i int) xyz.LngLat {
	col := i % d.grid.Columns
	row := i / d.grid.Columns
	return xyz.LngLat{
		Lng: d.topLeft.Lng + d.grid.DLng*(float64(col)+0.5),
		Lat: d.topLeft.Lat - d.grid.DLat*(float64(row)+0.5),
	}
}

func (d *DEMExtractor) Parse(r io.Reader) error {
	r, err := utf8Reader(r)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	inside := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, tupleListOpen):
			inside = true
			continue
		case strings.Contains(line, tupleListClose):
			inside = false
			continue
		case !inside:
			continue
		}

		err := d.sample(strings.TrimSpace(line))
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (d *DEMExtractor) sample(line string) error {
	parts := strings.SplitN(line, ",", 2)
	category := strings.TrimSpace(parts[0])
	if category == "" {
		return nil
	}

	i := d.Samples
	d.Samples++

	err := d.emitSample(i, category, parts)
	if err == nil {
		return nil
	}

	var serr *sinkError
	if errors.As(err, &serr) {
		return serr.err
	}

	d.Skipped++
	d.log.WithField("sample", i).WithError(err).Warn("Skipping sample")
	return nil
}

func (d *DEMExtractor) emitSample(i int, category string, parts []string) error {
	if len(parts) < 2 {
		return &FieldError{Field: "height", Value: "", Err: errMissingValue}
	}

	height := Field{Key: "height", Kind: KindFloat}
	v, err := height.Convert(strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}
	if v == nil {
		return &FieldError{Field: "height", Value: "", Err: errMissingValue}
	}

	c := d.Center(i)
	tile, err := xyz.TileOf(c.Lng, c.Lat, d.opts.Zoom)
	if err != nil {
		return err
	}

	f := geojson.NewPointFeature([]float64{c.Lng, c.Lat})
	f.SetProperty("class", d.resolution.String())
	f.SetProperty("type", category)
	f.SetProperty("height", v)
	f.SetProperty("datePublished", d.opts.DatePublished)

	err = d.emit(&Assignment{Tile: tile, Feature: f})
	if err != nil {
		return &sinkError{err: err}
	}
	d.Emitted++
	return nil
}
