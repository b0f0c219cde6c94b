package fgdtiles

import (
	"bytes"
	"errors"
	"io"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rubenv/fgdtiles/xyz"
	"github.com/sirupsen/logrus"
)

// Options describe one source document.
type Options struct {
	Source        string
	Zoom          int
	MeshCode      string
	Type          string
	DatePublished string
}

func (o Options) fields() logrus.Fields {
	return logrus.Fields{
		"source": o.Source,
		"type":   o.Type,
		"mesh":   o.MeshCode,
	}
}

// Assignment is one feature, or one clipped piece of it, destined for a tile.
type Assignment struct {
	Tile    xyz.Tile
	Feature *geojson.Feature
}

// Path is the tile key used in record streams.
func (a *Assignment) Path() string {
	return a.Tile.Path() + ".geojson"
}

type EmitFunc func(a *Assignment) error

type sinkError struct {
	err error
}

func (e *sinkError) Error() string {
	return e.err.Error()
}

func (e *sinkError) Unwrap() error {
	return e.err
}

// Extractor turns the element events of one vector document into tile
// assignments. Features are emitted as soon as their element closes.
type Extractor struct {
	family *Family
	opts   Options
	emit   EmitFunc
	log    logrus.FieldLogger

	keep    map[string]bool
	buf     bytes.Buffer
	feature *geojson.Feature
	shape   Shape
	err     error

	Features int
	Skipped  int
	Emitted  int
}

func NewExtractor(family *Family, opts Options, emit EmitFunc) *Extractor {
	keep := make(map[string]bool)
	for _, k := range family.Keep {
		keep[k] = true
	}

	return &Extractor{
		family: family,
		opts:   opts,
		emit:   emit,
		log:    logger.WithFields(opts.fields()),
		keep:   keep,
		shape:  family.NewShape(),
	}
}

func (e *Extractor) StartElement(name string) {
	if !e.family.HasClass(name) {
		return
	}

	e.feature = geojson.NewFeature(nil)
	e.feature.SetProperty("class", name)
	e.feature.SetProperty("datePublished", e.opts.DatePublished)
	e.shape.Reset()
	e.err = nil
}

func (e *Extractor) Characters(text []byte) {
	e.buf.Write(text)
}

func (e *Extractor) EndElement(name string) error {
	defer func() {
		if !e.keep[name] {
			e.buf.Reset()
		}
	}()

	if e.family.HasClass(name) {
		return e.finish(name)
	}
	if e.feature == nil {
		return nil
	}

	text := strings.TrimSpace(e.buf.String())
	if field, ok := e.family.Fields[name]; ok {
		v, err := field.Convert(text)
		if err != nil {
			e.fail(err)
		} else if v != nil {
			e.feature.SetProperty(field.Key, v)
		}
		return nil
	}

	_, err := e.shape.Collect(name, text)
	if err != nil {
		e.fail(err)
	}
	return nil
}

func (e *Extractor) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Extractor) finish(class string) error {
	f := e.feature
	e.feature = nil
	if f == nil {
		return nil
	}
	e.Features++

	err := e.err
	if err == nil {
		var g *geojson.Geometry
		g, err = e.shape.Geometry()
		if err == nil {
			err = e.tile(f, g)
		}
	}
	if err == nil {
		return nil
	}

	var serr *sinkError
	if errors.As(err, &serr) {
		return serr.err
	}

	e.Skipped++
	e.log.WithFields(logrus.Fields{
		"class": class,
		"fid":   f.Properties["fid"],
	}).WithError(err).Warn("Skipping feature")
	return nil
}

func (e *Extractor) tile(f *geojson.Feature, g *geojson.Geometry) error {
	if g.Type == geojson.GeometryPoint {
		tile, err := xyz.TileOf(g.Point[0], g.Point[1], e.opts.Zoom)
		if err != nil {
			return err
		}
		f.Geometry = g
		return e.send(&Assignment{Tile: tile, Feature: f})
	}

	return TileGeometry(g, e.opts.Zoom, func(tile xyz.Tile, piece *geojson.Geometry) error {
		return e.send(&Assignment{
			Tile: tile,
			Feature: &geojson.Feature{
				Type:       "Feature",
				Geometry:   piece,
				Properties: f.Properties,
			},
		})
	})
}

func (e *Extractor) send(a *Assignment) error {
	err := e.emit(a)
	if err != nil {
		return &sinkError{err: err}
	}
	e.Emitted++
	return nil
}

// Extract converts one document, choosing the extractor by its type tag.
func Extract(r io.Reader, opts Options, emit EmitFunc) error {
	if family, ok := FamilyFor(opts.Type); ok {
		return ParseXML(r, NewExtractor(family, opts, emit))
	}

	if res, ok := ParseResolution(opts.Type); ok {
		d, err := NewDEMExtractor(res, opts, emit)
		if err != nil {
			return err
		}
		return d.Parse(r)
	}

	return &UnknownTypeError{Type: opts.Type}
}
