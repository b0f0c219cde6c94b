package fgdtiles

import (
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

// Field maps a leaf element to a feature property.
type Field struct {
	Key  string
	Kind Kind
}

// Convert parses the trimmed element text. Empty numeric values yield nil.
func (f Field) Convert(text string) (interface{}, error) {
	switch f.Kind {
	case KindFloat:
		if text == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &FieldError{Field: f.Key, Value: text, Err: err}
		}
		return v, nil
	case KindInt:
		if text == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, &FieldError{Field: f.Key, Value: text, Err: err}
		}
		return v, nil
	default:
		return text, nil
	}
}

// Shape assembles the geometry of one feature from its payload elements.
type Shape interface {
	// Collect consumes the text of a closed element and reports whether the
	// element was a geometry payload.
	Collect(name, text string) (bool, error)
	Geometry() (*geojson.Geometry, error)
	Reset()
}

// Family describes one kind of vector document: which elements start a
// feature, which leaves become properties and how the geometry is built.
type Family struct {
	Name     string
	Classes  []string
	Fields   map[string]Field
	NewShape func() Shape

	// Elements whose closing does not clear the text buffer.
	Keep []string
}

func (f *Family) HasClass(name string) bool {
	for _, c := range f.Classes {
		if c == name {
			return true
		}
	}
	return false
}

func fields(kind Kind, names ...string) map[string]Field {
	m := make(map[string]Field, len(names))
	for _, n := range names {
		m[n] = Field{Key: n, Kind: kind}
	}
	return m
}

func merge(tables ...map[string]Field) map[string]Field {
	m := make(map[string]Field)
	for _, t := range tables {
		for k, v := range t {
			m[k] = v
		}
	}
	return m
}

var PointFamily = &Family{
	Name:    "point",
	Classes: []string{"AdmPt", "CommPt", "ElevPt", "GCP", "SBAPt"},
	Fields: merge(
		fields(KindString, "type", "fid", "vis", "admOffice", "devDate", "lfSpanFr", "orgName", "gcpClass", "gcpCode", "name"),
		fields(KindFloat, "alti", "B", "L"),
		fields(KindInt, "orgGILvl", "altiAcc", "sbaNo"),
	),
	NewShape: func() Shape { return &pointShape{} },
	Keep:     []string{"gml:timePosition"},
}

var LineFamily = &Family{
	Name:    "line",
	Classes: []string{"BldL", "Cntr", "RdEdg", "WL", "Cstline", "AdmBdry", "RailCL", "RdCompt", "CommBdry", "WStrL", "SBBdry"},
	Fields: merge(
		fields(KindString, "type", "fid", "vis", "admOffice", "devDate", "lfSpanFr"),
		fields(KindFloat, "alti"),
		fields(KindInt, "orgGILvl"),
	),
	NewShape: func() Shape { return &lineShape{} },
	Keep:     []string{"gml:timePosition"},
}

// Polygon rings nest their coordinates several levels deep, the text buffer
// is carried up to the ring element.
var PolygonFamily = &Family{
	Name:    "polygon",
	Classes: []string{"AdmArea", "BldA", "WA", "WStrA"},
	Fields: merge(
		fields(KindString, "type", "fid", "vis", "admOffice", "devDate", "lfSpanFr", "name", "admCode"),
		fields(KindFloat, "alti"),
		fields(KindInt, "orgGILvl"),
	),
	NewShape: func() Shape { return &polygonShape{} },
	Keep: []string{
		"gml:timePosition", "gml:posList", "gml:LineStringSegment",
		"gml:segments", "gml:Curve", "gml:curveMember", "gml:Ring",
	},
}

var Families = []*Family{PointFamily, LineFamily, PolygonFamily}

// FamilyFor returns the family whose classes include the document type.
func FamilyFor(typ string) (*Family, bool) {
	for _, f := range Families {
		if f.HasClass(typ) {
			return f, true
		}
	}
	return nil, false
}

// parseCoordinates reads whitespace separated "lat lng" pairs into
// [lng, lat] points.
func parseCoordinates(element, text string) ([][]float64, error) {
	values := strings.Fields(text)
	if len(values)%2 != 0 {
		return nil, &CoordinateError{Element: element, Reason: "odd number of values"}
	}

	points := make([][]float64, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		lat, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return nil, &CoordinateError{Element: element, Reason: err.Error()}
		}
		lng, err := strconv.ParseFloat(values[i+1], 64)
		if err != nil {
			return nil, &CoordinateError{Element: element, Reason: err.Error()}
		}
		points = append(points, []float64{lng, lat})
	}
	return points, nil
}

type pointShape struct {
	point []float64
}

func (s *pointShape) Collect(name, text string) (bool, error) {
	if name != "gml:pos" {
		return false, nil
	}
	points, err := parseCoordinates(name, text)
	if err != nil {
		return true, err
	}
	if len(points) != 1 {
		return true, &CoordinateError{Element: name, Reason: "expected a single position"}
	}
	s.point = points[0]
	return true, nil
}

func (s *pointShape) Geometry() (*geojson.Geometry, error) {
	if s.point == nil {
		return nil, &CoordinateError{Element: "gml:pos", Reason: "missing"}
	}
	return geojson.NewPointGeometry(s.point), nil
}

func (s *pointShape) Reset() {
	s.point = nil
}

type lineShape struct {
	points [][]float64
}

func (s *lineShape) Collect(name, text string) (bool, error) {
	if name != "gml:posList" {
		return false, nil
	}
	points, err := parseCoordinates(name, text)
	if err != nil {
		return true, err
	}
	s.points = points
	return true, nil
}

func (s *lineShape) Geometry() (*geojson.Geometry, error) {
	if len(s.points) < 2 {
		return nil, &CoordinateError{Element: "gml:posList", Reason: "a line needs at least two positions"}
	}
	return geojson.NewLineStringGeometry(s.points), nil
}

func (s *lineShape) Reset() {
	s.points = nil
}

type polygonShape struct {
	rings [][][]float64
}

func (s *polygonShape) Collect(name, text string) (bool, error) {
	switch name {
	case "gml:exterior":
		ring, err := parseCoordinates(name, text)
		if err != nil {
			return true, err
		}
		s.rings = [][][]float64{ring}
		return true, nil
	case "gml:interior":
		ring, err := parseCoordinates(name, text)
		if err != nil {
			return true, err
		}
		s.rings = append(s.rings, ring)
		return true, nil
	}
	return false, nil
}

func (s *polygonShape) Geometry() (*geojson.Geometry, error) {
	if len(s.rings) == 0 {
		return nil, &CoordinateError{Element: "gml:exterior", Reason: "missing"}
	}
	return geojson.NewPolygonGeometry(s.rings), nil
}

func (s *polygonShape) Reset() {
	s.rings = nil
}
