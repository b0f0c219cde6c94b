package fgdtiles

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cheekybits/is"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rubenv/fgdtiles/xyz"
)

const pointDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Dataset xmlns="http://fgd.gsi.go.jp/spec/2008/FGD_GMLSchema" xmlns:gml="http://www.opengis.net/gml/3.2" gml:id="Dataset1">
<description>基盤地図情報</description>
<ElevPt gml:id="K6_1">
<fid>fgoid:10-00100-11-6644-4</fid>
<lfSpanFr gml:id="K6_1-1"><gml:timePosition>2008-03-31</gml:timePosition></lfSpanFr>
<devDate gml:id="K6_1-2"><gml:timePosition>2008-03-31</gml:timePosition></devDate>
<orgGILvl>2500</orgGILvl>
<vis>表示</vis>
<pos><gml:Point gml:id="K6_1-3" srsName="JGD2000 / (B, L)"><gml:pos>35.681236 139.767125</gml:pos></gml:Point></pos>
<type>標高点（測点）</type>
<alti>3.5</alti>
<altiAcc>1</altiAcc>
</ElevPt>
<ElevPt gml:id="K6_2">
<fid>fgoid:10-00100-11-6644-5</fid>
<pos><gml:Point gml:id="K6_2-3" srsName="JGD2000 / (B, L)"><gml:pos>35.70 139.70</gml:pos></gml:Point></pos>
<alti>12.0</alti>
<altiAcc>1</altiAcc>
</ElevPt>
</Dataset>
`

const lineDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Dataset xmlns="http://fgd.gsi.go.jp/spec/2008/FGD_GMLSchema" xmlns:gml="http://www.opengis.net/gml/3.2" gml:id="Dataset1">
<Cntr gml:id="K7_1">
<fid>line-1</fid>
<loc><gml:Curve gml:id="K7_1-g" srsName="JGD2000 / (B, L)"><gml:segments><gml:LineStringSegment><gml:posList>
35.600 139.700
35.700 139.750
35.620 139.800
</gml:posList></gml:LineStringSegment></gml:segments></gml:Curve></loc>
<type>一般等高線</type>
<alti>not-a-number</alti>
</Cntr>
<Cntr gml:id="K7_2">
<fid>line-2</fid>
<loc><gml:Curve gml:id="K7_2-g" srsName="JGD2000 / (B, L)"><gml:segments><gml:LineStringSegment><gml:posList>
35.600 139.700
35.700 139.750
35.620 139.800
</gml:posList></gml:LineStringSegment></gml:segments></gml:Curve></loc>
<type>一般等高線</type>
<alti>10.0</alti>
<orgGILvl>25000</orgGILvl>
</Cntr>
</Dataset>
`

const polygonDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Dataset xmlns="http://fgd.gsi.go.jp/spec/2008/FGD_GMLSchema" xmlns:gml="http://www.opengis.net/gml/3.2" gml:id="Dataset1">
<BldA gml:id="K8_1">
<fid>poly-1</fid>
<lfSpanFr gml:id="K8_1-1"><gml:timePosition>2012-01-01</gml:timePosition></lfSpanFr>
<area><gml:Surface gml:id="K8_1-g" srsName="JGD2000 / (B, L)"><gml:patches><gml:PolygonPatch><gml:exterior><gml:Ring><gml:curveMember><gml:Curve gml:id="K8_1-c"><gml:segments><gml:LineStringSegment><gml:posList>
35.600 139.700
35.600 139.800
35.700 139.800
35.700 139.700
35.600 139.700
</gml:posList></gml:LineStringSegment></gml:segments></gml:Curve></gml:curveMember></gml:Ring></gml:exterior><gml:interior><gml:Ring><gml:curveMember><gml:Curve gml:id="K8_1-d"><gml:segments><gml:LineStringSegment><gml:posList>
35.640 139.740
35.660 139.740
35.660 139.760
35.640 139.760
35.640 139.740
</gml:posList></gml:LineStringSegment></gml:segments></gml:Curve></gml:curveMember></gml:Ring></gml:interior></gml:PolygonPatch></gml:patches></gml:Surface></area>
<type>普通建物</type>
<orgGILvl>2500</orgGILvl>
</BldA>
<BldA gml:id="K8_2">
<fid>poly-2</fid>
<area><gml:Surface gml:id="K8_2-g" srsName="JGD2000 / (B, L)"><gml:patches><gml:PolygonPatch><gml:exterior><gml:Ring><gml:curveMember><gml:Curve gml:id="K8_2-c"><gml:segments><gml:LineStringSegment><gml:posList>
89.000 139.700
89.000 139.800
90.000 139.800
89.000 139.700
</gml:posList></gml:LineStringSegment></gml:segments></gml:Curve></gml:curveMember></gml:Ring></gml:exterior></gml:PolygonPatch></gml:patches></gml:Surface></area>
<type>普通建物</type>
</BldA>
</Dataset>
`

func extract(is is.I, doc, typ string, zoom int) []*Assignment {
	out := make([]*Assignment, 0)
	err := Extract(strings.NewReader(doc), Options{
		Zoom:          zoom,
		MeshCode:      "533946",
		Type:          typ,
		DatePublished: "2016-10-01",
	}, func(a *Assignment) error {
		out = append(out, a)
		return nil
	})
	is.NoErr(err)
	return out
}

func TestExtractPoints(t *testing.T) {
	is := is.New(t)

	out := extract(is, pointDocument, "ElevPt", 18)
	is.Equal(len(out), 2)

	a := out[0]
	tile, err := xyz.TileOf(139.767125, 35.681236, 18)
	is.NoErr(err)
	is.Equal(a.Tile, tile)
	is.Equal(a.Path(), tile.Path()+".geojson")
	is.Equal(a.Feature.Geometry.Type, geojson.GeometryPoint)
	is.Equal(a.Feature.Geometry.Point, []float64{139.767125, 35.681236})

	p := a.Feature.Properties
	is.Equal(p["class"], "ElevPt")
	is.Equal(p["datePublished"], "2016-10-01")
	is.Equal(p["fid"], "fgoid:10-00100-11-6644-4")
	is.Equal(p["lfSpanFr"], "2008-03-31")
	is.Equal(p["type"], "標高点（測点）")
	is.Equal(p["alti"], 3.5)
	is.Equal(p["altiAcc"], 1)
	is.Equal(p["orgGILvl"], 2500)

	// Properties never leak between features
	_, ok := out[1].Feature.Properties["type"]
	is.False(ok)
	is.Equal(out[1].Feature.Properties["alti"], 12.0)
}

func TestExtractLines(t *testing.T) {
	is := is.New(t)

	out := extract(is, lineDocument, "Cntr", 13)
	is.True(len(out) > 1)

	for _, a := range out {
		is.Equal(a.Feature.Geometry.Type, geojson.GeometryLineString)

		// The first feature has a malformed altitude and is skipped
		p := a.Feature.Properties
		is.Equal(p["fid"], "line-2")
		is.Equal(p["class"], "Cntr")
		is.Equal(p["alti"], 10.0)
		is.Equal(p["orgGILvl"], 25000)
	}

	// Coordinates are stored as lng, lat
	for _, p := range out[0].Feature.Geometry.LineString {
		is.True(p[0] >= 139.7 && p[0] <= 139.8)
		is.True(p[1] >= 35.6 && p[1] <= 35.7)
	}
}

func TestExtractPolygons(t *testing.T) {
	is := is.New(t)

	out := extract(is, polygonDocument, "BldA", 12)
	is.True(len(out) > 1)

	total := 0.0
	for _, a := range out {
		is.Equal(a.Feature.Geometry.Type, geojson.GeometryPolygon)

		// The second feature reaches the pole and is skipped
		p := a.Feature.Properties
		is.Equal(p["fid"], "poly-1")
		is.Equal(p["class"], "BldA")
		is.Equal(p["lfSpanFr"], "2012-01-01")
		is.Equal(p["orgGILvl"], 2500)

		total += measure(is, a.Feature.Geometry)
	}

	// Outer square minus the hole
	want := 0.1*0.1 - 0.02*0.02
	is.True(total > want-1e-9 && total < want+1e-9)
}

func TestExtractSinkError(t *testing.T) {
	is := is.New(t)

	full := errors.New("disk full")
	err := Extract(strings.NewReader(pointDocument), Options{
		Zoom: 18,
		Type: "ElevPt",
	}, func(a *Assignment) error {
		return full
	})
	is.Equal(err, full)
}

func TestExtractUnknownType(t *testing.T) {
	is := is.New(t)

	err := Extract(strings.NewReader(pointDocument), Options{Type: "RdArea"}, nil)
	var uerr *UnknownTypeError
	is.True(errors.As(err, &uerr))
	is.Equal(uerr.Type, "RdArea")
}

func TestExtractMalformedDocument(t *testing.T) {
	is := is.New(t)

	err := Extract(strings.NewReader(`<Dataset><ElevPt><fid>1</fid`), Options{Type: "ElevPt"}, func(*Assignment) error {
		return nil
	})
	is.Err(err)
}

func TestParseXMLUnbalanced(t *testing.T) {
	is := is.New(t)

	// Ends with elements still open
	r := &recorder{}
	err := ParseXML(strings.NewReader(`<Dataset><ElevPt><fid>1</fid>`), r)
	is.True(errors.Is(err, io.ErrUnexpectedEOF))

	// End tag does not match its start tag
	r = &recorder{}
	err = ParseXML(strings.NewReader(`<Dataset><ElevPt><fid>1</alti></ElevPt></Dataset>`), r)
	var serr *xml.SyntaxError
	is.True(errors.As(err, &serr))
	is.Equal(r.events, []string{"<Dataset", "<ElevPt", "<fid", "1"})

	// Stray end tag
	err = ParseXML(strings.NewReader(`<a></a></b>`), &recorder{})
	is.True(errors.As(err, &serr))
}

func TestExtractTruncatedDocument(t *testing.T) {
	is := is.New(t)

	emitted := 0
	err := Extract(strings.NewReader(pointDocument[:len(pointDocument)-len("</Dataset>\n")]), Options{
		Zoom:     18,
		MeshCode: "533946",
		Type:     "ElevPt",
	}, func(*Assignment) error {
		emitted++
		return nil
	})
	is.True(errors.Is(err, io.ErrUnexpectedEOF))
	is.Equal(emitted, 2)
}

type recorder struct {
	events []string
}

func (r *recorder) StartElement(name string) {
	r.events = append(r.events, "<"+name)
}

func (r *recorder) Characters(text []byte) {
	r.events = append(r.events, string(text))
}

func (r *recorder) EndElement(name string) error {
	r.events = append(r.events, name+">")
	return nil
}

func TestParseXMLNames(t *testing.T) {
	is := is.New(t)

	r := &recorder{}
	err := ParseXML(strings.NewReader(`<a xmlns:gml="x"><gml:pos>1 2</gml:pos><b/></a>`), r)
	is.NoErr(err)
	is.Equal(r.events, []string{"<a", "<gml:pos", "1 2", "gml:pos>", "<b", "b>", "a>"})
}

func TestParseCoordinates(t *testing.T) {
	is := is.New(t)

	points, err := parseCoordinates("gml:posList", " 35.1 139.2\n 35.3 139.4 \n")
	is.NoErr(err)
	is.Equal(points, [][]float64{{139.2, 35.1}, {139.4, 35.3}})

	_, err = parseCoordinates("gml:posList", "35.1 139.2 35.3")
	var cerr *CoordinateError
	is.True(errors.As(err, &cerr))

	_, err = parseCoordinates("gml:pos", "35.1 east")
	is.True(errors.As(err, &cerr))
}

func TestFamilyFor(t *testing.T) {
	is := is.New(t)

	f, ok := FamilyFor("RdEdg")
	is.True(ok)
	is.Equal(f, LineFamily)

	f, ok = FamilyFor("WA")
	is.True(ok)
	is.Equal(f, PolygonFamily)

	f, ok = FamilyFor("GCP")
	is.True(ok)
	is.Equal(f, PointFamily)

	_, ok = FamilyFor("DEM5A")
	is.False(ok)
}
