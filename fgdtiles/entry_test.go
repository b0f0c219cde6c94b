package fgdtiles

import (
	"errors"
	"testing"

	"github.com/cheekybits/is"
)

func TestParseEntryName(t *testing.T) {
	is := is.New(t)

	e, err := ParseEntryName("FG-GML-5339-46-ElevPt-20161001-0001.xml")
	is.NoErr(err)
	is.Equal(e.MeshCode, "533946")
	is.Equal(e.Type, "ElevPt")
	is.Equal(e.DatePublished, "2016-10-01")

	e, err = ParseEntryName("data/FG-GML-5440-12-34-DEM5A-20161001.xml")
	is.NoErr(err)
	is.Equal(e.Name, "data/FG-GML-5440-12-34-DEM5A-20161001.xml")
	is.Equal(e.MeshCode, "54401234")
	is.Equal(e.Type, "DEM5A")

	o := e.Options("src.zip", 18)
	is.Equal(o.Zoom, 18)
	is.Equal(o.MeshCode, "54401234")
	is.Equal(o.DatePublished, "2016-10-01")
}

func TestParseEntryNameErrors(t *testing.T) {
	is := is.New(t)

	for _, name := range []string{
		"FG-GML-5339-46-ElevPt-20161001.txt",
		"XX-GML-5339-46-ElevPt-20161001.xml",
		"FG-GML-ElevPt-20161001.xml",
		"FG-GML-5339-46-ElevPt-2016100A.xml",
	} {
		_, err := ParseEntryName(name)
		var eerr *EntryNameError
		is.True(errors.As(err, &eerr))
		is.Equal(eerr.Name, name)
	}
}
