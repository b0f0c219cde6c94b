package fgdtiles

import (
	"path"
	"strings"
)

// Entry is a source document as named inside a distribution archive, e.g.
// "FG-GML-5339-46-ElevPt-20161001-0001.xml".
type Entry struct {
	Name          string
	MeshCode      string
	Type          string
	DatePublished string
}

func ParseEntryName(name string) (Entry, error) {
	base := path.Base(name)
	if !strings.HasSuffix(base, ".xml") {
		return Entry{}, &EntryNameError{Name: name, Reason: "not an xml document"}
	}

	parts := strings.Split(strings.TrimSuffix(base, ".xml"), "-")
	if len(parts[len(parts)-1]) == 4 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 5 {
		return Entry{}, &EntryNameError{Name: name, Reason: "too few parts"}
	}
	if parts[0] != "FG" || parts[1] != "GML" {
		return Entry{}, &EntryNameError{Name: name, Reason: "missing FG-GML prefix"}
	}

	date := parts[len(parts)-1]
	if len(date) != 8 || strings.Trim(date, "0123456789") != "" {
		return Entry{}, &EntryNameError{Name: name, Reason: "bad publication date"}
	}

	return Entry{
		Name:          name,
		MeshCode:      strings.Join(parts[2:len(parts)-2], ""),
		Type:          parts[len(parts)-2],
		DatePublished: date[0:4] + "-" + date[4:6] + "-" + date[6:8],
	}, nil
}

// Options returns the extraction options for this entry.
func (e Entry) Options(source string, zoom int) Options {
	return Options{
		Source:        source + ":" + e.Name,
		Zoom:          zoom,
		MeshCode:      e.MeshCode,
		Type:          e.Type,
		DatePublished: e.DatePublished,
	}
}
