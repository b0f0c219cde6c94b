// Package geojson writes tile documents, whose features are kept as raw JSON
// fragments, as GeoJSON FeatureCollections.
package geojson

import (
	"bytes"
	"io"

	gj "github.com/paulmach/go.geojson"
)

var (
	collectionStart = []byte(`{"type": "FeatureCollection", "features": [`)
	collectionEnd   = []byte("]}\n")
)

// Collection wraps a comma separated list of serialized features.
func Collection(body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(collectionStart) + len(body) + len(collectionEnd))
	buf.Write(collectionStart)
	buf.Write(body)
	buf.Write(collectionEnd)
	return buf.Bytes()
}

func WriteCollection(w io.Writer, body []byte) (int64, error) {
	n, err := w.Write(Collection(body))
	return int64(n), err
}

// ParseCollection decodes a comma separated feature list.
func ParseCollection(body []byte) (*gj.FeatureCollection, error) {
	return gj.UnmarshalFeatureCollection(Collection(body))
}
