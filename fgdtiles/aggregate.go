package fgdtiles

import (
	"bytes"
	"fmt"
	"io"
)

// TileDocument holds the serialized features of one tile in arrival order.
type TileDocument struct {
	Path      string
	Fragments [][]byte
}

// Body joins the fragments into the inside of a JSON array.
func (d *TileDocument) Body() []byte {
	return bytes.Join(d.Fragments, []byte(","))
}

func (d *TileDocument) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "%s\t%s\n", d.Path, d.Body())
	return int64(n), err
}

// Aggregator merges consecutive records that share a tile path. Input must
// be grouped by path: a path that reappears after another one starts a new
// document.
type Aggregator struct {
	emit      func(*TileDocument) error
	current   string
	fragments [][]byte
}

func NewAggregator(emit func(*TileDocument) error) *Aggregator {
	return &Aggregator{
		emit: emit,
	}
}

// Add appends a fragment. The aggregator keeps the slice, callers reusing
// buffers must pass a copy.
func (a *Aggregator) Add(path string, fragment []byte) error {
	if path != a.current && a.current != "" {
		err := a.Flush()
		if err != nil {
			return err
		}
	}

	a.fragments = append(a.fragments, fragment)
	a.current = path
	return nil
}

// Flush emits the pending document, if any.
func (a *Aggregator) Flush() error {
	if len(a.fragments) == 0 {
		return nil
	}

	doc := &TileDocument{
		Path:      a.current,
		Fragments: a.fragments,
	}
	a.fragments = nil
	return a.emit(doc)
}

// Reduce aggregates a grouped record stream into tile document lines.
func Reduce(r io.Reader, w io.Writer) error {
	agg := NewAggregator(func(doc *TileDocument) error {
		_, err := doc.WriteTo(w)
		return err
	})

	err := ReadRecords(r, func(key string, value []byte) error {
		return agg.Add(key, append([]byte(nil), value...))
	})
	if err != nil {
		return err
	}
	return agg.Flush()
}
