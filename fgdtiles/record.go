package fgdtiles

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const maxRecordSize = 64 * 1024 * 1024

// RecordWriter writes assignments as "path\tfeature\n" lines.
type RecordWriter struct {
	w     *bufio.Writer
	Count int64
}

func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{
		w: bufio.NewWriterSize(w, 256*1024),
	}
}

func (r *RecordWriter) Write(a *Assignment) error {
	b, err := json.Marshal(a.Feature)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(r.w, "%s\t%s\n", a.Path(), b)
	if err != nil {
		return err
	}
	r.Count++
	return nil
}

func (r *RecordWriter) Flush() error {
	return r.w.Flush()
}

// ReadRecords calls fn for every "key\tvalue" line of r. Both slices are only
// valid during the call.
func ReadRecords(r io.Reader, fn func(key string, value []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(b) == 0 {
			continue
		}

		i := bytes.IndexByte(b, '\t')
		if i < 0 {
			return fmt.Errorf("Malformed record on line %d", line)
		}

		err := fn(string(b[:i]), b[i+1:])
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}
