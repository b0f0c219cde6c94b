package fgdtiles

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cheekybits/is"
)

func openSpool(is is.I, partitions int) (*Spool, string) {
	dir, err := os.MkdirTemp("", "fgdtiles-spool")
	is.NoErr(err)

	s, err := OpenSpool(path.Join(dir, "db"), partitions)
	is.NoErr(err)
	return s, dir
}

func TestSpoolGroupsTiles(t *testing.T) {
	is := is.New(t)

	s, dir := openSpool(is, 4)
	defer os.RemoveAll(dir)
	defer s.Close()

	// Interleaved input, as produced by several documents
	_, err := s.Load(strings.NewReader("A\t1\nB\t2\nA\t3\n"))
	is.NoErr(err)
	n, err := s.Load(strings.NewReader("C\t4\nA\t5\n"))
	is.NoErr(err)
	is.Equal(n, int64(2))

	frags, err := s.Get("A")
	is.NoErr(err)
	is.Equal(len(frags), 3)
	is.Equal(string(frags[0]), "1")
	is.Equal(string(frags[1]), "3")
	is.Equal(string(frags[2]), "5")

	frags, err = s.Get("D")
	is.NoErr(err)
	is.Equal(len(frags), 0)

	out := path.Join(dir, "out")
	reduced := int32(0)
	err = s.Reduce(context.Background(), out, 2, func(part int) {
		atomic.AddInt32(&reduced, 1)
	})
	is.NoErr(err)

	lines := make([]string, 0)
	for i := 0; i < s.Partitions(); i++ {
		data, err := os.ReadFile(path.Join(out, partName(i)))
		is.NoErr(err)
		for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			if l != "" {
				lines = append(lines, l)
			}
		}
	}
	sort.Strings(lines)
	is.Equal(lines, []string{"A\t1,3,5", "B\t2", "C\t4"})
	is.Equal(reduced, int32(4))
}

func TestSpoolPartitionStable(t *testing.T) {
	is := is.New(t)

	s, dir := openSpool(is, 16)
	defer os.RemoveAll(dir)
	defer s.Close()

	p := s.Partition("18/232847/103226.geojson")
	is.True(p >= 0 && p < 16)
	is.Equal(s.Partition("18/232847/103226.geojson"), p)
}

func TestSpoolManyPartitions(t *testing.T) {
	is := is.New(t)

	s, dir := openSpool(is, 250000)
	defer os.RemoveAll(dir)
	defer s.Close()

	_, err := s.Load(strings.NewReader("18/232847/103226.geojson\t1\n"))
	is.NoErr(err)

	keys := make([]string, 0)
	is.NoErr(s.Each(s.Partition("18/232847/103226.geojson"), func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	}))
	is.Equal(keys, []string{"18/232847/103226.geojson"})
}

func TestSpoolTileKey(t *testing.T) {
	is := is.New(t)

	for _, part := range []int{0, 42, 99999, 123456} {
		k := append(partitionPrefix(part), "18/232847/103226.geojson"...)
		k = append(k, 0, 0, 0, 0, 0, 0, 0, 0, 7)
		is.Equal(string(tileKey(k)), "18/232847/103226.geojson")
	}
}

func TestSpoolSequencePersists(t *testing.T) {
	is := is.New(t)

	s, dir := openSpool(is, 1)
	defer os.RemoveAll(dir)

	_, err := s.Load(strings.NewReader("A\tfirst\n"))
	is.NoErr(err)
	is.NoErr(s.Close())

	s, err = OpenSpool(path.Join(dir, "db"), 1)
	is.NoErr(err)
	defer s.Close()

	_, err = s.Load(strings.NewReader("A\tsecond\n"))
	is.NoErr(err)

	frags, err := s.Get("A")
	is.NoErr(err)
	is.Equal(len(frags), 2)
	is.Equal(string(frags[0]), "first")
	is.Equal(string(frags[1]), "second")
}

func TestSpoolLoadGzip(t *testing.T) {
	is := is.New(t)

	s, dir := openSpool(is, 2)
	defer os.RemoveAll(dir)
	defer s.Close()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("A\t1\nB\t2\n"))
	is.NoErr(err)
	is.NoErr(gz.Close())

	filename := path.Join(dir, "records.gz")
	is.NoErr(os.WriteFile(filename, buf.Bytes(), 0644))

	n, err := s.LoadFile(filename)
	is.NoErr(err)
	is.Equal(n, int64(2))

	seen := 0
	for i := 0; i < s.Partitions(); i++ {
		is.NoErr(s.Each(i, func(key string, value []byte) error {
			is.Equal(s.Partition(key), i)
			seen++
			return nil
		}))
	}
	is.Equal(seen, 2)
}
