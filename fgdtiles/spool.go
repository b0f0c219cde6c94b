package fgdtiles

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/tecbot/gorocksdb"
	"golang.org/x/sync/errgroup"
)

const spoolBatchSize = 10000

var seqKey = []byte("meta/seq")

// Spool is the sort barrier between conversion and aggregation. Records are
// stored under "part/<partition>/<tile path>\x00<sequence>", which keeps the
// records of a tile contiguous and in arrival order.
type Spool struct {
	path       string
	partitions int

	db *gorocksdb.DB
	wo *gorocksdb.WriteOptions
	ro *gorocksdb.ReadOptions

	seq uint64
}

func OpenSpool(dir string, partitions int) (*Spool, error) {
	if partitions < 1 {
		return nil, fmt.Errorf("Invalid partition count: %d", partitions)
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}

	opts := gorocksdb.NewDefaultOptions()
	bb := gorocksdb.NewDefaultBlockBasedTableOptions()
	bb.SetBlockCache(gorocksdb.NewLRUCache(512 << 20))
	bb.SetFilterPolicy(gorocksdb.NewBloomFilter(10))
	opts.SetCreateIfMissing(true)
	opts.SetBlockBasedTableFactory(bb)
	db, err := gorocksdb.OpenDb(opts, dir)
	if err != nil {
		return nil, err
	}

	s := &Spool{
		path:       dir,
		partitions: partitions,
		db:         db,
		wo:         gorocksdb.NewDefaultWriteOptions(),
		ro:         gorocksdb.NewDefaultReadOptions(),
	}

	v, err := db.Get(s.ro, seqKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	defer v.Free()
	if v.Size() == 8 {
		s.seq = binary.BigEndian.Uint64(v.Data())
	}

	return s, nil
}

// Close persists the sequence counter and closes the store.
func (s *Spool) Close() error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], atomic.LoadUint64(&s.seq))
	err := s.db.Put(s.wo, seqKey, b[:])
	s.db.Close()
	s.wo.Destroy()
	s.ro.Destroy()
	return err
}

func (s *Spool) Partitions() int {
	return s.partitions
}

func (s *Spool) Partition(tilePath string) int {
	return int(xxhash.Sum64String(tilePath) % uint64(s.partitions))
}

func partName(part int) string {
	return fmt.Sprintf("part-%05d", part)
}

const spoolPartPrefix = "part/"

func partitionPrefix(part int) []byte {
	return []byte(fmt.Sprintf(spoolPartPrefix+"%05d/", part))
}

func (s *Spool) tilePrefix(tilePath string) []byte {
	p := partitionPrefix(s.Partition(tilePath))
	p = append(p, tilePath...)
	return append(p, 0)
}

func (s *Spool) key(tilePath string, seq uint64) []byte {
	k := s.tilePrefix(tilePath)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

// tileKey strips the partition prefix and the sequence suffix of a key.
func tileKey(k []byte) []byte {
	start := len(spoolPartPrefix) + bytes.IndexByte(k[len(spoolPartPrefix):], '/') + 1
	return k[start : len(k)-9]
}

// Load spools a record stream. It is safe to call from several goroutines.
func (s *Spool) Load(r io.Reader) (int64, error) {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()

	count := int64(0)
	err := ReadRecords(r, func(key string, value []byte) error {
		seq := atomic.AddUint64(&s.seq, 1)
		wb.Put(s.key(key, seq), value)
		count++

		if wb.Count() >= spoolBatchSize {
			err := s.db.Write(s.wo, wb)
			if err != nil {
				return err
			}
			wb.Clear()
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	if wb.Count() > 0 {
		err = s.db.Write(s.wo, wb)
	}
	return count, err
}

// LoadFile spools a record file, gunzipping it when its name ends in ".gz".
func (s *Spool) LoadFile(filename string) (int64, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", filename, err)
		}
		defer gz.Close()
		r = gz
	}

	n, err := s.Load(r)
	if err != nil {
		return n, fmt.Errorf("%s: %w", filename, err)
	}
	return n, nil
}

func (s *Spool) scan(prefix []byte, fn func(key string, value []byte) error) error {
	ro := gorocksdb.NewDefaultReadOptions()
	ro.SetFillCache(false)
	defer ro.Destroy()

	it := s.db.NewIterator(ro)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Key()
		v := it.Value()

		err := fn(string(tileKey(k.Data())), v.Data())
		k.Free()
		v.Free()
		if err != nil {
			return err
		}
	}

	return it.Err()
}

// Each visits the records of one partition in key order. The value is only
// valid during the call.
func (s *Spool) Each(part int, fn func(key string, value []byte) error) error {
	return s.scan(partitionPrefix(part), fn)
}

// Get returns the spooled fragments of one tile in arrival order.
func (s *Spool) Get(tilePath string) ([][]byte, error) {
	result := make([][]byte, 0)
	err := s.scan(s.tilePrefix(tilePath), func(key string, value []byte) error {
		result = append(result, bytes.Clone(value))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reduce aggregates every partition into "<dir>/part-NNNNN", running up to
// workers partitions at once.
func (s *Spool) Reduce(ctx context.Context, dir string, workers int, done func(part int)) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < s.partitions; i++ {
		part := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := s.reducePartition(gctx, path.Join(dir, partName(part)), part)
			if err != nil {
				return err
			}
			if done != nil {
				done(part)
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Spool) reducePartition(ctx context.Context, filename string, part int) error {
	tmp := filename + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	agg := NewAggregator(func(doc *TileDocument) error {
		_, err := doc.WriteTo(w)
		return err
	})

	tiles := 0
	err = s.Each(part, func(key string, value []byte) error {
		if key != agg.current {
			tiles++
			if tiles%1000 == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return agg.Add(key, bytes.Clone(value))
	})
	if err != nil {
		return err
	}

	err = agg.Flush()
	if err != nil {
		return err
	}
	err = w.Flush()
	if err != nil {
		return err
	}
	err = f.Close()
	if err != nil {
		return err
	}

	logger.WithField("part", part).WithField("tiles", tiles).Debug("Partition reduced")
	return os.Rename(tmp, filename)
}
