package fgdtiles

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Converter turns every matching distribution archive into a gzipped record
// file under the converted directory.
type Converter struct {
	config  *Config
	pattern *regexp.Regexp

	// Called once per finished archive, from any worker.
	Progress func()

	converted int64
	skipped   int64
	failed    int64
	records   int64
}

func NewConverter(config *Config) (*Converter, error) {
	pattern, err := regexp.Compile(config.Pattern)
	if err != nil {
		return nil, err
	}

	return &Converter{
		config:  config,
		pattern: pattern,
	}, nil
}

// Archives lists the matching zip files below the source directory.
func (c *Converter) Archives() ([]string, error) {
	result := make([]string, 0)
	err := filepath.WalkDir(c.config.Source, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".zip") {
			return nil
		}
		if c.pattern.MatchString(p) {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(result)
	return result, nil
}

// Destination is the record file for an archive.
func (c *Converter) Destination(archive string) string {
	name := strings.TrimSuffix(filepath.Base(archive), ".zip") + ".geojson.gz"
	return filepath.Join(c.config.Converted, name)
}

func (c *Converter) Run(ctx context.Context, archives []string) error {
	err := os.MkdirAll(c.config.Converted, 0755)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for _, a := range archives {
		archive := a
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			err := c.ConvertArchive(archive)
			if err != nil {
				atomic.AddInt64(&c.failed, 1)
				logger.WithField("archive", archive).WithError(err).Error("Conversion failed")
			}
			if c.Progress != nil {
				c.Progress()
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"converted": atomic.LoadInt64(&c.converted),
		"skipped":   atomic.LoadInt64(&c.skipped),
		"failed":    atomic.LoadInt64(&c.failed),
		"records":   atomic.LoadInt64(&c.records),
	}).Info("Conversion finished")
	return ctx.Err()
}

// ConvertArchive writes the record file of one archive. Existing record
// files are left alone so interrupted runs can be resumed.
func (c *Converter) ConvertArchive(archive string) error {
	dst := c.Destination(archive)
	log := logger.WithField("archive", filepath.Base(archive))

	_, err := os.Stat(dst)
	if err == nil {
		atomic.AddInt64(&c.skipped, 1)
		log.WithField("dst", dst).Info("Already converted")
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	defer f.Close()

	gz := gzip.NewWriter(f)
	w := NewRecordWriter(gz)

	log.Info("Processing")
	for _, file := range zr.File {
		err := c.convertEntry(archive, file, w)
		if err != nil {
			if errors.As(err, new(*sinkError)) {
				return err
			}
			log.WithField("entry", file.Name).WithError(err).Warn("Skipping document")
		}
	}

	err = w.Flush()
	if err != nil {
		return err
	}
	err = gz.Close()
	if err != nil {
		return err
	}
	err = f.Close()
	if err != nil {
		return err
	}

	atomic.AddInt64(&c.converted, 1)
	atomic.AddInt64(&c.records, w.Count)
	log.WithField("records", w.Count).Debug("Archive converted")
	return os.Rename(tmp, dst)
}

func (c *Converter) convertEntry(archive string, file *zip.File, w *RecordWriter) error {
	if !strings.HasSuffix(file.Name, ".xml") {
		return nil
	}

	entry, err := ParseEntryName(file.Name)
	if err != nil {
		return err
	}

	r, err := file.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	err = ConvertDocument(r, entry.Options(filepath.Base(archive), c.config.Zoom), w)
	var uerr *UnknownTypeError
	if errors.As(err, &uerr) {
		logger.WithField("entry", file.Name).Debug("No converter for type")
		return nil
	}
	return err
}

// ConvertDocument extracts one document into w. Write failures are returned
// as sink errors, everything else concerns the document only.
func ConvertDocument(r io.Reader, opts Options, w *RecordWriter) error {
	var werr error
	err := Extract(r, opts, func(a *Assignment) error {
		werr = w.Write(a)
		return werr
	})
	if werr != nil {
		return &sinkError{err: fmt.Errorf("%s: %w", opts.Source, werr)}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", opts.Source, err)
	}
	return nil
}
