package fgdtiles

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	fgdjson "github.com/rubenv/fgdtiles/geojson"
	"github.com/rubenv/fgdtiles/xyz"
	"github.com/rubenv/topojson"
	"golang.org/x/sync/errgroup"
)

// Deployer writes the aggregated tile documents of the part files as
// individual files under the deploy directory.
type Deployer struct {
	config *Config

	// Called once per finished part file, from any worker.
	Progress func()

	tiles   int64
	skipped int64
}

func NewDeployer(config *Config) *Deployer {
	return &Deployer{
		config: config,
	}
}

func (d *Deployer) Tiles() int64 {
	return atomic.LoadInt64(&d.tiles)
}

// Skipped counts the records whose key is not a valid tile path.
func (d *Deployer) Skipped() int64 {
	return atomic.LoadInt64(&d.skipped)
}

// Parts lists the part files of the output directory.
func (d *Deployer) Parts() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.config.Output, "part*"))
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(matches))
	for _, m := range matches {
		if !strings.HasSuffix(m, ".tmp") {
			result = append(result, m)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (d *Deployer) Run(ctx context.Context, parts []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Workers)
	for _, p := range parts {
		part := p
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := d.DeployPart(gctx, part)
			if err != nil {
				return err
			}
			if d.Progress != nil {
				d.Progress()
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Deployer) DeployPart(ctx context.Context, part string) error {
	f, err := os.Open(part)
	if err != nil {
		return err
	}
	defer f.Close()

	return ReadRecords(f, func(key string, body []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		tile, err := xyz.ParsePath(key)
		if err != nil {
			atomic.AddInt64(&d.skipped, 1)
			logger.WithField("part", part).WithError(err).Warn("Skipping tile")
			return nil
		}
		return d.deployTile(tile, body)
	})
}

// DeployTile writes one tile document, plus its TopoJSON rendition when
// enabled.
func (d *Deployer) DeployTile(tilePath string, body []byte) error {
	tile, err := xyz.ParsePath(tilePath)
	if err != nil {
		return err
	}
	return d.deployTile(tile, body)
}

func (d *Deployer) deployTile(tile xyz.Tile, body []byte) error {
	dst := filepath.Join(d.config.Deploy, tile.Path()+".geojson")
	err := os.MkdirAll(filepath.Dir(dst), 0755)
	if err != nil {
		return err
	}

	doc := fgdjson.Collection(body)
	err = os.WriteFile(dst, doc, 0644)
	if err != nil {
		return err
	}

	log := logger.WithField("tile", tile.String())
	log.WithField("size", len(doc)).Debug("Tile written")
	atomic.AddInt64(&d.tiles, 1)

	if !d.config.TopoJSON {
		return nil
	}

	fc, err := fgdjson.ParseCollection(body)
	if err != nil {
		return err
	}

	topo := topojson.NewTopology(fc, &topojson.TopologyOptions{
		PostQuantize: 1e6,
		IDProperty:   "fid",
	})

	data, err := json.Marshal(topo)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.config.Deploy, tile.Path()+".topojson"), data, 0644)
}
