package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rubenv/fgdtiles/fgdtiles"
	log "github.com/sirupsen/logrus"
)

type CmdReduce struct {
	global *GlobalOptions

	SkipLoad bool `long:"skip-load" description:"Reuse the existing spool instead of reloading the record files"`
}

func init() {
	_, err := parser.AddCommand("reduce",
		"Aggregate records per tile",
		"Spool all converted record files and write one tile document per line into the part files",
		&CmdReduce{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdReduce) Usage() string {
	return ""
}

func (cmd CmdReduce) Execute(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("Too many arguments, Usage: %s", cmd.Usage())
	}

	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}

	if !cmd.SkipLoad {
		err := os.RemoveAll(config.Spool)
		if err != nil {
			return err
		}
	}

	spool, err := fgdtiles.OpenSpool(config.Spool, config.Partitions)
	if err != nil {
		return fmt.Errorf("Failed to open spool: %w", err)
	}
	defer spool.Close()

	ctx, cancel := interruptible()
	defer cancel()

	if !cmd.SkipLoad {
		files, err := filepath.Glob(filepath.Join(config.Converted, "*.geojson.gz"))
		if err != nil {
			return err
		}

		bar := newBar(len(files), "load ")
		total := int64(0)
		for _, f := range files {
			if ctx.Err() != nil {
				break
			}
			n, err := spool.LoadFile(f)
			if err != nil {
				bar.Finish()
				return err
			}
			total += n
			bar.Increment()
		}
		bar.Finish()
		log.WithField("records", total).Info("Spool loaded")
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	bar := newBar(spool.Partitions(), "reduce ")
	err = spool.Reduce(ctx, config.Output, config.Workers, func(int) { bar.Increment() })
	bar.Finish()
	return err
}
