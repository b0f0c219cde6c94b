package cmd

import (
	"github.com/rubenv/fgdtiles/fgdtiles"
	log "github.com/sirupsen/logrus"
)

type CmdDeploy struct {
	global *GlobalOptions

	TopoJSON bool `long:"topojson" description:"Also write a TopoJSON document per tile"`
}

func init() {
	_, err := parser.AddCommand("deploy",
		"Write tile files",
		"Write every aggregated tile as a GeoJSON FeatureCollection under the deploy directory",
		&CmdDeploy{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdDeploy) Usage() string {
	return ""
}

func (cmd CmdDeploy) Execute(args []string) error {
	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}
	if cmd.TopoJSON {
		config.TopoJSON = true
	}

	d := fgdtiles.NewDeployer(config)
	parts, err := d.Parts()
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	bar := newBar(len(parts), "deploy ")
	d.Progress = func() { bar.Increment() }
	err = d.Run(ctx, parts)
	bar.Finish()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"tiles":   d.Tiles(),
		"skipped": d.Skipped(),
	}).Info("Deployed")
	return nil
}
