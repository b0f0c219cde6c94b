package cmd

import (
	"fmt"

	"github.com/rubenv/fgdtiles/fgdtiles"
)

type CmdConvert struct {
	global *GlobalOptions

	Zoom    int    `short:"z" long:"zoom" description:"Zoom level of the output tiles"`
	Workers int    `short:"w" long:"workers" description:"Number of archives converted in parallel"`
	Pattern string `short:"p" long:"pattern" description:"Regular expression selecting source archives"`
}

func init() {
	_, err := parser.AddCommand("convert",
		"Convert source archives",
		"Convert FGD archives into per archive tile record files",
		&CmdConvert{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdConvert) Usage() string {
	return "[source dir]"
}

func (cmd CmdConvert) Execute(args []string) error {
	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}

	if len(args) > 1 {
		return fmt.Errorf("Too many arguments, Usage: %s", cmd.Usage())
	}
	if len(args) == 1 {
		config.Source = args[0]
	}
	if cmd.Zoom > 0 {
		config.Zoom = cmd.Zoom
	}
	if cmd.Workers > 0 {
		config.Workers = cmd.Workers
	}
	if cmd.Pattern != "" {
		config.Pattern = cmd.Pattern
	}
	err = config.Validate()
	if err != nil {
		return err
	}

	c, err := fgdtiles.NewConverter(config)
	if err != nil {
		return err
	}

	archives, err := c.Archives()
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	bar := newBar(len(archives), "convert ")
	c.Progress = func() { bar.Increment() }
	err = c.Run(ctx, archives)
	bar.Finish()
	return err
}
