package cmd

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/rubenv/fgdtiles/fgdtiles"
)

type CmdThemes struct {
	global *GlobalOptions
}

func init() {
	_, err := parser.AddCommand("themes",
		"List feature types",
		"List the feature types of the source archives and those not converted yet",
		&CmdThemes{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdThemes) Usage() string {
	return ""
}

func (cmd CmdThemes) Execute(args []string) error {
	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}

	report, err := fgdtiles.CompareThemes(config.Source, config.Converted)
	if err != nil {
		return err
	}

	fmt.Printf("%# v\n", pretty.Formatter(report))
	return nil
}
