package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kr/pretty"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rubenv/fgdtiles/fgdtiles"
	"github.com/rubenv/fgdtiles/xyz"
)

type CmdGet struct {
	global *GlobalOptions

	Raw bool `short:"r" long:"raw" description:"Print the spooled JSON as is"`
}

func init() {
	_, err := parser.AddCommand("get",
		"Get tile records",
		"Get the spooled records of one tile",
		&CmdGet{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdGet) Usage() string {
	return "z/x/y"
}

func (cmd CmdGet) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("Options missing, Usage: %s", cmd.Usage())
	}

	tile, err := xyz.ParsePath(args[0])
	if err != nil {
		return err
	}

	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}

	spool, err := fgdtiles.OpenSpool(config.Spool, config.Partitions)
	if err != nil {
		return fmt.Errorf("Failed to open spool: %w", err)
	}
	defer spool.Close()

	fragments, err := spool.Get(tile.Path() + ".geojson")
	if err != nil {
		return fmt.Errorf("Failed to get tile: %w", err)
	}

	for _, f := range fragments {
		if cmd.Raw {
			os.Stdout.Write(f)
			os.Stdout.WriteString("\n")
			continue
		}

		feature := &geojson.Feature{}
		err := json.Unmarshal(f, feature)
		if err != nil {
			return err
		}
		fmt.Printf("%# v\n", pretty.Formatter(feature))
	}

	return nil
}
