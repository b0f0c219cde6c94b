package main

import (
	"github.com/rubenv/fgdtiles/cmd"
	log "github.com/sirupsen/logrus"
)

func main() {
	err := cmd.Run()
	if err != nil {
		log.Fatal(err.Error())
	}
}
