package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/graftdb/graft/cmd/graft/browse"
	"github.com/graftdb/graft/cmd/graft/cat"
	"github.com/graftdb/graft/cmd/graft/dump"
	"github.com/graftdb/graft/cmd/graft/ls"
	"github.com/graftdb/graft/cmd/graft/restore"
	"github.com/graftdb/graft/cmd/graft/stats"
)

func main() {
	app := &cli.App{
		Name:        "graft",
		Usage:       "Command line utility to inspect and manipulate graft database files",
		HideVersion: true,
		Commands: []*cli.Command{
			ls.Command,
			cat.Command,
			stats.Command,
			dump.Command,
			restore.Command,
			browse.Command,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
