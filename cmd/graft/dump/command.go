package dump

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"

	"github.com/graftdb/graft/dump"
	"github.com/graftdb/graft/local"
)

var Command = &cli.Command{
	Name:      "dump",
	Usage:     "write the whole graph as JSON lines to stdout or a file",
	ArgsUsage: "<database file> [output file]",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Usage:   "timeout for opening the database",
			Name:    "open-timeout",
			Value:   500 * time.Millisecond,
			EnvVars: []string{"OPEN_TIMEOUT"},
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("db file must be provided")
		}

		db, err := local.Open(c.Args().First(), 0700, local.Options{
			Options: bbolt.Options{
				Timeout:  c.Duration("open-timeout"),
				ReadOnly: true,
			},
		})
		if err != nil {
			return fmt.Errorf("while opening database: %w", err)
		}

		defer db.Close()

		var out io.Writer = os.Stdout

		if c.NArg() == 2 {
			f, err := os.Create(c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("while creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		return dump.Dump(db, out)
	},
}
