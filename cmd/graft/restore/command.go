package restore

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
	Name:      "restore",
	Usage:     "replay a JSON lines dump into the database",
	ArgsUsage: "<database file> [input file]",
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
				Timeout: c.Duration("open-timeout"),
			},
		})
		if err != nil {
			return fmt.Errorf("while opening database: %w", err)
		}

		defer db.Close()

		var in io.Reader = os.Stdin

		if c.NArg() == 2 {
			f, err := os.Open(c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("while opening input file: %w", err)
			}
			defer f.Close()
			in = f
		}

		return dump.Restore(db, in)
	},
}
