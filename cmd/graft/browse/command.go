package browse

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"

	"github.com/graftdb/graft/local"
)

var Command = &cli.Command{
	Name:      "browse",
	Usage:     "interactively browse the graph, following committed changes live",
	ArgsUsage: "<database file>",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Usage:   "timeout for opening the database",
			Name:    "open-timeout",
			Value:   500 * time.Millisecond,
			EnvVars: []string{"OPEN_TIMEOUT"},
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
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

		return run(db)
	},
}
