package ls

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/local"
)

var Command = &cli.Command{
	Name:      "ls",
	Aliases:   []string{"list"},
	Usage:     "list nodes or relationships in the database",
	ArgsUsage: "<database file>",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Usage:   "timeout for opening the database",
			Name:    "open-timeout",
			Value:   500 * time.Millisecond,
			EnvVars: []string{"OPEN_TIMEOUT"},
		},
		&cli.BoolFlag{
			Usage:   "list relationships instead of nodes",
			Name:    "relationships",
			Aliases: []string{"r"},
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
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

		return db.Read(func(tx graft.ReadTx) error {
			if c.Bool("relationships") {
				it, err := tx.Relationships()
				if err != nil {
					return err
				}

				for ; !it.IsDone(); it.Next() {
					r, err := it.GetRelationship()
					if err != nil {
						return err
					}
					fmt.Printf("%d\t%s\t%d -> %d\n", r.ID, r.Type, r.From, r.To)
				}
				return nil
			}

			it, err := tx.Nodes()
			if err != nil {
				return err
			}

			for ; !it.IsDone(); it.Next() {
				n, err := it.GetNode()
				if err != nil {
					return err
				}
				fmt.Printf("%d\t%s\n", n.ID, strings.Join(n.Labels, ":"))
			}
			return nil
		})
	},
}
