package cat

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/local"
)

var Command = &cli.Command{
	Name:      "cat",
	Usage:     "print one node or relationship as JSON",
	ArgsUsage: "<database file> <node|relationship> <id>",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Usage:   "timeout for opening the database",
			Name:    "open-timeout",
			Value:   500 * time.Millisecond,
			EnvVars: []string{"OPEN_TIMEOUT"},
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return fmt.Errorf("db file, entity kind and id must be provided")
		}

		kind := c.Args().Get(1)

		id, err := strconv.ParseUint(c.Args().Get(2), 10, 64)
		if err != nil {
			return fmt.Errorf("while parsing id %s: %w", c.Args().Get(2), err)
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
			var entity any

			switch kind {
			case "node":
				n, err := tx.Node(graft.NodeID(id))
				if err != nil {
					return err
				}
				entity = n
			case "relationship":
				r, err := tx.Relationship(graft.RelationshipID(id))
				if err != nil {
					return err
				}
				entity = r
			default:
				return fmt.Errorf("unknown entity kind %q", kind)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entity)
		})
	},
}
