package stats

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/local"
)

var Command = &cli.Command{
	Name:      "stats",
	Usage:     "print size and content statistics of the database",
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

		file := c.Args().First()

		fi, err := os.Stat(file)
		if err != nil {
			return fmt.Errorf("while getting file info: %w", err)
		}

		db, err := local.Open(file, 0700, local.Options{
			Options: bbolt.Options{
				Timeout:  c.Duration("open-timeout"),
				ReadOnly: true,
			},
		})
		if err != nil {
			return fmt.Errorf("while opening database: %w", err)
		}

		defer db.Close()

		nodes := 0
		relationships := 0

		err = db.Read(func(tx graft.ReadTx) error {
			nit, err := tx.Nodes()
			if err != nil {
				return err
			}
			for ; !nit.IsDone(); nit.Next() {
				nodes++
			}

			rit, err := tx.Relationships()
			if err != nil {
				return err
			}
			for ; !rit.IsDone(); rit.Next() {
				relationships++
			}

			return nil
		})
		if err != nil {
			return err
		}

		st, err := db.Stats()
		if err != nil {
			return fmt.Errorf("while getting db stats: %w", err)
		}

		fmt.Printf("file size:      %s\n", humanize.Bytes(uint64(fi.Size())))
		fmt.Printf("nodes:          %s\n", humanize.Comma(int64(nodes)))
		fmt.Printf("relationships:  %s\n", humanize.Comma(int64(relationships)))
		fmt.Printf("free pages:     %s\n", humanize.Comma(int64(st.FreePageN)))
		fmt.Printf("pending pages:  %s\n", humanize.Comma(int64(st.PendingPageN)))
		fmt.Printf("free allocated: %s\n", humanize.Bytes(uint64(st.FreeAlloc)))
		fmt.Printf("freelist in use: %s\n", humanize.Bytes(uint64(st.FreelistInuse)))

		return nil
	},
}
