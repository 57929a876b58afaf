package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-bigfive/internal/db"
	"github.com/mind-engage/mindengage-bigfive/internal/freecode"
)

func newFreeCodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freecode",
		Short: "Issue and inspect one-time report codes",
	}

	var count int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Create unused free codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := a.freeCodes(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			for i := 0; i < count; i++ {
				code, err := store.Generate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
	generate.Flags().IntVarP(&count, "count", "n", 1, "number of codes")

	list := &cobra.Command{
		Use:   "list",
		Short: "List issued codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := a.freeCodes(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				state := "unused"
				if e.Used {
					state = "used"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.Code, state, time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.AddCommand(generate, list)
	return cmd
}

func (a *app) freeCodes(ctx context.Context) (*freecode.Store, func(), error) {
	dbh, err := db.Open(ctx, db.Driver(a.cfg.DBDriver), a.cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	return freecode.NewStore(dbh), func() { _ = dbh.Close() }, nil
}
