package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mohammad-safakhou/flytogether/config"
	srv "github.com/mohammad-safakhou/flytogether/internal/server"
	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/spf13/cobra"
)

func refreshCMD(load func() (*config.Config, error)) *cobra.Command {
	var all bool
	refresh := &cobra.Command{
		Use:   "refresh [session-id...]",
		Short: "Refresh saved wishlists against current offers once and print the reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass session ids or --all")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := srv.NewRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids := args
			if all {
				lister, ok := rt.Store.(store.Lister)
				if !ok {
					return fmt.Errorf("storage driver %s cannot list sessions", cfg.Storage.Driver)
				}
				if ids, err = lister.ListIDs(ctx); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			var failed int
			for _, id := range ids {
				rep, err := rt.Refresher.Refresh(ctx, id)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
					continue
				}
				if err := enc.Encode(rep); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d refreshes failed", failed, len(ids))
			}
			return nil
		},
	}
	refresh.Flags().BoolVar(&all, "all", false, "refresh every stored session")
	return refresh
}
