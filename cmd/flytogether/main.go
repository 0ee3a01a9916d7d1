package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mohammad-safakhou/flytogether/config"
	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:           "flytogether",
		Short:         "Shared flight wishlists backed by live flight offers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; real environment variables win
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./config/config.json)")
	load := func() (*config.Config, error) { return config.Load(cfgPath) }

	root.AddCommand(serveCMD(load), migrateCMD(load), refreshCMD(load), tokenCMD(load))
	if err := root.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
