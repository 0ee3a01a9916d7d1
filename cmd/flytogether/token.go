package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/flytogether/config"
	srv "github.com/mohammad-safakhou/flytogether/internal/server"
	"github.com/spf13/cobra"
)

func tokenCMD(load func() (*config.Config, error)) *cobra.Command {
	var subject string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed identity token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return errors.New("jwt secret not configured (server.jwt_secret)")
			}
			if subject == "" {
				return errors.New("--sub is required")
			}
			signed, err := srv.SignJWT(subject, []byte(cfg.Server.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	token.Flags().StringVar(&subject, "sub", "", "token subject (user id)")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return token
}
