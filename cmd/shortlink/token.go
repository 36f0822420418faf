package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/auth"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <owner-id>",
	Short: "Issue a bearer token for an owner.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is not configured")
		}

		token, err := auth.NewIssuer(cfg.Auth.JWTSecret).Issue(args[0], tokenTTL)
		if err != nil {
			return err
		}

		cmd.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
