package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

var createFlags struct {
	url       string
	alias     string
	owner     string
	password  string
	expiresIn time.Duration
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a short link.",
	Long: `Creates a short link and prints its short URL.

Example:
  shortlink create --url="https://go.dev/doc" --alias=go-docs --expires-in=72h`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		in := usecase.CreateLinkInput{
			Destination:       createFlags.url,
			Alias:             createFlags.alias,
			OwnerID:           createFlags.owner,
			PasswordProtected: createFlags.password != "",
			Password:          createFlags.password,
		}
		if createFlags.expiresIn > 0 {
			expiresAt := time.Now().UTC().Add(createFlags.expiresIn)
			in.ExpiresAt = &expiresAt
		}

		link, err := a.Links.Create(cmd.Context(), in)
		if err != nil {
			return err
		}

		cmd.Printf("id: %d\n", link.ID)
		cmd.Printf("short url: %s/%s\n", strings.TrimRight(cfg.BaseURL, "/"), link.Handle())
		if link.Alias != "" {
			cmd.Printf("token url: %s/%s\n", strings.TrimRight(cfg.BaseURL, "/"), link.Token)
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createFlags.url, "url", "u", "", "destination URL")
	createCmd.Flags().StringVar(&createFlags.alias, "alias", "", "custom alias")
	createCmd.Flags().StringVar(&createFlags.owner, "owner", "", "owner id")
	createCmd.Flags().StringVar(&createFlags.password, "password", "", "protect the link with a password")
	createCmd.Flags().DurationVar(&createFlags.expiresIn, "expires-in", 0, "lifetime of the link, e.g. 24h")

	createCmd.MarkFlagRequired("url")
}
