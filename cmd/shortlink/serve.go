package main

import (
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the redirect endpoint.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return app.Run(cmd.Context(), cfg)
	},
}
