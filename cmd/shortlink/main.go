package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

const defaultConfigPath = "./configs/config.yml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "shortlink",
	Short:         "Short link service with visit analytics.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", path, "path to the YAML config file")

	rootCmd.AddCommand(serveCmd, migrateCmd, createCmd, statsCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
