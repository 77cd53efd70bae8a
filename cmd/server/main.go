package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/app"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var inMemory bool

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, app.Options{InMemory: inMemory})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return a.Run(ctx)
	}

	root := &cobra.Command{
		Use:           "bookmarket",
		Short:         "Book marketplace API: listing wizard, marketplace browsing and cart checkout",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml or its directory")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC ops server",
		RunE:  serve,
	}
	root.Flags().BoolVar(&inMemory, "in-memory", false, "use in-process stores instead of MongoDB, Redis, MinIO and NATS")
	serveCmd.Flags().BoolVar(&inMemory, "in-memory", false, "use in-process stores instead of MongoDB, Redis, MinIO and NATS")

	indexesCmd := &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes used by marketplace queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := app.EnsureIndexes(ctx, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes are up to date")
			return nil
		},
	}

	root.AddCommand(serveCmd, indexesCmd)
	return root
}
