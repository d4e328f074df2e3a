package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/burakmert236/goodswipe-escrow/common/config"
	"github.com/burakmert236/goodswipe-escrow/common/utils"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/app"
)

func main() {
	env := config.NewEnvLoader(config.EnvPrefix)
	if env.GetBool("LOAD_DOTENV", true) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to load .env: %v", err)
		}
	}

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "escrow-service",
		Short:         "Tournament escrow prize-pool ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	defaultPath := config.NewEnvLoader(config.EnvPrefix).GetString("CONFIG_PATH", "./config")
	root.PersistentFlags().StringVar(&configPath, "config", defaultPath, "directory containing config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the gRPC escrow server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply payout journal migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if err := app.Migrate(cfg); err != nil {
					return err
				}
				log.Println("Payout journal is up to date")
				return nil
			},
		},
	)

	return root
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application, appErr := app.New(ctx, cfg)
	if appErr != nil {
		return appErr
	}

	if appErr := application.Start(); appErr != nil {
		application.Stop()
		return appErr
	}

	utils.WaitForGracefulShutdown(ctx)

	if appErr := application.Stop(); appErr != nil {
		return appErr
	}
	return nil
}
