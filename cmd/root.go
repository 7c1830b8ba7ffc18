package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/electrosur/storefront/internal/config"
	"github.com/electrosur/storefront/internal/constants"
	"github.com/electrosur/storefront/internal/log"
)

func Start() {
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get(c, constants.AppStorefrontService)
	logger := log.Get(
		filepath.Join("/var/log/", constants.AppStorefrontService+".log"),
		cfg.Application.Env,
	).
		With().
		Str(log.KeyAppName, constants.AppStorefrontService).
		Str(log.KeyTag, "main Start").
		Logger()
	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: constants.AppStorefrontService}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "server",
		Short: "Run the storefront order service",
		Run: func(cmd *cobra.Command, args []string) {
			RunServer(cmd.Context())
		},
	})
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
