package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voice-assistant-backend/internal/client"
	"voice-assistant-backend/internal/config"
	"voice-assistant-backend/internal/logger"
)

func main() {
	cfg := config.LoadClient()

	var logLevel string
	rootCmd := &cobra.Command{
		Use:   "voice-client",
		Short: "Send typed queries to the voice assistant and print its replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(logLevel, "console")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			log.Debug("voice client starting",
				zap.String("api_url", cfg.APIURL),
				zap.String("user_id", cfg.UserID),
				zap.Duration("timeout", cfg.Timeout),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			relay := client.New(cfg, log)
			return relay.Interact(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Server relay endpoint (env API_URL)")
	rootCmd.Flags().StringVar(&cfg.UserID, "user-id", cfg.UserID, "User id sent with every query (env USER_ID)")
	rootCmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
