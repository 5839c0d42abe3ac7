/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillpress/server/config"
	"github.com/quillpress/server/internal/mq"
	"github.com/quillpress/server/internal/services"
)

// notifierCmd represents the notifier command
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consumes inquiry and comment events from the broker",
	Long: `Consumes contact-form inquiry and new-comment events from the
configured message broker and logs them for the operator. Usage:

	quillpress notifier
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		broker, err := mq.FromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		if broker == nil {
			fmt.Fprintln(os.Stderr, "MQ_BACKEND is required for the notifier")
			os.Exit(1)
		}
		defer broker.Close()

		notifier := services.NewNotifier(broker, log)
		if err := notifier.Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "notifier error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
