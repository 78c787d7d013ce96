package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample job record through the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	n := setupNotifier(cfg, newHTTPClient(cfg), logger)
	if err := notifier.SendTestMessage(n); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
