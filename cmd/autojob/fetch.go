package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/model"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Print the readable text of a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)
		cfg := mustLoad(logger)
		t := buildTools(cfg, newHTTPClient(cfg), logger)
		fmt.Fprintln(cmd.OutOrStdout(), fetchPage(cmd.Context(), t.fetcher, args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func fetchPage(ctx context.Context, fetcher model.PageFetcher, url string) string {
	text, err := fetcher.FetchPage(ctx, url)
	if err != nil {
		return fmt.Sprintf("Error: Failed to visit and extract content from URL '%s': %v", url, err)
	}
	return text
}
