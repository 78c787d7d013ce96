package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report subcommands",
}

var reportWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Save a Markdown report",
	Long:  "Writes --content (or stdin when --content is empty) to --file inside the configured report directory.",
	RunE:  runReportWrite,
}

var reportFlags struct {
	file    string
	content string
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportWriteCmd)
	reportWriteCmd.Flags().StringVarP(&reportFlags.file, "file", "f", report.DefaultFilename, "report filename (directories are stripped)")
	reportWriteCmd.Flags().StringVar(&reportFlags.content, "content", "", "report content (default: read stdin)")
}

func runReportWrite(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)
	out := cmd.OutOrStdout()

	content := reportFlags.content
	if content == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			fmt.Fprintf(out, "Error: read report content: %v\n", err)
			return nil
		}
		content = string(data)
	}

	fmt.Fprintln(out, writeReport(report.NewWriter(cfg.Report.Dir, logger), reportFlags.file, content))
	return nil
}

func writeReport(w *report.Writer, filename, content string) string {
	name, abs, err := w.Write(filename, content)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Report successfully saved to %s (full path: %s)", name, abs)
}
