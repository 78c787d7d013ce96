package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/resume"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume subcommands",
}

var resumeReadCmd = &cobra.Command{
	Use:   "read <path.pdf>",
	Short: "Print the text of a PDF resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := resume.NewReader(setupLogger(debug))
		fmt.Fprintln(cmd.OutOrStdout(), readResume(r, args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.AddCommand(resumeReadCmd)
}

func readResume(r *resume.Reader, path string) string {
	text, err := r.Read(path)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return text
}
