package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/ai"
	"github.com/amishk599/autojob/internal/audit"
	"github.com/amishk599/autojob/internal/config"
	"github.com/amishk599/autojob/internal/model"
	"github.com/amishk599/autojob/internal/store"
)

var jdCmd = &cobra.Command{
	Use:   "jd",
	Short: "Query and update the job description cache",
}

var jdQueryCmd = &cobra.Command{
	Use:   "query <tags...>",
	Short: "Find cached job descriptions by tags",
	Long:  "Tags are split on commas and whitespace; a record matches when any tag is found in its tags, company, role, location or content.",
	RunE:  runJDQuery,
}

var jdSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a job description to the cache",
	RunE:  runJDSave,
}

var jdListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every cached job description",
	RunE:  runJDList,
}

var jdBrowseCmd = &cobra.Command{
	Use:   "browse [tags...]",
	Short: "Browse cached job descriptions interactively (TUI)",
	Long:  "Shows a query picker (unless tags are given), then the split-pane view of all records versus matching records.",
	RunE:  runJDBrowse,
}

var saveFlags struct {
	company     string
	role        string
	location    string
	salary      string
	content     string
	contentFile string
	tags        string
	suggestTags bool
}

func init() {
	rootCmd.AddCommand(jdCmd)
	jdCmd.AddCommand(jdQueryCmd, jdSaveCmd, jdListCmd, jdBrowseCmd)

	f := jdSaveCmd.Flags()
	f.StringVar(&saveFlags.company, "company", "", "company name (required)")
	f.StringVar(&saveFlags.role, "role", "", "role title (required)")
	f.StringVar(&saveFlags.location, "location", "", "work location")
	f.StringVar(&saveFlags.salary, "salary", "", "salary range")
	f.StringVar(&saveFlags.content, "content", "", "job description text")
	f.StringVar(&saveFlags.contentFile, "content-file", "", "read the job description from a file")
	f.StringVar(&saveFlags.tags, "tags", "", "comma or space separated tags")
	f.BoolVar(&saveFlags.suggestTags, "suggest-tags", false, "add AI-suggested tags (requires ai.enabled)")
	jdSaveCmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

func runJDQuery(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	fmt.Fprintln(cmd.OutOrStdout(), queryRecords(st, strings.Join(args, " ")))
	return nil
}

func queryRecords(st model.RecordStore, tags string) string {
	return store.FormatQueryResult(st.Query(tags))
}

func runJDSave(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)
	out := cmd.OutOrStdout()

	content := saveFlags.content
	if saveFlags.contentFile != "" {
		data, err := os.ReadFile(saveFlags.contentFile)
		if err != nil {
			fmt.Fprintf(out, "Error: read content file: %v\n", err)
			return nil
		}
		content = string(data)
	}

	in := model.RecordInput{
		Company:  saveFlags.company,
		Role:     saveFlags.role,
		Location: saveFlags.location,
		Salary:   saveFlags.salary,
		Content:  content,
		Tags:     saveFlags.tags,
	}

	if saveFlags.suggestTags {
		if !cfg.AI.Enabled {
			logger.Warn("--suggest-tags ignored: ai.enabled is false")
		} else {
			in.Tags = withSuggestedTags(cmd.Context(), setupTagger(cfg, logger), in, logger)
		}
	}

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	fmt.Fprintln(out, saveRecord(st, in))
	return nil
}

// withSuggestedTags appends tagger suggestions to in.Tags. Failures keep the
// caller's tags.
func withSuggestedTags(ctx context.Context, tagger model.TagSuggester, in model.RecordInput, logger *slog.Logger) string {
	suggested, err := tagger.SuggestTags(ctx, in)
	if err != nil {
		logger.Warn("tag suggestion failed", "error", err)
		return in.Tags
	}
	var split []string
	for _, t := range suggested {
		split = append(split, model.SplitTags(t)...)
	}
	return strings.Join(ai.MergeTags(0, model.SplitTags(in.Tags), split), ", ")
}

// saveRecord saves in and renders the outcome as a one-line message.
func saveRecord(st model.RecordStore, in model.RecordInput) string {
	_, err := st.Save(in)
	var verr *model.ValidationError
	switch {
	case err == nil:
		return "Job saved successfully."
	case errors.As(err, &verr):
		return "Error: Company and role are required fields."
	default:
		return fmt.Sprintf("Error: Failed to save job to database: %v", err)
	}
}

func runJDList(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	printRecordTable(cmd.OutOrStdout(), st.All())
	return nil
}

func printRecordTable(w io.Writer, records []model.JobRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No job descriptions cached yet.")
		return
	}

	fmt.Fprintf(w, "%-10s  %-20s  %-28s  %-14s  %s\n", "Date", "Company", "Role", "Location", "Tags")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, r := range records {
		fmt.Fprintf(w, "%-10s  %-20s  %-28s  %-14s  %s\n",
			r.Date,
			fitColumn(r.Company, 20),
			fitColumn(r.Role, 28),
			fitColumn(r.Location, 14),
			strings.Join(r.Tags, ", "),
		)
	}
	fmt.Fprintf(w, "\nTotal: %d job descriptions\n", len(records))
}

// fitColumn cuts s so that it occupies at most width runes, marker included.
func fitColumn(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return store.TruncateContent(s, width-len(store.TruncationMarker))
}

func runJDBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	// Any log output before the alt-screen starts corrupts the display.
	st, closeStore, err := openStore(cfg, silentLogger())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if len(args) > 0 {
		tags := strings.Join(args, " ")
		if _, err := audit.RunAuditTUI(st.All(), tags); err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		return nil
	}

	options := browseOptions(cfg.Harvest.Targets)
	for {
		choice, err := audit.RunQueryPicker(options)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}

		// Re-read each round so saves made while browsing show up.
		wantQuit, err := audit.RunAuditTUI(st.All(), options[choice].Tags)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}

// browseOptions lists "All records" followed by one query per harvest target.
func browseOptions(targets []config.TargetConfig) []audit.QueryOption {
	options := []audit.QueryOption{{Label: "All records"}}
	for _, t := range targets {
		tags := strings.TrimSpace(t.Tags)
		if tags == "" {
			tags = t.Company
		}
		options = append(options, audit.QueryOption{
			Label: t.Company + " / " + t.Role,
			Tags:  tags,
		})
	}
	return options
}
