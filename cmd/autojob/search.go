package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/adapter"
	"github.com/amishk599/autojob/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Web and GitHub search tools",
}

var searchJDCmd = &cobra.Command{
	Use:   "jd <company> <role>",
	Short: "Search LinkedIn job postings for a company and role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)
		cfg := mustLoad(logger)
		t := buildTools(cfg, newHTTPClient(cfg), logger)
		fmt.Fprintln(cmd.OutOrStdout(), searchJD(cmd.Context(), t.searcher, args[0], args[1]))
		return nil
	},
}

var searchMarketCmd = &cobra.Command{
	Use:   "market <tags...>",
	Short: "Find offer reports from candidates with a similar background",
	Long:  "Runs four Nowcoder and Zhihu searches for the given background tags (e.g. school, degree, skills).",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)
		cfg := mustLoad(logger)
		t := buildTools(cfg, newHTTPClient(cfg), logger)
		fmt.Fprintln(cmd.OutOrStdout(), searchMarket(cmd.Context(), t.searcher, strings.Join(args, " ")))
		return nil
	},
}

var searchGitHubCmd = &cobra.Command{
	Use:   "github <keywords...>",
	Short: "Find popular GitHub repositories for keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)
		cfg := mustLoad(logger)
		t := buildTools(cfg, newHTTPClient(cfg), logger)
		fmt.Fprintln(cmd.OutOrStdout(), searchGitHub(cmd.Context(), t.repos, strings.Join(args, " ")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchJDCmd, searchMarketCmd, searchGitHubCmd)
}

func searchJD(ctx context.Context, searcher model.WebSearcher, company, role string) string {
	results, err := searcher.Search(ctx, adapter.JDQuery(company, role), adapter.JDResultCount)
	if err != nil {
		return fmt.Sprintf("Error: Failed to search for job descriptions for %s %s: %v", company, role, err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No job postings found for %s %s.", company, role)
	}
	return strings.TrimRight(adapter.FormatResults(results), "\n")
}

func searchMarket(ctx context.Context, searcher model.WebSearcher, tags string) string {
	out, err := adapter.MarketSearch(ctx, searcher, tags)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

func searchGitHub(ctx context.Context, repos model.RepoSearcher, keywords string) string {
	found, err := repos.SearchRepos(ctx, keywords)
	if err != nil {
		return fmt.Sprintf("Error: Failed to search GitHub repositories for keywords '%s': %v", keywords, err)
	}
	if len(found) == 0 {
		return fmt.Sprintf("No GitHub repositories found for keywords '%s'. Try different keywords.", keywords)
	}
	return adapter.FormatRepos(found)
}
