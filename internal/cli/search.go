package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/agenthub-labs/agenthub/internal/search"
	"github.com/agenthub-labs/agenthub/internal/store"
	"github.com/spf13/cobra"
)

var (
	searchTypes       []string
	searchCategories  []string
	searchTags        []string
	searchDifficulty  []string
	searchCatalogs    []string
	searchLanguages   []string
	searchFrameworks  []string
	searchSort        string
	searchPage        int
	searchPageSize    int
	searchJSON        bool
	searchShowFilters bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed catalog artifacts",
	Long: `Search the local artifact index across all subscribed catalogs.

The query matches artifact names, descriptions, tags, keywords, and
categories via the full-text index; results are ranked by relevance
unless --sort picks another order. All filters are AND-combined.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "Filter by artifact type (chatmode, instructions, prompt, task, profile, agent)")
	searchCmd.Flags().StringSliceVar(&searchCategories, "category", nil, "Filter by category")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "Filter by tag (matches any)")
	searchCmd.Flags().StringSliceVar(&searchDifficulty, "difficulty", nil, "Filter by difficulty (beginner, intermediate, advanced)")
	searchCmd.Flags().StringSliceVar(&searchCatalogs, "catalog", nil, "Filter by catalog id")
	searchCmd.Flags().StringSliceVar(&searchLanguages, "language", nil, "Filter by language")
	searchCmd.Flags().StringSliceVar(&searchFrameworks, "framework", nil, "Filter by framework")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "Sort order (relevance, rating, downloads, updated)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", search.DefaultPageSize, "Results per page")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	searchCmd.Flags().BoolVar(&searchShowFilters, "facets", false, "List known categories and tags instead of searching")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if searchShowFilters {
		return printFacets(cmd, app)
	}

	query := search.Query{
		Types:        searchTypes,
		Categories:   searchCategories,
		Tags:         searchTags,
		Difficulties: searchDifficulty,
		Catalogs:     searchCatalogs,
		Languages:    searchLanguages,
		Frameworks:   searchFrameworks,
		SortBy:       store.Sort(searchSort),
		Page:         searchPage,
		PageSize:     searchPageSize,
	}
	if len(args) > 0 {
		query.Text = args[0]
	}

	result, err := app.searcher.Search(query)
	if err != nil {
		return fmt.Errorf("searching artifacts: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if result.Total == 0 {
		msg := "No artifacts found"
		if query.Text != "" {
			msg += fmt.Sprintf(" matching %q", query.Text)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CATALOG\tID\tTYPE\tVERSION\tNAME\tDESCRIPTION")
	for _, a := range result.Artifacts {
		name := a.Name
		if a.Installed {
			name += " *"
		}
		desc := truncate(a.Description, 60)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.CatalogID, a.ID, a.Type, a.Version, name, desc)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d: %d of %d artifacts", result.Page, len(result.Artifacts), result.Total)
	if result.HasMore {
		fmt.Fprintf(cmd.OutOrStdout(), " (more with --page %d)", result.Page+1)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "  (* installed)")
	return nil
}

// truncate shortens s to max runes, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func printFacets(cmd *cobra.Command, app *app) error {
	categories, err := app.searcher.Categories()
	if err != nil {
		return err
	}
	tags, err := app.searcher.Tags()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Categories: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(cmd.OutOrStdout(), "Tags:       %s\n", strings.Join(tags, ", "))
	return nil
}
