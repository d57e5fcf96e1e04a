package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/config"
	"github.com/spf13/cobra"
)

var (
	catalogAddID       string
	catalogAddToken    string
	catalogAddUsername string
	catalogAddPassword string
	catalogListJSON    bool
)

func init() {
	catalogAddCmd.Flags().StringVar(&catalogAddID, "id", "", "Catalog id (derived from the URL when omitted)")
	catalogAddCmd.Flags().StringVar(&catalogAddToken, "token", "", "Bearer token, or a ${secret:KEY}/${env:VAR} reference")
	catalogAddCmd.Flags().StringVar(&catalogAddUsername, "username", "", "Basic auth username")
	catalogAddCmd.Flags().StringVar(&catalogAddPassword, "password", "", "Basic auth password, or a ${secret:KEY}/${env:VAR} reference")
	catalogListCmd.Flags().BoolVar(&catalogListJSON, "json", false, "Output in JSON format")

	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage subscribed artifact catalogs",
	Long: `Subscribe to, list, refresh, and remove artifact catalogs.

A catalog is a JSON manifest served over HTTP that lists installable
artifacts. Subscriptions are stored in ~/.agenthub/config.yaml; the
synced artifact index lives in a local database and is what the search
and install commands read.`,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <manifest-url>",
	Short: "Subscribe to a catalog and sync it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogAdd,
}

func runCatalogAdd(cmd *cobra.Command, args []string) error {
	manifestURL := args[0]

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	id := catalogAddID
	if id == "" {
		if id, err = deriveCatalogID(manifestURL); err != nil {
			return err
		}
	}

	existing, err := config.FindRepository(id)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("catalog %q is already subscribed", id)
	}

	repo := config.Repository{
		ID:      id,
		URL:     manifestURL,
		Enabled: true,
		Auth:    catalogAddAuth(),
	}

	// Save the subscription first: a failed initial sync leaves the
	// catalog subscribed and marked unhealthy, so 'catalog refresh'
	// can heal it and 'catalog remove' can drop it.
	repos, err := config.Repositories()
	if err != nil {
		return err
	}
	if err := config.SetRepositories(append(repos, repo)); err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}

	if err := app.syncer.AddCatalog(cmd.Context(), repo); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: initial sync failed: %v\n", err)
		fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to catalog %q; sync failed, retry with 'catalog refresh %s'.\n", id, id)
		return nil
	}

	count, err := app.store.CountArtifacts(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to catalog %q (%d artifacts).\n", id, count)
	return nil
}

// catalogAddAuth assembles the auth config from the add flags.
func catalogAddAuth() *auth.Config {
	switch {
	case catalogAddToken != "":
		return &auth.Config{Type: auth.TypeBearer, Token: catalogAddToken}
	case catalogAddUsername != "" || catalogAddPassword != "":
		return &auth.Config{Type: auth.TypeBasic, Username: catalogAddUsername, Password: catalogAddPassword}
	default:
		return nil
	}
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <catalog-id>",
	Short: "Unsubscribe from a catalog",
	Long: `Unsubscribe from a catalog and drop its indexed artifacts and
installation records. Files already installed in the workspace are left
in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		repos, err := config.Repositories()
		if err != nil {
			return err
		}
		kept := repos[:0]
		found := false
		for _, r := range repos {
			if r.ID == id {
				found = true
				continue
			}
			kept = append(kept, r)
		}
		if !found {
			return fmt.Errorf("catalog %q is not subscribed", id)
		}

		if err := app.syncer.RemoveCatalog(id); err != nil {
			return err
		}
		if err := config.SetRepositories(kept); err != nil {
			return fmt.Errorf("saving subscriptions: %w", err)
		}
		if err := app.secrets.Delete(id); err != nil {
			return fmt.Errorf("removing stored token: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed catalog %q.\n", id)
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscribed catalogs and their sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		catalogs, err := app.store.ListCatalogs()
		if err != nil {
			return err
		}
		if len(catalogs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No catalogs subscribed. Add one with 'catalog add <url>'.")
			return nil
		}

		if catalogListJSON {
			data, err := json.MarshalIndent(catalogs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tARTIFACTS\tLAST FETCHED")
		for _, c := range catalogs {
			count, err := app.store.CountArtifacts(c.ID)
			if err != nil {
				return err
			}
			status := string(c.Status)
			if c.Status == "" {
				status = "never synced"
			}
			fetched := "-"
			if c.LastFetched != nil {
				fetched = c.LastFetched.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Metadata.Name, status, count, fetched)
		}
		return w.Flush()
	},
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh [catalog-id]",
	Short: "Re-sync one catalog, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		repos, err := config.Repositories()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			id := args[0]
			for _, r := range repos {
				if r.ID == id {
					if err := app.syncer.Refresh(cmd.Context(), r); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Catalog %q refreshed.\n", id)
					return nil
				}
			}
			return fmt.Errorf("catalog %q is not subscribed", id)
		}

		errs := app.syncer.RefreshAll(cmd.Context(), repos)
		for id, err := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "catalog %s: %v\n", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d catalogs (%d failed).\n", len(repos), len(errs))
		if len(errs) > 0 {
			return fmt.Errorf("%d catalogs failed to refresh", len(errs))
		}
		return nil
	},
}

var catalogIDJunk = regexp.MustCompile(`[^a-z0-9-]+`)

// deriveCatalogID builds a catalog id from the last two path segments
// of the manifest URL, e.g. .../acme/prompts/catalog.json -> acme-prompts.
func deriveCatalogID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid catalog url %q", rawURL)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	var parts []string
	for _, s := range segments {
		if s == "" {
			continue
		}
		s = strings.TrimSuffix(s, ".json")
		s = strings.TrimSuffix(s, ".git")
		parts = append(parts, s)
	}
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	if len(parts) == 0 {
		parts = []string{u.Hostname()}
	}

	id := strings.ToLower(strings.Join(parts, "-"))
	id = catalogIDJunk.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")
	if id == "" {
		return "", fmt.Errorf("cannot derive a catalog id from %q", rawURL)
	}
	return id, nil
}
