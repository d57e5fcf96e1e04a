package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/agenthub-labs/agenthub/internal/branding"
	"github.com/agenthub-labs/agenthub/internal/config"
	"github.com/agenthub-labs/agenthub/internal/manifest"
	"github.com/spf13/cobra"
)

var openYes bool

// openCmd handles agenthub:// deep links forwarded by the OS handler,
// e.g. agenthub://install?artifactId=x&catalogRepoUrl=...&catalogPath=...
var openCmd = &cobra.Command{
	Use:    "open <url>",
	Short:  "Handle an agenthub:// deep link",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runOpen,
}

func init() {
	openCmd.Flags().BoolVarP(&openYes, "yes", "y", false, "Subscribe to unknown catalogs without asking")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	u, err := url.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid deep link: %w", err)
	}
	if u.Scheme != branding.CLIName() {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host != "install" {
		return fmt.Errorf("unsupported deep link action %q", u.Host)
	}

	q := u.Query()
	artifactID := q.Get("artifactId")
	artifactType := q.Get("artifactType")
	repoURL := q.Get("catalogRepoUrl")
	catalogPath := q.Get("catalogPath")
	if artifactID == "" || artifactType == "" || repoURL == "" {
		return fmt.Errorf("deep link is missing artifactId, artifactType, or catalogRepoUrl")
	}
	if !slices.Contains(manifest.ValidTypes, artifactType) {
		return fmt.Errorf("unknown artifact type %q in deep link", artifactType)
	}
	if catalogPath == "" {
		catalogPath = branding.DefaultCatalogFile()
	}
	if source := q.Get("source"); source != "" {
		slog.Debug("handling deep link", "source", source, "artifact", artifactID)
	}

	manifestURL := strings.TrimSuffix(repoURL, "/") + "/" + strings.TrimPrefix(catalogPath, "/")
	catalogID, err := deriveCatalogID(manifestURL)
	if err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	repo, err := config.FindRepository(catalogID)
	if err != nil {
		return err
	}
	if repo == nil {
		if !openYes && !confirm(cmd, fmt.Sprintf("Subscribe to catalog %q at %s?", catalogID, manifestURL)) {
			return fmt.Errorf("subscription declined")
		}
		newRepo := config.Repository{ID: catalogID, URL: manifestURL, Enabled: true}
		if err := app.syncer.AddCatalog(cmd.Context(), newRepo); err != nil {
			return fmt.Errorf("syncing catalog: %w", err)
		}
		repos, err := config.Repositories()
		if err != nil {
			return err
		}
		if err := config.SetRepositories(append(repos, newRepo)); err != nil {
			return fmt.Errorf("saving subscription: %w", err)
		}
		repo = &newRepo
	}

	artifact, err := resolveArtifactRef(app, artifactID, repo.ID)
	if err != nil {
		return err
	}
	if artifact.Type != artifactType {
		return fmt.Errorf("artifact %q is a %s, deep link expects a %s", artifactID, artifact.Type, artifactType)
	}
	res := app.installer.Install(cmd.Context(), artifact, app.authFor(repo.ID))
	if !res.Success {
		return fmt.Errorf("installing %q: %s", artifactID, res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s to %s\n", artifact.ID, artifact.Version, res.Path)
	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
