package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agenthub-labs/agenthub/internal/manifest"
	"github.com/agenthub-labs/agenthub/internal/store"
	"github.com/spf13/cobra"
)

var installCatalog string

var installCmd = &cobra.Command{
	Use:   "install <artifact>",
	Short: "Install an artifact into the workspace",
	Long: `Install an artifact from a subscribed catalog. The artifact may be
given as <catalog-id>/<artifact-id>, or as a bare artifact id when it
is unique across catalogs (or --catalog narrows it down).

Profiles install themselves plus every artifact they depend on; a
failing dependency does not abort the rest of the profile.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installCatalog, "catalog", "", "Catalog id to install from")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	artifact, err := resolveArtifactRef(app, args[0], installCatalog)
	if err != nil {
		return err
	}
	authCfg := app.authFor(artifact.CatalogID)

	if artifact.Type == manifest.TypeProfile {
		batch := app.installer.InstallProfile(cmd.Context(), artifact, authCfg)
		for _, msg := range batch.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", msg)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q: %d installed, %d failed.\n",
			artifact.ID, batch.Succeeded, batch.Failed)
		if batch.Failed > 0 {
			return fmt.Errorf("%d artifacts failed to install", batch.Failed)
		}
		return nil
	}

	res := app.installer.Install(cmd.Context(), artifact, authCfg)
	if !res.Success {
		return fmt.Errorf("installing %q: %s", artifact.ID, res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s to %s\n", artifact.ID, artifact.Version, res.Path)
	return nil
}

// resolveArtifactRef locates an artifact by "<catalog>/<id>" or bare id.
// A bare id must be unique across subscribed catalogs unless catalogID
// narrows the lookup.
func resolveArtifactRef(app *app, ref, catalogID string) (*store.Artifact, error) {
	if catalogID == "" {
		if cat, id, ok := strings.Cut(ref, "/"); ok {
			catalogID, ref = cat, id
		}
	}
	if catalogID != "" {
		artifact, err := app.store.GetArtifact(catalogID, ref)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("artifact %q not found in catalog %q", ref, catalogID)
		}
		return artifact, err
	}

	catalogs, err := app.store.ListCatalogs()
	if err != nil {
		return nil, err
	}

	var matches []*store.Artifact
	for _, c := range catalogs {
		artifact, err := app.store.GetArtifact(c.ID, ref)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		matches = append(matches, artifact)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("artifact %q not found in any subscribed catalog", ref)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.CatalogID + "/" + m.ID
		}
		return nil, fmt.Errorf("artifact %q is ambiguous, use one of: %s", ref, strings.Join(ids, ", "))
	}
}
