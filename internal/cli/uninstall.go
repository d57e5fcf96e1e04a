package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var uninstallCatalog string

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <artifact>",
	Short: "Remove an installed artifact",
	Long: `Remove an installed artifact's file from the workspace and forget its
installation record. A file already deleted by hand is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVar(&uninstallCatalog, "catalog", "", "Catalog id the artifact was installed from")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	catalogID, artifactID := uninstallCatalog, args[0]
	if catalogID == "" {
		if cat, id, ok := strings.Cut(artifactID, "/"); ok {
			catalogID, artifactID = cat, id
		}
	}
	if catalogID == "" {
		installs, err := app.store.ListInstallations()
		if err != nil {
			return err
		}
		for _, inst := range installs {
			if inst.ArtifactID == artifactID {
				if catalogID != "" {
					return fmt.Errorf("artifact %q is installed from multiple catalogs, use <catalog>/<id>", artifactID)
				}
				catalogID = inst.CatalogID
			}
		}
		if catalogID == "" {
			return fmt.Errorf("artifact %q is not installed", artifactID)
		}
	}

	res := app.installer.Uninstall(catalogID, artifactID)
	if !res.Success {
		return fmt.Errorf("uninstalling %q: %s", artifactID, res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s (removed %s)\n", artifactID, res.Path)
	return nil
}
