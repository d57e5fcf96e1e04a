package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	updateAll   bool
	updateCheck bool
)

var updateCmd = &cobra.Command{
	Use:   "update [artifact]",
	Short: "Update installed artifacts to their catalog versions",
	Long: `Check installed artifacts against the synced catalog index and
re-install those with a newer version. With --check, only report what
would update. Named without flags, updates a single artifact.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "Update every outdated artifact")
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Report available updates without installing")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	updates, err := app.updates.CheckForUpdates(cmd.Context(), app.authFor)
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	if len(args) == 1 && !updateAll {
		target := args[0]
		for _, u := range updates {
			if u.Installation.ArtifactID != target {
				continue
			}
			if updateCheck {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", target, u.Installation.Version, u.LatestVersion)
				return nil
			}
			return applyUpdate(cmd, app, u.Installation.CatalogID, target, u.LatestVersion)
		}
		return fmt.Errorf("artifact %q has no update available", target)
	}

	if len(updates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "All installed artifacts are up to date.")
		return nil
	}

	if updateCheck || !updateAll {
		for _, u := range updates {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: %s -> %s\n",
				u.Installation.CatalogID, u.Installation.ArtifactID,
				u.Installation.Version, u.LatestVersion)
			if u.Changelog != "" {
				fmt.Fprintln(cmd.OutOrStdout(), indent(u.Changelog, "    "))
			}
		}
		if !updateAll && !updateCheck {
			fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'update --all' to apply.")
		}
		return nil
	}

	failed := 0
	for _, u := range updates {
		err := applyUpdate(cmd, app, u.Installation.CatalogID, u.Installation.ArtifactID, u.LatestVersion)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d artifacts (%d failed).\n", len(updates)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d updates failed", failed)
	}
	return nil
}

func applyUpdate(cmd *cobra.Command, app *app, catalogID, artifactID, version string) error {
	artifact, err := app.store.GetArtifact(catalogID, artifactID)
	if err != nil {
		return fmt.Errorf("loading artifact %q: %w", artifactID, err)
	}
	res := app.installer.Update(cmd.Context(), artifact, app.authFor(catalogID))
	if !res.Success {
		return fmt.Errorf("updating %q: %s", artifactID, res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s to %s\n", artifactID, version)
	return nil
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
